package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// InputField is one materialized input-side field.
type InputField interface {
	Attribute() *Attribute
	// Bind loads submitted data. Malformed data is remembered and reported
	// by Validate rather than returned.
	Bind(data any)
	Value() Value
	Empty() bool
	Validate(g *InputGroup) bool
	Errors() []string
	// Echo returns the submitted data for re-display.
	Echo() any
}

// Widget is the control used to render a choice attribute.
type Widget string

const (
	WidgetRadio  Widget = "radio"
	WidgetSelect Widget = "select"
)

// maxRadioChoices is the largest choice set rendered as radio buttons.
const maxRadioChoices = 4

// WidgetFor returns the control for a choice attribute.
func WidgetFor(a *Attribute) Widget {
	if len(a.Choices) > maxRadioChoices {
		return WidgetSelect
	}
	return WidgetRadio
}

type fieldBase struct {
	attr   *Attribute
	errors []string
}

func (f *fieldBase) Attribute() *Attribute { return f.attr }
func (f *fieldBase) Errors() []string      { return f.errors }

// addError records msg unless a validator already reported it.
func (f *fieldBase) addError(msg string) {
	if !contains(f.errors, msg) {
		f.errors = append(f.errors, msg)
	}
}

func (f *fieldBase) runValidators(self InputField, g *InputGroup) bool {
	for _, v := range f.attr.Validators {
		if err := v(self, g); err != nil {
			f.errors = append(f.errors, err.Error())
		}
	}
	return len(f.errors) == 0
}

// textInput serves string, int and datetime attributes.
type textInput struct {
	fieldBase
	raw   string
	value Value
	bad   bool
}

func toText(data any) string {
	switch x := data.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func (f *textInput) Bind(data any) {
	f.raw = norm.NFC.String(strings.TrimSpace(toText(data)))
	f.bad = false
	switch f.attr.Kind {
	case KindInt:
		f.value = Value{kind: KindInt}
		if f.raw == "" {
			return
		}
		n, err := strconv.ParseInt(f.raw, 10, 64)
		if err != nil {
			f.bad = true
			return
		}
		f.value = IntValue(n)
	case KindDatetime:
		f.value = Value{kind: KindDatetime}
		if f.raw == "" {
			return
		}
		t, err := time.Parse(f.attr.Layout, f.raw)
		if err != nil {
			f.bad = true
			return
		}
		f.value = TimeValue(t)
	default:
		f.value = StringValue(f.raw)
	}
}

func (f *textInput) Value() Value { return f.value }
func (f *textInput) Empty() bool  { return f.raw == "" }
func (f *textInput) Echo() any    { return f.raw }

func (f *textInput) Validate(g *InputGroup) bool {
	f.errors = nil
	if f.bad {
		f.errors = append(f.errors, fmt.Sprintf("Not a valid %s value.", f.attr.Kind))
	}
	return f.runValidators(f, g) && !f.bad
}

type checkboxInput struct {
	fieldBase
	checked bool
}

func (f *checkboxInput) Bind(data any) {
	switch x := data.(type) {
	case bool:
		f.checked = x
	default:
		switch strings.ToLower(strings.TrimSpace(toText(x))) {
		case "y", "yes", "on", "true", "1":
			f.checked = true
		default:
			f.checked = false
		}
	}
}

func (f *checkboxInput) Value() Value { return BoolValue(f.checked) }
func (f *checkboxInput) Empty() bool  { return !f.checked }
func (f *checkboxInput) Echo() any    { return f.checked }

func (f *checkboxInput) Validate(g *InputGroup) bool {
	f.errors = nil
	return f.runValidators(f, g)
}

// choiceInput is a single-selection control constrained to the declared choices.
type choiceInput struct {
	fieldBase
	widget   Widget
	selected string
}

func (f *choiceInput) Widget() Widget { return f.widget }

func (f *choiceInput) Bind(data any) {
	f.selected = norm.NFC.String(strings.TrimSpace(toText(data)))
}

func (f *choiceInput) Value() Value { return ChoiceValue(f.selected) }
func (f *choiceInput) Empty() bool  { return f.selected == "" }
func (f *choiceInput) Echo() any    { return f.selected }

func (f *choiceInput) Validate(g *InputGroup) bool {
	f.errors = nil
	valid := true
	if f.selected != "" && !contains(f.attr.Choices, f.selected) {
		f.errors = append(f.errors, "Not a valid choice.")
		valid = false
	}
	return f.runValidators(f, g) && valid
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// listInput holds a fixed number of independent sub-form slots.
type listInput struct {
	fieldBase
	slots    []*InputGroup
	overflow bool
	bad      bool
}

func (f *listInput) Slots() []*InputGroup { return f.slots }

func (f *listInput) Bind(data any) {
	f.overflow, f.bad = false, false
	if data == nil {
		return
	}
	items, ok := data.([]any)
	if !ok {
		f.bad = true
		return
	}
	if len(items) > len(f.slots) {
		f.overflow = true
		items = items[:len(f.slots)]
	}
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok && item != nil {
			f.bad = true
			continue
		}
		f.slots[i].Bind(m)
	}
}

func (f *listInput) Value() Value { return Value{} }

func (f *listInput) Empty() bool {
	for _, s := range f.slots {
		if !s.Empty() {
			return false
		}
	}
	return true
}

func (f *listInput) Echo() any {
	out := make([]any, len(f.slots))
	for i, s := range f.slots {
		out[i] = s.Echo()
	}
	return out
}

// Validate checks every slot, except that slots of a SkipEmpty list are
// checked only once they are in use. Participant slots of other lists must
// carry both names.
func (f *listInput) Validate(g *InputGroup) bool {
	f.errors = nil
	valid := true
	if f.bad {
		f.errors = append(f.errors, "Malformed list entries.")
		valid = false
	}
	if f.overflow {
		f.errors = append(f.errors, fmt.Sprintf("At most %d entries are allowed.", len(f.slots)))
		valid = false
	}
	for _, s := range f.slots {
		if f.attr.SkipEmpty && !s.inUse() {
			s.clearErrors()
			continue
		}
		if !s.Validate() {
			valid = false
		}
		if !f.attr.SkipEmpty && s.isParticipant() && s.requireNames() {
			valid = false
		}
	}
	return f.runValidators(f, g) && valid
}

// objectInput holds one nested sub-form.
type objectInput struct {
	fieldBase
	group *InputGroup
	bad   bool
}

func (f *objectInput) Group() *InputGroup { return f.group }

func (f *objectInput) Bind(data any) {
	f.bad = false
	if data == nil {
		return
	}
	m, ok := data.(map[string]any)
	if !ok {
		f.bad = true
		return
	}
	f.group.Bind(m)
}

func (f *objectInput) Value() Value { return Value{} }
func (f *objectInput) Empty() bool  { return f.group.Empty() }
func (f *objectInput) Echo() any    { return f.group.Echo() }

func (f *objectInput) Validate(g *InputGroup) bool {
	f.errors = nil
	valid := f.group.Validate()
	if f.bad {
		f.errors = append(f.errors, "Malformed object.")
		valid = false
	}
	return f.runValidators(f, g) && valid
}

// InputGroup is an instance of a compiled input-side attribute list.
type InputGroup struct {
	typ    *InputGroupType
	fields []InputField
}

// Type returns the compiled type the group was created from.
func (g *InputGroup) Type() *InputGroupType { return g.typ }

// Fields returns the fields in declaration order.
func (g *InputGroup) Fields() []InputField { return g.fields }

// Field returns the named field.
func (g *InputGroup) Field(name string) (InputField, bool) {
	i, ok := g.typ.index[name]
	if !ok {
		return nil, false
	}
	return g.fields[i], true
}

// Has reports whether the group declares the named attribute.
func (g *InputGroup) Has(name string) bool {
	_, ok := g.typ.index[name]
	return ok
}

// Get returns the value of the named attribute, or the zero Value.
func (g *InputGroup) Get(name string) Value {
	f, ok := g.Field(name)
	if !ok {
		return Value{}
	}
	return f.Value()
}

// Slots returns the sub-forms of a list attribute.
func (g *InputGroup) Slots(name string) []*InputGroup {
	if f, ok := g.Field(name); ok {
		if l, ok := f.(*listInput); ok {
			return l.slots
		}
	}
	return nil
}

// Object returns the sub-form of an object attribute.
func (g *InputGroup) Object(name string) *InputGroup {
	if f, ok := g.Field(name); ok {
		if o, ok := f.(*objectInput); ok {
			return o.group
		}
	}
	return nil
}

// Bind loads submitted data keyed by attribute name. Missing keys leave
// fields empty; unknown keys are ignored.
func (g *InputGroup) Bind(data map[string]any) {
	for _, f := range g.fields {
		f.Bind(data[f.Attribute().Name])
	}
}

// Validate runs every field's validators and reports whether all passed.
func (g *InputGroup) Validate() bool {
	valid := true
	for _, f := range g.fields {
		if !f.Validate(g) {
			valid = false
		}
	}
	return valid
}

func (g *InputGroup) clearErrors() {
	for _, f := range g.fields {
		switch x := f.(type) {
		case *textInput:
			x.errors = nil
		case *checkboxInput:
			x.errors = nil
		case *choiceInput:
			x.errors = nil
		case *listInput:
			x.errors = nil
			for _, s := range x.slots {
				s.clearErrors()
			}
		case *objectInput:
			x.errors = nil
			x.group.clearErrors()
		}
	}
}

// Empty reports whether no field carries data.
func (g *InputGroup) Empty() bool {
	for _, f := range g.fields {
		if !f.Empty() {
			return false
		}
	}
	return true
}

func (g *InputGroup) isParticipant() bool { return g.Has(AttrFirstname) && g.Has(AttrLastname) }

// inUse reports whether a slot counts as submitted. Participant slots are
// in use once both names are given; other groups once any field has data.
func (g *InputGroup) inUse() bool {
	if g.isParticipant() {
		return participantOf(g).Filled()
	}
	return !g.Empty()
}

// requireNames flags the missing names of a participant slot that must be
// filled and reports whether any was missing.
func (g *InputGroup) requireNames() bool {
	missing := false
	for _, name := range []string{AttrFirstname, AttrLastname} {
		f, _ := g.Field(name)
		if !f.Empty() {
			continue
		}
		missing = true
		if x, ok := f.(interface{ addError(string) }); ok {
			x.addError(errRequired)
		}
	}
	return missing
}

// Echo returns the submitted data keyed by attribute name.
func (g *InputGroup) Echo() map[string]any {
	out := make(map[string]any, len(g.fields))
	for _, f := range g.fields {
		out[f.Attribute().Name] = f.Echo()
	}
	return out
}

// Errors returns field errors keyed by a dash-joined path, for example
// "required_participants-0-email".
func (g *InputGroup) Errors() map[string][]string {
	out := map[string][]string{}
	g.collectErrors("", out)
	return out
}

func (g *InputGroup) collectErrors(prefix string, out map[string][]string) {
	for _, f := range g.fields {
		key := prefix + f.Attribute().Name
		if errs := f.Errors(); len(errs) > 0 {
			out[key] = append([]string(nil), errs...)
		}
		switch x := f.(type) {
		case *listInput:
			for i, s := range x.slots {
				s.collectErrors(key+"-"+strconv.Itoa(i)+"-", out)
			}
		case *objectInput:
			x.group.collectErrors(key+"-", out)
		}
	}
}

// Form is an instance of a compiled Input Type: one submission.
type Form struct {
	*InputGroup
}

func (f *Form) RequiredParticipants() []Participant {
	return participantsOf(f.Slots(AttrRequiredParticipants))
}

func (f *Form) OptionalParticipants() []Participant {
	return participantsOf(f.Slots(AttrOptionalParticipants))
}

func (f *Form) OtherAttributes() OtherAttributes {
	if o := f.Object(AttrOtherAttributes); o != nil {
		return otherAttributesOf(o)
	}
	return otherAttributesOf(nil)
}

func participantsOf(slots []*InputGroup) []Participant {
	out := make([]Participant, 0, len(slots))
	for _, s := range slots {
		out = append(out, participantOf(s))
	}
	return out
}
