package schema

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConfig matches every schema configuration error.
var ErrConfig = errors.New("schema configuration error")

var (
	ErrInvalidKind        = errors.New("invalid attribute kind")
	ErrMissingMandatory   = errors.New("missing mandatory attribute")
	ErrEmptyChoices       = errors.New("empty choice set")
	ErrInvalidChoices     = errors.New("empty or repeated choice")
	ErrDuplicateAttribute = errors.New("duplicate attribute name")
	ErrMissingEmail       = errors.New("no email attribute for participants or other attributes")
	ErrQuotaMismatch      = errors.New("quota attribute must be on both participant roles or neither")
	ErrInvalidCount       = errors.New("invalid repeat count")
	ErrMissingLayout      = errors.New("datetime attribute without layout")
)

// ConfigError is a fatal build-time failure of one event's schema.
type ConfigError struct {
	Form      string
	Role      Role
	Attribute string
	Err       error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("form ")
	b.WriteString(e.Form)
	if e.Role != "" {
		b.WriteString(", ")
		b.WriteString(string(e.Role))
	}
	if e.Attribute != "" {
		b.WriteString(", attribute ")
		b.WriteString(e.Attribute)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() []error { return []error{ErrConfig, e.Err} }

// Role names the part of a registration an attribute list describes.
type Role string

const (
	RoleRegistration        Role = "registration"
	RoleRequiredParticipant Role = "required_participant"
	RoleOptionalParticipant Role = "optional_participant"
	RoleOtherAttributes     Role = "other_attributes"
)

// checklists holds the attributes each role must declare.
var checklists = map[Role][]string{
	RoleRegistration:        {AttrRequiredParticipants, AttrOtherAttributes},
	RoleRequiredParticipant: {AttrFirstname, AttrLastname},
	RoleOptionalParticipant: {AttrFirstname, AttrLastname},
	RoleOtherAttributes:     {AttrPrivacyConsent},
}

// childRoles maps the well-known nested attributes of a registration to
// the role of their element list.
var childRoles = map[string]Role{
	AttrRequiredParticipants: RoleRequiredParticipant,
	AttrOptionalParticipants: RoleOptionalParticipant,
	AttrOtherAttributes:      RoleOtherAttributes,
}

// InputGroupType is the compiled input-side shape of one attribute list.
type InputGroupType struct {
	Name   string
	attrs  []*Attribute
	makers []func() InputField
	elems  map[string]*InputGroupType
	index  map[string]int
}

// New returns an empty group instance.
func (t *InputGroupType) New() *InputGroup {
	g := &InputGroup{typ: t, fields: make([]InputField, len(t.makers))}
	for i, mk := range t.makers {
		g.fields[i] = mk()
	}
	return g
}

// Attributes returns the compiled attributes in declaration order.
func (t *InputGroupType) Attributes() []*Attribute { return t.attrs }

// Names returns the attribute names in declaration order.
func (t *InputGroupType) Names() []string {
	names := make([]string, len(t.attrs))
	for i, a := range t.attrs {
		names[i] = a.Name
	}
	return names
}

// Elem returns the compiled element type of a list or object attribute.
func (t *InputGroupType) Elem(name string) *InputGroupType { return t.elems[name] }

// RecordType is the compiled storage-side shape of one attribute list.
type RecordType struct {
	Table   string
	columns []*ColumnSpec
	index   map[string]int
}

// New returns an empty record.
func (t *RecordType) New() *Record {
	r := &Record{typ: t, cols: make([]Column, len(t.columns))}
	for i, spec := range t.columns {
		r.cols[i] = spec.newColumn(spec)
	}
	return r
}

// Columns returns the column specs in declaration order.
func (t *RecordType) Columns() []*ColumnSpec { return t.columns }

// Names returns the attribute names in declaration order.
func (t *RecordType) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}
	return names
}

// Column returns the named column spec.
func (t *RecordType) Column(name string) (*ColumnSpec, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// InputType is the generated input-side type of one event.
type InputType struct {
	group *InputGroupType
}

// New returns an empty form with every repeated slot materialized.
func (t *InputType) New() *Form { return &Form{InputGroup: t.group.New()} }

// Group returns the top-level compiled group.
func (t *InputType) Group() *InputGroupType { return t.group }

// StorageType is the generated storage-side type of one event.
type StorageType struct {
	record *RecordType
}

// Record returns the top-level record type.
func (t *StorageType) Record() *RecordType { return t.record }

// New returns an empty registration.
func (t *StorageType) New(id string, createdAt time.Time) *Registration {
	return &Registration{ID: id, CreatedAt: createdAt, record: t.record.New()}
}

// FromInput converts a validated form into a registration. Optional slots
// that are not in use are dropped rather than stored as empty rows; an
// unfilled required participant slot is an error.
func (t *StorageType) FromInput(f *Form, id string, createdAt time.Time) (*Registration, error) {
	reg := t.New(id, createdAt)
	if err := copyGroup(reg.record, f.InputGroup); err != nil {
		return nil, err
	}
	return reg, nil
}

func copyGroup(dst *Record, src *InputGroup) error {
	for i, spec := range dst.typ.columns {
		field, ok := src.Field(spec.Name())
		if !ok {
			return fmt.Errorf("record %s: input has no field %s", dst.typ.Table, spec.Name())
		}
		if !spec.Relation() {
			if err := dst.cols[i].Set(field.Value()); err != nil {
				return err
			}
			continue
		}
		switch x := field.(type) {
		case *listInput:
			for i, slot := range x.slots {
				if !slot.inUse() {
					if slot.isParticipant() && !x.attr.SkipEmpty {
						return fmt.Errorf("record %s: %s slot %d is not filled", dst.typ.Table, spec.Name(), i)
					}
					continue
				}
				child, err := dst.Append(spec.Name())
				if err != nil {
					return err
				}
				if err := copyGroup(child, slot); err != nil {
					return err
				}
			}
		case *objectInput:
			child, err := dst.Append(spec.Name())
			if err != nil {
				return err
			}
			if err := copyGroup(child, x.group); err != nil {
				return err
			}
		}
	}
	return nil
}

// Types is the compiled pair of generated types for one event.
type Types struct {
	Form          string
	RequiredCount int
	OptionalCount int

	Required []Attribute
	Optional []Attribute
	Other    []Attribute

	Input   *InputType
	Storage *StorageType
}

// Compile derives the Input Type and the Storage Type of one event from its
// three descriptor lists. Every failure is a *ConfigError.
func Compile(required, optional, other []Attribute, requiredCount, optionalCount int, form string) (*Types, error) {
	if strings.TrimSpace(form) == "" {
		return nil, &ConfigError{Form: form, Err: errors.New("form name is required")}
	}
	if requiredCount < 1 {
		return nil, &ConfigError{Form: form, Role: RoleRequiredParticipant, Err: ErrInvalidCount}
	}
	if optionalCount < 0 {
		return nil, &ConfigError{Form: form, Role: RoleOptionalParticipant, Err: ErrInvalidCount}
	}
	if len(optional) == 0 {
		optionalCount = 0
	}
	if optionalCount == 0 {
		optional = nil
	}
	if err := checkEmail(required, other); err != nil {
		return nil, &ConfigError{Form: form, Err: err}
	}
	if optionalCount > 0 && hasAttribute(required, AttrQuota) != hasAttribute(optional, AttrQuota) {
		return nil, &ConfigError{Form: form, Role: RoleOptionalParticipant, Attribute: AttrQuota, Err: ErrQuotaMismatch}
	}

	top := []Attribute{List(AttrRequiredParticipants, "", "", requiredCount, required)}
	if optionalCount > 0 {
		opt := List(AttrOptionalParticipants, "", "", optionalCount, optional)
		opt.SkipEmpty = true
		top = append(top, opt)
	}
	top = append(top, Object(AttrOtherAttributes, "", "", other))

	c := &compiler{form: form}
	in, rec, err := c.group(RoleRegistration, form, form, top)
	if err != nil {
		return nil, err
	}
	return &Types{
		Form:          form,
		RequiredCount: requiredCount,
		OptionalCount: optionalCount,
		Required:      cloneAttributes(required),
		Optional:      cloneAttributes(optional),
		Other:         cloneAttributes(other),
		Input:         &InputType{group: in},
		Storage:       &StorageType{record: rec},
	}, nil
}

// AsksNameConsent reports whether the other attributes carry a name
// listing consent.
func (t *Types) AsksNameConsent() bool { return hasAttribute(t.Other, AttrNameConsent) }

type compiler struct {
	form string
}

func (c *compiler) fail(role Role, attr string, err error) error {
	return &ConfigError{Form: c.form, Role: role, Attribute: attr, Err: err}
}

// group compiles one attribute list into its input and storage shapes,
// recursing into list and object elements first.
func (c *compiler) group(role Role, name, table string, attrs []Attribute) (*InputGroupType, *RecordType, error) {
	in := &InputGroupType{Name: name, elems: map[string]*InputGroupType{}, index: make(map[string]int, len(attrs))}
	rec := &RecordType{Table: table, index: make(map[string]int, len(attrs))}

	for i := range attrs {
		a := cloneAttribute(attrs[i])
		if a.Name == "" {
			return nil, nil, c.fail(role, "", errors.New("attribute without a name"))
		}
		if _, dup := in.index[a.Name]; dup {
			return nil, nil, c.fail(role, a.Name, ErrDuplicateAttribute)
		}
		f, ok := factories[a.Kind]
		if !ok {
			return nil, nil, c.fail(role, a.Name, fmt.Errorf("%w: %s", ErrInvalidKind, a.Kind))
		}

		var elemIn *InputGroupType
		var elemRec *RecordType
		if a.Kind.Nested() {
			childRole := Role("")
			if role == RoleRegistration {
				childRole = childRoles[a.Name]
			}
			var err error
			elemIn, elemRec, err = c.group(childRole, a.Name, childTable(table, a.Name, childRole), a.Elem)
			if err != nil {
				return nil, nil, err
			}
		}

		maker, err := f.input(a, elemIn)
		if err != nil {
			return nil, nil, c.fail(role, a.Name, err)
		}
		spec, err := f.storage(a, elemRec)
		if err != nil {
			return nil, nil, c.fail(role, a.Name, err)
		}

		if elemIn != nil {
			in.elems[a.Name] = elemIn
		}
		in.index[a.Name] = len(in.attrs)
		in.attrs = append(in.attrs, a)
		in.makers = append(in.makers, maker)
		rec.index[a.Name] = len(rec.columns)
		rec.columns = append(rec.columns, spec)
	}

	for _, name := range checklists[role] {
		if _, ok := in.index[name]; !ok {
			return nil, nil, c.fail(role, name, ErrMissingMandatory)
		}
	}
	return in, rec, nil
}

func childTable(parent, attr string, role Role) string {
	switch role {
	case RoleRequiredParticipant:
		return parent + "_required_participant"
	case RoleOptionalParticipant:
		return parent + "_optional_participant"
	case RoleOtherAttributes:
		return parent + "_attributes"
	default:
		return parent + "_" + attr
	}
}

func checkEmail(required, other []Attribute) error {
	if hasAttribute(required, AttrEmail) || hasAttribute(other, AttrEmail) {
		return nil
	}
	return ErrMissingEmail
}

func hasAttribute(attrs []Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

func cloneAttribute(a Attribute) *Attribute {
	c := a
	c.Choices = append([]string(nil), a.Choices...)
	c.Validators = append([]Validator(nil), a.Validators...)
	c.Elem = cloneAttributes(a.Elem)
	return &c
}

func cloneAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i := range attrs {
		out[i] = *cloneAttribute(attrs[i])
	}
	return out
}
