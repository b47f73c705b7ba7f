package schema

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Column is one materialized storage-side field.
type Column interface {
	Spec() *ColumnSpec
	Value() Value
	Set(v Value) error
}

// ColumnSpec describes a stored column. Relation columns carry the record
// type of the rows they own.
type ColumnSpec struct {
	Attr   *Attribute
	Kind   Kind
	Length int
	Elem   *RecordType
	Many   bool

	newColumn func(spec *ColumnSpec) Column
}

// Name returns the attribute name the column stores.
func (c *ColumnSpec) Name() string { return c.Attr.Name }

// Relation reports whether the column is stored as child rows.
func (c *ColumnSpec) Relation() bool { return c.Elem != nil }

type columnBase struct {
	spec  *ColumnSpec
	value Value
}

func (c *columnBase) Spec() *ColumnSpec { return c.spec }
func (c *columnBase) Value() Value      { return c.value }

func (c *columnBase) check(v Value) error {
	if v.kind != 0 && v.kind != c.spec.Kind {
		return fmt.Errorf("column %s: cannot store %s value", c.spec.Name(), v.kind)
	}
	return nil
}

type stringColumn struct{ columnBase }

func (c *stringColumn) Set(v Value) error {
	if err := c.check(v); err != nil {
		return err
	}
	if c.spec.Length > 0 && utf8.RuneCountInString(v.str) > c.spec.Length {
		return fmt.Errorf("column %s: value exceeds %d characters", c.spec.Name(), c.spec.Length)
	}
	c.value = StringValue(v.str)
	return nil
}

type intColumn struct{ columnBase }

func (c *intColumn) Set(v Value) error {
	if err := c.check(v); err != nil {
		return err
	}
	if !v.set {
		c.value = Value{kind: KindInt}
		return nil
	}
	c.value = IntValue(v.num)
	return nil
}

type boolColumn struct{ columnBase }

func (c *boolColumn) Set(v Value) error {
	if err := c.check(v); err != nil {
		return err
	}
	c.value = BoolValue(v.flag)
	return nil
}

type timeColumn struct{ columnBase }

func (c *timeColumn) Set(v Value) error {
	if err := c.check(v); err != nil {
		return err
	}
	c.value = TimeValue(v.at)
	return nil
}

// choiceColumn stores only the selected option name.
type choiceColumn struct{ columnBase }

func (c *choiceColumn) Set(v Value) error {
	if err := c.check(v); err != nil {
		return err
	}
	if v.str != "" && !contains(c.spec.Attr.Choices, v.str) {
		return fmt.Errorf("column %s: %q is not a valid choice", c.spec.Name(), v.str)
	}
	c.value = ChoiceValue(v.str)
	return nil
}

// relationColumn owns child records: many for lists, at most one for objects.
type relationColumn struct {
	spec *ColumnSpec
	rows []*Record
}

func (c *relationColumn) Spec() *ColumnSpec { return c.spec }
func (c *relationColumn) Value() Value      { return Value{} }

func (c *relationColumn) Set(Value) error {
	return fmt.Errorf("column %s: relation holds rows, not values", c.spec.Name())
}

// Record is an instance of a compiled storage-side attribute list.
type Record struct {
	typ  *RecordType
	cols []Column
}

// Type returns the record type the record was created from.
func (r *Record) Type() *RecordType { return r.typ }

// Columns returns the columns in declaration order.
func (r *Record) Columns() []Column { return r.cols }

// Column returns the named column.
func (r *Record) Column(name string) (Column, bool) {
	i, ok := r.typ.index[name]
	if !ok {
		return nil, false
	}
	return r.cols[i], true
}

func (r *Record) Has(name string) bool {
	_, ok := r.typ.index[name]
	return ok
}

// Get returns the value of the named attribute, or the zero Value.
func (r *Record) Get(name string) Value {
	c, ok := r.Column(name)
	if !ok {
		return Value{}
	}
	return c.Value()
}

// Set stores v in the named column.
func (r *Record) Set(name string, v Value) error {
	c, ok := r.Column(name)
	if !ok {
		return fmt.Errorf("record %s: no column %s", r.typ.Table, name)
	}
	return c.Set(v)
}

func (r *Record) relation(name string) *relationColumn {
	if c, ok := r.Column(name); ok {
		if rel, ok := c.(*relationColumn); ok {
			return rel
		}
	}
	return nil
}

// Rows returns the child records of a relation column.
func (r *Record) Rows(name string) []*Record {
	if rel := r.relation(name); rel != nil {
		return rel.rows
	}
	return nil
}

// Object returns the single child record of an object relation, if any.
func (r *Record) Object(name string) *Record {
	if rows := r.Rows(name); len(rows) > 0 {
		return rows[0]
	}
	return nil
}

// Append creates a child record in the named relation and returns it.
func (r *Record) Append(name string) (*Record, error) {
	rel := r.relation(name)
	if rel == nil {
		return nil, fmt.Errorf("record %s: no relation %s", r.typ.Table, name)
	}
	if !rel.spec.Many && len(rel.rows) > 0 {
		return nil, fmt.Errorf("record %s: relation %s holds a single row", r.typ.Table, name)
	}
	child := rel.spec.Elem.New()
	rel.rows = append(rel.rows, child)
	return child, nil
}

// Registration is an instance of a compiled Storage Type: one admitted
// submission together with its creation time and cached reserve status.
type Registration struct {
	ID        string
	CreatedAt time.Time

	record    *Record
	inReserve bool
}

// Record returns the top-level stored record.
func (r *Registration) Record() *Record { return r.record }

// InReserve reports the reserve status assigned at admission. Stored
// registrations are not updated; replay them for the current status.
func (r *Registration) InReserve() bool { return r.inReserve }

func (r *Registration) SetInReserve(v bool) { r.inReserve = v }

func (r *Registration) RequiredParticipants() []Participant {
	return rowsAsParticipants(r.record.Rows(AttrRequiredParticipants))
}

func (r *Registration) OptionalParticipants() []Participant {
	return rowsAsParticipants(r.record.Rows(AttrOptionalParticipants))
}

func (r *Registration) OtherAttributes() OtherAttributes {
	if o := r.record.Object(AttrOtherAttributes); o != nil {
		return otherAttributesOf(o)
	}
	return otherAttributesOf(nil)
}

func rowsAsParticipants(rows []*Record) []Participant {
	out := make([]Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, participantOf(row))
	}
	return out
}
