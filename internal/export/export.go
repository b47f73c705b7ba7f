// Package export flattens registrations into table rows for CSV download.
//
// Columns are the required participant attributes once per required slot,
// the optional participant attributes once per optional slot, then the
// other attributes. Unfilled slots are blank.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
)

// Table flattens the registrations of one compiled form.
type Table struct {
	required      []schema.Attribute
	optional      []schema.Attribute
	other         []schema.Attribute
	requiredCount int
	optionalCount int
}

// NewTable builds the column layout of types. Nested attributes are not
// exported.
func NewTable(types *schema.Types) *Table {
	t := &Table{
		required:      scalars(types.Required),
		requiredCount: types.RequiredCount,
		other:         scalars(types.Other),
	}
	if types.OptionalCount > 0 {
		t.optional = scalars(types.Optional)
		t.optionalCount = types.OptionalCount
	}
	return t
}

func scalars(attrs []schema.Attribute) []schema.Attribute {
	var out []schema.Attribute
	for _, a := range attrs {
		if !a.Kind.Nested() {
			out = append(out, a)
		}
	}
	return out
}

// Header returns the header row. Participant headers are numbered by slot
// unless the form has exactly one participant slot.
func (t *Table) Header() []string {
	numbered := t.requiredCount+t.optionalCount != 1
	var out []string
	slot := 0
	add := func(attrs []schema.Attribute, count int) {
		for n := 0; n < count; n++ {
			slot++
			for i := range attrs {
				h := attrs[i].Header()
				if numbered {
					h += "_" + strconv.Itoa(slot)
				}
				out = append(out, h)
			}
		}
	}
	add(t.required, t.requiredCount)
	add(t.optional, t.optionalCount)
	for i := range t.other {
		out = append(out, t.other[i].Header())
	}
	return out
}

// Row flattens one registration in header order.
func (t *Table) Row(reg *schema.Registration) []string {
	var out []string
	out = appendParticipants(out, reg.RequiredParticipants(), t.required, t.requiredCount)
	out = appendParticipants(out, reg.OptionalParticipants(), t.optional, t.optionalCount)
	other := reg.OtherAttributes()
	for _, a := range t.other {
		out = append(out, other.Get(a.Name).String())
	}
	return out
}

func appendParticipants(out []string, ps []schema.Participant, attrs []schema.Attribute, count int) []string {
	for i := 0; i < count; i++ {
		for _, a := range attrs {
			if i < len(ps) {
				out = append(out, ps[i].Get(a.Name).String())
			} else {
				out = append(out, "")
			}
		}
	}
	return out
}

// WriteCSV writes the header and one row per registration to w.
func (t *Table) WriteCSV(w io.Writer, regs []*schema.Registration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, reg := range regs {
		if err := cw.Write(t.Row(reg)); err != nil {
			return fmt.Errorf("write csv row %s: %w", reg.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
