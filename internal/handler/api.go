package handler

import (
	"time"

	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

// EventView is the public page of one event.
type EventView struct {
	ID               string                `json:"id"`
	Title            string                `json:"title"`
	Start            time.Time             `json:"start"`
	End              time.Time             `json:"end"`
	Phase            string                `json:"phase"`
	ParticipantLimit int                   `json:"participant_limit"`
	MaxLimit         int                   `json:"max_limit"`
	Registered       int                   `json:"registered"`
	Quotas           []service.QuotaStatus `json:"quotas"`
	Names            []service.ListedName  `json:"names,omitempty"`
	Fields           []schema.FieldInfo    `json:"fields"`
}

// RegistrationView is one stored registration in the protected data view.
type RegistrationView struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Reserve   bool           `json:"reserve"`
	Data      map[string]any `json:"data"`
}

// recordData converts a stored record into nested JSON values. Lists
// become arrays and objects become a single map.
func recordData(rec *schema.Record) map[string]any {
	out := make(map[string]any, len(rec.Columns()))
	for _, c := range rec.Columns() {
		spec := c.Spec()
		if !spec.Relation() {
			out[spec.Name()] = c.Value().Any()
			continue
		}
		rows := rec.Rows(spec.Name())
		if !spec.Many {
			if len(rows) > 0 {
				out[spec.Name()] = recordData(rows[0])
			} else {
				out[spec.Name()] = nil
			}
			continue
		}
		list := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			list = append(list, recordData(r))
		}
		out[spec.Name()] = list
	}
	return out
}
