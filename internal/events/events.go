// Package events declares the events the server hosts and builds the
// module registry from them once at startup.
package events

import (
	"log"
	"strings"
	"time"

	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

// Definition declares one event. Build compiles its types and event
// definition with windows given in loc.
type Definition struct {
	ID    string
	Build func(loc *time.Location) (*service.Module, error)
}

// All returns every declared event in index order.
func All() []Definition {
	return []Definition{
		{ID: "pitsakalja", Build: pitsakalja},
		{ID: "pubivisa", Build: pubivisa},
		{ID: "humanoori_sitsit", Build: humanooriSitsit},
		{ID: "fuksisitsit_2025", Build: fuksisitsit2025},
	}
}

// NewRegistry builds every definition. A definition that fails to build is
// logged and left out; the rest are still served.
func NewRegistry(loc *time.Location, defs ...Definition) (*service.Registry, error) {
	var modules []*service.Module
	for _, d := range defs {
		m, err := d.Build(loc)
		if err != nil {
			log.Printf("event %s disabled: %v", d.ID, err)
			continue
		}
		modules = append(modules, m)
	}
	return service.NewRegistry(modules...)
}

func at(loc *time.Location, year int, month time.Month, day, hour, minute, sec int) time.Time {
	return time.Date(year, month, day, hour, minute, sec, 0, loc)
}

func greeting(p schema.Participant) string {
	return "Hei " + p.Firstname() + " " + p.Lastname() + "\n\n"
}

const signature = "Älä vastaa tähän sähköpostiin\n\nTerveisin: ropottilari"

const noReply = "Älä vastaa tähän sähköpostiin, vastaus ei mene silloin mihinkään."

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}
