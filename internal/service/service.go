// Package service implements admission control for event registrations and
// the registry of event modules served by the process.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ouluntietoteekkarit/ilmo/internal/model"
	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
)

// ErrNotFound is returned when a requested event is not served.
var ErrNotFound = errors.New("event not found")

// MessageBuilder produces the notification body sent to one participant of
// an admitted registration.
type MessageBuilder interface {
	BuildMessage(p schema.Participant, reg *schema.Registration, reserve bool) string
}

// MessageFunc adapts a function to MessageBuilder.
type MessageFunc func(p schema.Participant, reg *schema.Registration, reserve bool) string

func (f MessageFunc) BuildMessage(p schema.Participant, reg *schema.Registration, reserve bool) string {
	return f(p, reg, reserve)
}

// Module is one configured event: its definition, its compiled types and
// its notification text.
type Module struct {
	ID       string
	Event    *model.Event
	Types    *schema.Types
	Messages MessageBuilder
	// Active modules are listed on the index page. Inactive ones are still
	// served by id.
	Active bool
}

func (m *Module) message(p schema.Participant, reg *schema.Registration, reserve bool) string {
	if m.Messages != nil {
		return m.Messages.BuildMessage(p, reg, reserve)
	}
	return defaultMessage(m.Event.Title(), p, reserve)
}

func defaultMessage(title string, p schema.Participant, reserve bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tervehdys, %s %s!\n\n", p.Firstname(), p.Lastname())
	if reserve {
		fmt.Fprintf(&b, "Olet ilmoittautunut tapahtumaan %s varasijalle.\n", title)
	} else {
		fmt.Fprintf(&b, "Olet ilmoittautunut tapahtumaan %s.\n", title)
	}
	b.WriteString("\nÄlä vastaa tähän sähköpostiin, vastaus ei mene mihinkään.")
	return b.String()
}

// Registry is the immutable set of modules built once at startup.
type Registry struct {
	modules []*Module
	byID    map[string]*Module
}

// NewRegistry indexes modules by id. Ids must be unique and non-empty.
func NewRegistry(modules ...*Module) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Module, len(modules))}
	for _, m := range modules {
		if m.ID == "" {
			return nil, fmt.Errorf("module without id")
		}
		if m.Event == nil || m.Types == nil {
			return nil, fmt.Errorf("module %s: event and types are required", m.ID)
		}
		if _, dup := r.byID[m.ID]; dup {
			return nil, fmt.Errorf("module %s registered twice", m.ID)
		}
		r.byID[m.ID] = m
		r.modules = append(r.modules, m)
	}
	return r, nil
}

// Modules returns every module in registration order.
func (r *Registry) Modules() []*Module {
	return append([]*Module(nil), r.modules...)
}

// Active returns the modules listed on the index page.
func (r *Registry) Active() []*Module {
	var out []*Module
	for _, m := range r.modules {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// Module returns a single module by id or ErrNotFound.
func (r *Registry) Module(id string) (*Module, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}
