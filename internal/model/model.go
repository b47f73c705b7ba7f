// Package model defines the core domain types for the registration system.
package model

import (
	"errors"
	"fmt"
	"time"
)

// DefaultQuotaName is claimed by participants whose form has no quota attribute.
const DefaultQuotaName = "_"

// ErrInvalidEvent is returned when an event definition is inconsistent.
var ErrInvalidEvent = errors.New("invalid event definition")

// Quota is a named capacity bucket with a guaranteed allotment and an
// overflow (reserve) allotment.
type Quota struct {
	Name       string
	Guaranteed int
	Reserve    int

	// Optional registration window for this quota. Zero values mean the
	// quota follows the event window only.
	Start time.Time
	End   time.Time

	// Spillover names another quota whose unused capacity becomes this
	// quota's maximum capacity. Reserve is then ignored, and the quota
	// adds nothing to the event's MaxLimit.
	Spillover string
}

// NewQuota returns a quota without its own registration window.
func NewQuota(name string, guaranteed, reserve int) Quota {
	return Quota{Name: name, Guaranteed: guaranteed, Reserve: reserve}
}

// DefaultQuota returns the distinguished quota claimed by participants
// without an explicit quota.
func DefaultQuota(guaranteed, reserve int) Quota {
	return NewQuota(DefaultQuotaName, guaranteed, reserve)
}

// Windowed returns a copy of q restricted to the given registration window.
func (q Quota) Windowed(start, end time.Time) Quota {
	q.Start = start
	q.End = end
	return q
}

// MaxCapacity returns guaranteed + reserve.
func (q Quota) MaxCapacity() int {
	return q.Guaranteed + q.Reserve
}

// IsDefault reports whether q is the distinguished default quota.
func (q Quota) IsDefault() bool {
	return q.Name == DefaultQuotaName
}

// Event is the read-only definition of one registration event.
type Event struct {
	title     string
	start     time.Time
	end       time.Time
	quotas    map[string]Quota
	order     []string
	listNames bool

	participantLimit int
	maxLimit         int
}

// NewEvent builds an event and computes its derived totals once.
func NewEvent(title string, start, end time.Time, listNames bool, quotas ...Quota) (*Event, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %q ends before it starts", ErrInvalidEvent, title)
	}
	if len(quotas) == 0 {
		return nil, fmt.Errorf("%w: %q has no quotas", ErrInvalidEvent, title)
	}
	e := &Event{
		title:     title,
		start:     start,
		end:       end,
		quotas:    make(map[string]Quota, len(quotas)),
		listNames: listNames,
	}
	for _, q := range quotas {
		if q.Name == "" {
			return nil, fmt.Errorf("%w: %q has a quota without a name", ErrInvalidEvent, title)
		}
		if q.Guaranteed < 0 || q.Reserve < 0 {
			return nil, fmt.Errorf("%w: quota %q has a negative capacity", ErrInvalidEvent, q.Name)
		}
		if _, dup := e.quotas[q.Name]; dup {
			return nil, fmt.Errorf("%w: quota %q defined twice", ErrInvalidEvent, q.Name)
		}
		e.quotas[q.Name] = q
		e.order = append(e.order, q.Name)
		e.participantLimit += q.Guaranteed
		if q.Spillover == "" {
			e.maxLimit += q.MaxCapacity()
		}
	}
	for _, q := range quotas {
		if q.Spillover == "" {
			continue
		}
		if q.Spillover == q.Name {
			return nil, fmt.Errorf("%w: quota %q spills over into itself", ErrInvalidEvent, q.Name)
		}
		if _, ok := e.quotas[q.Spillover]; !ok {
			return nil, fmt.Errorf("%w: quota %q spills over from unknown quota %q", ErrInvalidEvent, q.Name, q.Spillover)
		}
	}
	return e, nil
}

func (e *Event) Title() string         { return e.title }
func (e *Event) Start() time.Time      { return e.start }
func (e *Event) End() time.Time        { return e.end }
func (e *Event) ListNames() bool       { return e.listNames }
func (e *Event) ParticipantLimit() int { return e.participantLimit }
func (e *Event) MaxLimit() int         { return e.maxLimit }

// Quota returns the named quota.
func (e *Event) Quota(name string) (Quota, bool) {
	q, ok := e.quotas[name]
	return q, ok
}

// Quotas returns the quotas in declaration order.
func (e *Event) Quotas() []Quota {
	out := make([]Quota, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.quotas[name])
	}
	return out
}

// QuotaNames returns the quota names in declaration order.
func (e *Event) QuotaNames() []string {
	return append([]string(nil), e.order...)
}

// Phase describes where a point in time falls relative to the event window.
type Phase int

const (
	PhaseNotOpen Phase = iota
	PhaseOpen
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseNotOpen:
		return "not_open"
	case PhaseOpen:
		return "open"
	default:
		return "closed"
	}
}

// PhaseAt reports the event window phase at now. Both window ends are inclusive.
func (e *Event) PhaseAt(now time.Time) Phase {
	switch {
	case now.Before(e.start):
		return PhaseNotOpen
	case now.After(e.end):
		return PhaseClosed
	default:
		return PhaseOpen
	}
}

// Tally holds per-request running registration counts per quota. It is
// derived by replaying stored registrations and is never persisted.
type Tally struct {
	event      *Event
	registered map[string]int
}

// NewTally returns a tally with every counter at zero.
func NewTally(e *Event) *Tally {
	return &Tally{event: e, registered: make(map[string]int, len(e.quotas))}
}

// Registered returns the running count for a quota.
func (t *Tally) Registered(name string) int {
	return t.registered[name]
}

// Add increments the quota counter and returns the post-increment value.
func (t *Tally) Add(name string, n int) int {
	t.registered[name] += n
	return t.registered[name]
}

// MaxCapacity returns the quota's effective maximum capacity given the
// counts seen so far. Spillover quotas take what their source has left.
func (t *Tally) MaxCapacity(name string) int {
	q, ok := t.event.quotas[name]
	if !ok {
		return 0
	}
	if q.Spillover == "" {
		return q.MaxCapacity()
	}
	src := t.event.quotas[q.Spillover]
	left := src.MaxCapacity() - t.registered[src.Name]
	if left < 0 {
		return 0
	}
	return left
}

// Snapshot returns a copy of all counters keyed by quota name.
func (t *Tally) Snapshot() map[string]int {
	out := make(map[string]int, len(t.registered))
	for k, v := range t.registered {
		out[k] = v
	}
	return out
}

// QuotaCount is the number of participants one submission claims for a quota.
type QuotaCount struct {
	Name  string
	Count int
}

// CountClaims folds an ordered list of claimed quota names into per-quota
// counts, keeping the order of first appearance.
func CountClaims(claims []string) []QuotaCount {
	idx := make(map[string]int, len(claims))
	var out []QuotaCount
	for _, name := range claims {
		if i, ok := idx[name]; ok {
			out[i].Count++
			continue
		}
		idx[name] = len(out)
		out = append(out, QuotaCount{Name: name, Count: 1})
	}
	return out
}

// Recipient is the addressee of a registration notification.
type Recipient struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
}
