package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ouluntietoteekkarit/ilmo/internal/i18n"
	"github.com/ouluntietoteekkarit/ilmo/internal/model"
	"github.com/ouluntietoteekkarit/ilmo/internal/schema"
)

// ErrPersistence wraps every failed store read or write during admission.
var ErrPersistence = errors.New("persistence failure")

// Store is the persistence collaborator. Registrations are returned in
// ascending creation order.
type Store interface {
	ListRegistrations(ctx context.Context, eventID string) ([]*schema.Registration, error)
	InsertRegistration(ctx context.Context, eventID string, reg *schema.Registration) error
}

// Notifier delivers the message sent to one participant after admission.
type Notifier interface {
	Notify(ctx context.Context, to model.Recipient, subject, body string) error
}

// Outcome is the result of one submission. An empty Rejection means the
// submission was admitted.
type Outcome struct {
	Rejection string
	// Errors holds per-field validation messages when the form was invalid.
	Errors map[string][]string

	Message      string
	Reserve      bool
	Registration *schema.Registration
}

// Admitted reports whether the submission was stored.
func (o Outcome) Admitted() bool { return o.Rejection == "" }

// Admission runs the admission pipeline for submitted forms.
type Admission struct {
	store    Store
	notifier Notifier
	printer  *i18n.Printer
	now      func() time.Time
	newID    func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Admission.
type Option func(*Admission)

// WithClock replaces the wall clock used for window checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Admission) { a.now = now }
}

// WithIDs replaces the registration id generator.
func WithIDs(newID func() string) Option {
	return func(a *Admission) { a.newID = newID }
}

// NewAdmission constructs an Admission with its collaborators.
func NewAdmission(store Store, notifier Notifier, printer *i18n.Printer, opts ...Option) *Admission {
	a := &Admission{
		store:    store,
		notifier: notifier,
		printer:  printer,
		now:      time.Now,
		newID:    uuid.NewString,
		locks:    map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// lock serializes the read-then-write part of the pipeline per event. It
// does not protect against other processes writing to the same store.
func (a *Admission) lock(eventID string) func() {
	a.mu.Lock()
	l, ok := a.locks[eventID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[eventID] = l
	}
	a.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (a *Admission) reject(key string, args ...any) Outcome {
	return Outcome{Rejection: a.printer.Sprintf(key, args...)}
}

// Submit validates form and admits it to mod's event or rejects it. A
// rejection is reported through Outcome, not as an error. The returned
// error wraps ErrPersistence when the store failed.
func (a *Admission) Submit(ctx context.Context, mod *Module, form *schema.Form) (Outcome, error) {
	now := a.now()
	event := mod.Event

	// Step 1: field validation.
	if !form.Validate() {
		out := a.reject(i18n.ValidationFailed)
		out.Errors = form.Errors()
		return out, nil
	}

	// Step 2: event window, then the windows of every claimed quota.
	switch event.PhaseAt(now) {
	case model.PhaseNotOpen:
		return a.reject(i18n.NotOpen), nil
	case model.PhaseClosed:
		return a.reject(i18n.Closed), nil
	}
	claims := model.CountClaims(schema.QuotaClaims(form))
	if msg := a.checkQuotaWindows(event, claims, now); msg != "" {
		return Outcome{Rejection: msg}, nil
	}

	out, err := a.admit(ctx, mod, form, claims, now)
	if err != nil || !out.Admitted() {
		return out, err
	}
	a.notify(ctx, mod, out.Registration)
	return out, nil
}

// admit runs the capacity and duplicate checks and stores the registration
// while holding the event lock.
func (a *Admission) admit(ctx context.Context, mod *Module, form *schema.Form, claims []model.QuotaCount, now time.Time) (Outcome, error) {
	unlock := a.lock(mod.ID)
	defer unlock()

	// Step 3: capacity, counted by replaying every stored registration.
	existing, err := a.store.ListRegistrations(ctx, mod.ID)
	if err != nil {
		log.Printf("admission %s: list registrations: %v", mod.ID, err)
		return a.reject(i18n.DatabaseError), fmt.Errorf("%w: list registrations: %w", ErrPersistence, err)
	}
	tally, _ := Replay(mod.Event, existing)
	if out, full := a.checkCapacity(tally, claims); full {
		return out, nil
	}

	// Step 4: duplicates against stored registrations, then within the form.
	submitted := schema.Participants(form)
	if p, found := findRegistered(existing, submitted); found {
		return a.reject(i18n.AlreadyRegistered, p.Firstname(), p.Lastname()), nil
	}
	if p, found := findRepeated(submitted); found {
		return a.reject(i18n.DuplicateInForm, p.Firstname(), p.Lastname()), nil
	}

	// Step 5: derive the reserve status from the same tally, then persist.
	reg, err := mod.Types.Storage.FromInput(form, a.newID(), now)
	if err != nil {
		return a.reject(i18n.ValidationFailed), fmt.Errorf("convert submission: %w", err)
	}
	reserve := claim(mod.Event, tally, reg)
	reg.SetInReserve(reserve)
	if err := a.store.InsertRegistration(ctx, mod.ID, reg); err != nil {
		log.Printf("admission %s: insert registration: %v", mod.ID, err)
		return a.reject(i18n.DatabaseError), fmt.Errorf("%w: insert registration: %w", ErrPersistence, err)
	}

	out := Outcome{Registration: reg, Reserve: reserve, Message: a.printer.Sprintf(i18n.Succeeded)}
	if reserve {
		out.Message = a.printer.Sprintf(i18n.SucceededReserve)
	}
	return out, nil
}

// checkQuotaWindows rejects claims of unknown quotas and collects one line
// per claimed quota whose own window excludes now.
func (a *Admission) checkQuotaWindows(event *model.Event, claims []model.QuotaCount, now time.Time) string {
	var violations []string
	for _, c := range claims {
		q, ok := event.Quota(c.Name)
		if !ok {
			return a.printer.Sprintf(i18n.InvalidValue)
		}
		if !q.Start.IsZero() && q.Start.After(now) {
			violations = append(violations, a.printer.Sprintf(i18n.QuotaNotOpen, q.Name))
		}
		if !q.End.IsZero() && q.End.Before(now) {
			violations = append(violations, a.printer.Sprintf(i18n.QuotaClosed, q.Name))
		}
	}
	return strings.Join(violations, "\n")
}

func (a *Admission) checkCapacity(tally *model.Tally, claims []model.QuotaCount) (Outcome, bool) {
	for _, c := range claims {
		if tally.Registered(c.Name)+c.Count <= tally.MaxCapacity(c.Name) {
			continue
		}
		if c.Name == model.DefaultQuotaName {
			return a.reject(i18n.Full), true
		}
		return a.reject(i18n.QuotaFull, c.Name), true
	}
	return Outcome{}, false
}

func (a *Admission) notify(ctx context.Context, mod *Module, reg *schema.Registration) {
	if a.notifier == nil {
		return
	}
	seen := map[string]bool{}
	for _, p := range schema.Participants(reg) {
		email := p.Email()
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		to := model.Recipient{Firstname: p.Firstname(), Lastname: p.Lastname(), Email: email}
		body := mod.message(p, reg, reg.InReserve())
		if err := a.notifier.Notify(ctx, to, mod.Event.Title(), body); err != nil {
			log.Printf("admission %s: notify %s: %v", mod.ID, email, err)
		}
	}
}

// Replay recomputes quota counts and reserve flags for regs, which must be
// in ascending creation order. The first Guaranteed claimants of a quota
// are confirmed; a registration with any later claimant is in reserve.
// reserve[i] belongs to regs[i]; regs themselves are not modified.
func Replay(event *model.Event, regs []*schema.Registration) (tally *model.Tally, reserve []bool) {
	tally = model.NewTally(event)
	reserve = make([]bool, len(regs))
	for i, reg := range regs {
		reserve[i] = claim(event, tally, reg)
	}
	return tally, reserve
}

// claim adds reg's quota claims to tally and reports whether any of them
// lands past its quota's guaranteed places.
func claim(event *model.Event, tally *model.Tally, reg *schema.Registration) bool {
	reserve := false
	for _, name := range schema.QuotaClaims(reg) {
		n := tally.Add(name, 1)
		q, _ := event.Quota(name)
		if n > q.Guaranteed {
			reserve = true
		}
	}
	return reserve
}

func sameIdentity(a, b schema.Participant) bool {
	return a.Firstname() != "" && a.Lastname() != "" && a.Email() != "" &&
		a.Firstname() == b.Firstname() && a.Lastname() == b.Lastname() && a.Email() == b.Email()
}

func findRegistered(existing []*schema.Registration, submitted []schema.Participant) (schema.Participant, bool) {
	for _, p := range submitted {
		for _, reg := range existing {
			for _, q := range schema.Participants(reg) {
				if sameIdentity(p, q) {
					return p, true
				}
			}
		}
	}
	return nil, false
}

func findRepeated(submitted []schema.Participant) (schema.Participant, bool) {
	for i := range submitted {
		for j := i + 1; j < len(submitted); j++ {
			if sameIdentity(submitted[i], submitted[j]) {
				return submitted[i], true
			}
		}
	}
	return nil, false
}

// Roster is the replayed registration state of one event.
type Roster struct {
	Event         *model.Event
	Registrations []*schema.Registration
	Tally         *model.Tally
	reserve       []bool
}

// InReserve reports the replayed reserve status of Registrations[i].
func (r *Roster) InReserve(i int) bool { return r.reserve[i] }

// Roster loads and replays the registrations of mod's event.
func (a *Admission) Roster(ctx context.Context, mod *Module) (*Roster, error) {
	regs, err := a.store.ListRegistrations(ctx, mod.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list registrations: %w", ErrPersistence, err)
	}
	tally, reserve := Replay(mod.Event, regs)
	return &Roster{Event: mod.Event, Registrations: regs, Tally: tally, reserve: reserve}, nil
}

// QuotaStatus summarizes one quota of a replayed roster.
type QuotaStatus struct {
	Name        string `json:"name"`
	Guaranteed  int    `json:"guaranteed"`
	MaxCapacity int    `json:"max_capacity"`
	Registered  int    `json:"registered"`
	Confirmed   int    `json:"confirmed"`
	Reserve     int    `json:"reserve"`
}

// Quotas returns per-quota counts in declaration order.
func (r *Roster) Quotas() []QuotaStatus {
	out := make([]QuotaStatus, 0, len(r.Event.QuotaNames()))
	for _, q := range r.Event.Quotas() {
		n := r.Tally.Registered(q.Name)
		confirmed := min(n, q.Guaranteed)
		out = append(out, QuotaStatus{
			Name:        q.Name,
			Guaranteed:  q.Guaranteed,
			MaxCapacity: r.Tally.MaxCapacity(q.Name),
			Registered:  n,
			Confirmed:   confirmed,
			Reserve:     n - confirmed,
		})
	}
	return out
}

// ListedName is a participant shown on the public event page.
type ListedName struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Reserve   bool   `json:"reserve"`
}

// Names returns the participants of registrations that consented to name
// listing, in creation order. It is empty unless the event lists names.
func (r *Roster) Names() []ListedName {
	if !r.Event.ListNames() {
		return nil
	}
	var out []ListedName
	for i, reg := range r.Registrations {
		if !reg.OtherAttributes().ShowNameConsent() {
			continue
		}
		for _, p := range schema.Participants(reg) {
			out = append(out, ListedName{Firstname: p.Firstname(), Lastname: p.Lastname(), Reserve: r.InReserve(i)})
		}
	}
	return out
}
