// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the admission service.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ouluntietoteekkarit/ilmo/internal/export"
	"github.com/ouluntietoteekkarit/ilmo/internal/model"
	"github.com/ouluntietoteekkarit/ilmo/internal/service"
)

// EventHandler holds all HTTP handlers for the registration API.
type EventHandler struct {
	registry  *service.Registry
	admission *service.Admission
	now       func() time.Time
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(registry *service.Registry, admission *service.Admission) *EventHandler {
	return &EventHandler{registry: registry, admission: admission, now: time.Now}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	return json.NewDecoder(r.Body).Decode(dst)
}

// module resolves the {event} URL parameter or writes a 404.
func (h *EventHandler) module(w http.ResponseWriter, r *http.Request) (*service.Module, bool) {
	mod, err := h.registry.Module(chi.URLParam(r, "event"))
	if err != nil {
		writeError(w, http.StatusNotFound, "event not found")
		return nil, false
	}
	return mod, true
}

// roster loads the replayed registrations or writes a 503.
func (h *EventHandler) roster(w http.ResponseWriter, r *http.Request, mod *service.Module) (*service.Roster, bool) {
	roster, err := h.admission.Roster(r.Context(), mod)
	if err != nil {
		log.Printf("event %s: %v", mod.ID, err)
		writeError(w, http.StatusServiceUnavailable, "registrations are temporarily unavailable")
		return nil, false
	}
	return roster, true
}

// ListEvents handles GET /
// Returns the active events.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	events := []model.EventSummary{}
	for _, m := range h.registry.Active() {
		events = append(events, model.EventSummary{
			ID:    m.ID,
			Title: m.Event.Title(),
			Start: m.Event.Start(),
			End:   m.Event.End(),
			Phase: m.Event.PhaseAt(now).String(),
		})
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /{event}
// Returns the event window, quota counts, consenting names and the form
// description.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	mod, ok := h.module(w, r)
	if !ok {
		return
	}
	roster, ok := h.roster(w, r, mod)
	if !ok {
		return
	}

	quotas := roster.Quotas()
	registered := 0
	for _, q := range quotas {
		registered += q.Registered
	}
	writeJSON(w, http.StatusOK, EventView{
		ID:               mod.ID,
		Title:            mod.Event.Title(),
		Start:            mod.Event.Start(),
		End:              mod.Event.End(),
		Phase:            mod.Event.PhaseAt(h.now()).String(),
		ParticipantLimit: mod.Event.ParticipantLimit(),
		MaxLimit:         mod.Event.MaxLimit(),
		Registered:       registered,
		Quotas:           quotas,
		Names:            roster.Names(),
		Fields:           mod.Types.Input.Describe(),
	})
}

// Register handles POST /{event}
// Runs the submitted form through admission. A rejection answers 422 with
// the reason and the submitted values; a store failure answers 503.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	mod, ok := h.module(w, r)
	if !ok {
		return
	}

	var data map[string]any
	if err := decodeJSON(w, r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	form := mod.Types.Input.New()
	form.Bind(data)

	out, err := h.admission.Submit(r.Context(), mod, form)
	switch {
	case errors.Is(err, service.ErrPersistence):
		writeError(w, http.StatusServiceUnavailable, out.Rejection)
		return
	case err != nil:
		log.Printf("event %s: submit: %v", mod.ID, err)
		writeError(w, http.StatusInternalServerError, out.Rejection)
		return
	}

	if !out.Admitted() {
		writeJSON(w, http.StatusUnprocessableEntity, model.RejectionResponse{
			Error:  out.Rejection,
			Errors: out.Errors,
			Values: form.Echo(),
		})
		return
	}
	writeJSON(w, http.StatusCreated, model.SubmitResponse{
		ID:      out.Registration.ID,
		Message: out.Message,
		Reserve: out.Reserve,
	})
}

// ListRegistrations handles GET /{event}/data
// Returns every registration with its reserve status.
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	mod, ok := h.module(w, r)
	if !ok {
		return
	}
	roster, ok := h.roster(w, r, mod)
	if !ok {
		return
	}

	regs := make([]RegistrationView, 0, len(roster.Registrations))
	for i, reg := range roster.Registrations {
		regs = append(regs, RegistrationView{
			ID:        reg.ID,
			CreatedAt: reg.CreatedAt,
			Reserve:   roster.InReserve(i),
			Data:      recordData(reg.Record()),
		})
	}
	writeJSON(w, http.StatusOK, regs)
}

// ExportCSV handles GET /{event}/data.csv
func (h *EventHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	mod, ok := h.module(w, r)
	if !ok {
		return
	}
	roster, ok := h.roster(w, r, mod)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+mod.ID+`_data.csv"`)
	if err := export.NewTable(mod.Types).WriteCSV(w, roster.Registrations); err != nil {
		log.Printf("event %s: export csv: %v", mod.ID, err)
	}
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
