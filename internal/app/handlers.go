package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Raimguhinov/alarm-go/internal/alarm"
	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/Raimguhinov/alarm-go/internal/notify"
	"github.com/Raimguhinov/alarm-go/internal/usecase"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type alarmRoutes struct {
	alarms *usecase.Alarms
	center *notify.Center
	l      *logger.Logger
}

func (h *alarmRoutes) list(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.alarms.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, alarms)
}

func (h *alarmRoutes) create(w http.ResponseWriter, r *http.Request) {
	var a alarm.Alarm
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if a.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	created, err := h.alarms.Create(r.Context(), a)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusCreated, created)
}

func (h *alarmRoutes) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	a, err := h.alarms.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, a)
}

func (h *alarmRoutes) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var a alarm.Alarm
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a.ID = id
	updated, err := h.alarms.Update(r.Context(), a)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, updated)
}

func (h *alarmRoutes) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.alarms.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *alarmRoutes) toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Enabled bool `json:"isEnabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := h.alarms.Toggle(r.Context(), id, req.Enabled)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, a)
}

func (h *alarmRoutes) dismiss(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.alarms.Dismiss(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *alarmRoutes) reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.alarms.Reorder(r.Context(), req.IDs); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *alarmRoutes) pending(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.center.Snapshot(r.Context()))
}

func (h *alarmRoutes) delivered(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, h.center.ListDelivered(r.Context()))
}

// timezoneChanged is the device-timezone-change signal: the schedule store
// moves to the new zone and every enabled alarm is replanned from scratch.
func (h *alarmRoutes) timezoneChanged(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timezone string `json:"timezoneIdentifier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	loc, err := civil.LoadZone(req.Timezone)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.center.SetLocation(loc)
	if err := h.alarms.ReplanAll(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *alarmRoutes) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid alarm id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *alarmRoutes) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.l.Error("app - respond - json.Encode", logger.Err(err))
	}
}

func (h *alarmRoutes) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, usecase.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	h.l.Error("app - handler", logger.Err(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
