package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/workout"
)

const keepAliveInterval = 25 * time.Second

// SessionActionRequest drives the workout player.
type SessionActionRequest struct {
	Action string `json:"action"`
}

// Validate ensures request correctness.
func (r SessionActionRequest) Validate() error {
	switch workout.Action(r.Action) {
	case workout.ActionPlay, workout.ActionPause, workout.ActionToggle,
		workout.ActionNext, workout.ActionPrev, workout.ActionReset:
		return nil
	case "":
		return errors.New("action is required")
	default:
		return errors.New("action must be play, pause, toggle, next, prev or reset")
	}
}

// startSession opens a paused player over the workout, replacing the caller's previous session for
// it. Only enrolled users may train.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	plan, err := h.Catalog.WorkoutPlan(r.Context(), chi.URLParam(r, "workoutID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	enrolled, err := h.Progress.IsEnrolled(r.Context(), user.ID, plan.Workout.CourseID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if !enrolled {
		h.writeDomainError(w, r, domain.ErrNotEnrolled)
		return
	}
	snap := h.Sessions.Start(user.ID, *plan)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Sessions.Get(chi.URLParam(r, "sessionID"), currentUser(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) stopSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Stop(chi.URLParam(r, "sessionID"), currentUser(r).ID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) controlSession(w http.ResponseWriter, r *http.Request) {
	var req SessionActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	snap, err := h.Sessions.Control(r.Context(), chi.URLParam(r, "sessionID"), currentUser(r).ID, workout.Action(req.Action))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// streamSession pushes player snapshots as server-sent events until the session ends or the
// client disconnects.
func (h *Handler) streamSession(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}
	updates, release, err := h.Sessions.Subscribe(chi.URLParam(r, "sessionID"), currentUser(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap, open := <-updates:
			if !open {
				_, _ = fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.Logger.Error().Err(err).Msg("encode session snapshot")
				return
			}
			if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
