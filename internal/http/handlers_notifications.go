package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/log"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ns, err := s.notes.List(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toNotifications(ns))
}

// handleCreateNotification records a budget alert or goal notification for
// the user and returns it with its assigned id.
func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := parseNotificationRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n.CreatedAt = time.Now().UTC()
	id, err := s.notes.Append(r.Context(), user, n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n.ID = id
	log.FromContext(r.Context()).DebugContext(r.Context(), "Notification created",
		log.FieldUserID, user, "type", string(n.Type))
	writeJSON(w, r, http.StatusCreated, n)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.notes.MarkRead(r.Context(), user, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMarkAllRead marks every notification the user currently has.
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ns, err := s.notes.List(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ids := make([]string, 0, len(ns))
	for _, n := range ns {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	if err := s.notes.MarkAllRead(r.Context(), user, ids); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNotificationStream pushes the user's notification list as
// server-sent events: once on connect and again after every change.
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	ctx := r.Context()
	snapshots, release := s.notes.Subscribe(ctx, user)
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Streaming not supported", log.FieldError, err)
		return
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentNotify)
	logger.DebugContext(ctx, "Notification stream opened", log.FieldUserID, user)
	defer logger.DebugContext(ctx, "Notification stream closed", log.FieldUserID, user)

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			if err := writeEvent(w, "notifications", toNotifications(snapshot)); err != nil {
				logger.DebugContext(ctx, "Notification stream write failed", log.FieldError, err)
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
