package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/allyourbase/dialplan/internal/httputil"
	"github.com/allyourbase/dialplan/internal/realtime"
	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createSessionRequest struct {
	Region string `json:"region"`
}

type sessionResponse struct {
	ID       string `json:"id"`
	Region   string `json:"region"`
	Output   string `json:"output"`
	Position int    `json:"position"`
}

type inputRequest struct {
	Digits   string `json:"digits"`
	Remember bool   `json:"remember"`
}

// maxInputRunes bounds how much one input request may type.
const maxInputRunes = 64

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if !httputil.DecodeJSON(w, r, &req) {
			return
		}
	}
	region := strings.ToUpper(strings.TrimSpace(req.Region))
	if region == "" {
		region = s.cfg.Engine.DefaultRegion
	}
	if region == "" {
		region = phonenumber.UnknownRegion
	}

	sess, err := s.sessions.create(region)
	if err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{ID: sess.id, Region: sess.region})
}

// lookupSession resolves {id}, writing 404 for malformed or unknown ids.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.WriteError(w, http.StatusNotFound, errSessionNotFound.Error())
		return nil, false
	}
	sess, err := s.sessions.get(id)
	if errors.Is(err, errSessionNotFound) {
		httputil.WriteError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	out, pos := sess.input("", false)
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{ID: sess.id, Region: sess.region, Output: out, Position: pos})
}

func (s *Server) handleSessionInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req inputRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Digits == "" {
		httputil.WriteFieldError(w, http.StatusBadRequest, "missing digits",
			"digits", "required", "digits must contain at least one character")
		return
	}
	if len([]rune(req.Digits)) > maxInputRunes {
		httputil.WriteFieldError(w, http.StatusBadRequest, "too many digits",
			"digits", "too_long", "at most 64 characters per request")
		return
	}

	out, pos := sess.input(req.Digits, req.Remember)
	s.events.Publish(&realtime.Event{Action: realtime.ActionInput, Session: sess.id, Output: out, Position: pos})
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{ID: sess.id, Region: sess.region, Output: out, Position: pos})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.clear()
	s.events.Publish(&realtime.Event{Action: realtime.ActionClear, Session: sess.id})
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{ID: sess.id, Region: sess.region})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Subscribers see the delete before their streams close.
	s.events.Publish(&realtime.Event{Action: realtime.ActionDelete, Session: id})
	if !s.sessions.remove(id) {
		httputil.WriteError(w, http.StatusNotFound, errSessionNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionEvents streams the session's changes as Server-Sent Events
// until the client goes away or the session is deleted or expires.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	s.stream.Stream(w, r, sess.id)
}
