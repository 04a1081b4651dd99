// Package api provides HTTP handlers for the Moltmatch API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KatriaDopex/moltmatch/internal/domain"
	"github.com/KatriaDopex/moltmatch/internal/identity"
	"github.com/KatriaDopex/moltmatch/internal/session"
)

// Handler serves the engine's JSON API.
type Handler struct {
	svc      *session.Service
	searcher Searcher
}

// NewHandler creates the API handler. searcher may be nil when the search
// passthrough is disabled.
func NewHandler(svc *session.Service, searcher Searcher) *Handler {
	return &Handler{svc: svc, searcher: searcher}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// serviceError maps engine errors onto HTTP responses per the propagation
// policy: auth rejection and precondition violations surface, everything
// else is an internal failure.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrAuth):
		Error(w, http.StatusUnauthorized, "invalid moltbook credential")
	case errors.Is(err, session.ErrNoActiveAgent):
		Error(w, http.StatusConflict, "no active agent; sign in or start demo mode first")
	case errors.Is(err, session.ErrMatchNotFound):
		Error(w, http.StatusNotFound, "match not found")
	default:
		slog.Error("Request failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// RegisterRoutes mounts all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/demo", h.StartDemo)
			r.Get("/", h.GetSession)
			r.Delete("/", h.SignOut)
		})
		r.Route("/deck", func(r chi.Router) {
			r.Get("/", h.GetDeck)
			r.Post("/swipe", h.Swipe)
			r.Post("/refresh", h.Refresh)
		})
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.ListMatches)
			r.Get("/{name}", h.GetMatch)
			r.Post("/{name}/messages", h.SendMessage)
		})
		r.Get("/agents/search", h.Search)
	})
}

type loginRequest struct {
	APIKey string `json:"api_key"`
}

type sessionResponse struct {
	LiveMode   bool          `json:"live_mode"`
	MyAgent    *domain.Agent `json:"my_agent,omitempty"`
	MatchCount int           `json:"match_count"`
}

func sessionSummary(st domain.SessionState) sessionResponse {
	return sessionResponse{
		LiveMode:   st.LiveMode,
		MyAgent:    st.MyAgent,
		MatchCount: len(st.Matches),
	}
}

// Login authenticates a Moltbook credential and starts a live session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := h.svc.Login(r.Context(), deviceID(r), req.APIKey)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, sessionSummary(*st))
}

// StartDemo starts a demo-mode session.
func (h *Handler) StartDemo(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.StartDemo(r.Context(), deviceID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, sessionSummary(*st))
}

// GetSession returns the current session summary.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Session(r.Context(), deviceID(r))
	JSON(w, http.StatusOK, sessionSummary(st))
}

// SignOut clears the session and its persisted snapshot.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context(), deviceID(r)); err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// GetDeck returns the candidate under the cursor and queue position.
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.svc.Deck(r.Context(), deviceID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, deck)
}

type swipeRequest struct {
	Direction string `json:"direction"`
}

// Swipe applies one swipe decision.
func (h *Handler) Swipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dir := session.Direction(req.Direction)
	if dir != session.DirectionLeft && dir != session.DirectionRight {
		Error(w, http.StatusBadRequest, "direction must be left or right")
		return
	}

	result, err := h.svc.Swipe(r.Context(), deviceID(r), dir)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// Refresh replaces the candidate queue.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	deck, err := h.svc.Refresh(r.Context(), deviceID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, deck)
}

// ListMatches lists the session's matches.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.svc.Matches(r.Context(), deviceID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// GetMatch returns one match with its message thread.
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.svc.Match(r.Context(), deviceID(r), chi.URLParam(r, "name"))
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, match)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage appends an outgoing message to a match thread.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		Error(w, http.StatusBadRequest, "content must not be empty")
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), deviceID(r), chi.URLParam(r, "name"), req.Content)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusCreated, msg)
}

func deviceID(r *http.Request) string {
	return identity.DeviceIDFromContext(r.Context())
}
