package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linyuchen/xunwu/internal/match"
	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

// MatchesHandler handles match confirmation and conversation endpoints.
type MatchesHandler struct {
	DB      *sql.DB
	Matcher *match.Coordinator
}

type createMessageRequest struct {
	Content string `json:"content"`
}

// Recent handles GET /api/matches/recent?limit=.
func (h *MatchesHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			jsonError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	matches, err := store.RecentMatches(r.Context(), h.DB, limit)
	if err != nil {
		slog.Error("failed to list recent matches", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

// Mine handles GET /api/matches/mine: matches touching the caller's items.
func (h *MatchesHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	matches, err := store.MatchesForUser(r.Context(), h.DB, claims.UserID, 50)
	if err != nil {
		slog.Error("failed to list user matches", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

// Confirm handles POST /api/matches/{id}/confirm. Only an owner of
// either item, or an admin, may confirm. Once confirmed, the match is
// locked against automatic overwrite.
func (h *MatchesHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	claims := GetClaims(r.Context())
	m, err := h.Matcher.Confirm(r.Context(), id, claims.UserID, claims.Role)
	switch {
	case errors.Is(err, match.ErrMatchNotFound):
		jsonError(w, http.StatusNotFound, "match not found")
		return
	case errors.Is(err, match.ErrNotParticipant):
		jsonError(w, http.StatusForbidden, "only the item owners or an admin can confirm this match")
		return
	case err != nil:
		slog.Error("failed to confirm match", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to confirm match")
		return
	}

	slog.Info("match confirmed", "user", claims.Username, "match", m.ID)
	jsonResponse(w, http.StatusOK, m)
}

// Messages handles GET /api/matches/{id}/messages.
func (h *MatchesHandler) Messages(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadParticipantMatch(w, r)
	if !ok {
		return
	}

	messages, err := store.ListMessages(r.Context(), h.DB, m.ID)
	if err != nil {
		slog.Error("failed to list messages", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	jsonResponse(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/matches/{id}/messages.
func (h *MatchesHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadParticipantMatch(w, r)
	if !ok {
		return
	}

	var req createMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		jsonError(w, http.StatusBadRequest, "content required")
		return
	}

	claims := GetClaims(r.Context())
	msg, err := store.CreateMessage(r.Context(), h.DB, m.ID, claims.UserID, req.Content)
	if err != nil {
		slog.Error("failed to create message", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	jsonResponse(w, http.StatusCreated, msg)
}

// loadParticipantMatch loads the match and verifies the caller owns one
// of its items (admins pass). Writes the error response on failure.
func (h *MatchesHandler) loadParticipantMatch(w http.ResponseWriter, r *http.Request) (*model.Match, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid match id")
		return nil, false
	}

	m, err := store.GetMatch(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get match", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get match")
		return nil, false
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "match not found")
		return nil, false
	}

	claims := GetClaims(r.Context())
	if !m.Participant(claims.UserID) && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "not a participant of this match")
		return nil, false
	}
	return m, true
}
