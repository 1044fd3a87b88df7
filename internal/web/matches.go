package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linyuchen/xunwu/internal/match"
	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

// MatchDetailPage handles GET /matches/{id}: the match with its
// conversation thread.
func (s *Server) MatchDetailPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	m, err := store.GetMatch(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get match", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}

	if !m.Participant(claims.UserID) && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	messages, err := store.ListMessages(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to list messages", "error", err)
	}

	s.Templates.Render(w, "match_detail.html", &struct {
		PageData
		Match    *model.Match
		Messages []model.Message
	}{
		PageData: PageData{Title: "匹配详情", User: claims},
		Match:    m,
		Messages: messages,
	})
}

// MatchConfirmSubmit handles POST /matches/{id}/confirm.
func (s *Server) MatchConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	m, err := s.Matcher.Confirm(r.Context(), id, claims.UserID, claims.Role)
	switch {
	case errors.Is(err, match.ErrMatchNotFound):
		http.Error(w, "match not found", http.StatusNotFound)
		return
	case errors.Is(err, match.ErrNotParticipant):
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case err != nil:
		slog.Error("failed to confirm match", "error", err)
		http.Error(w, "failed to confirm match", http.StatusInternalServerError)
		return
	}

	slog.Info("match confirmed", "user", claims.Username, "match", m.ID)
	http.Redirect(w, r, fmt.Sprintf("/matches/%d", m.ID), http.StatusSeeOther)
}

// MatchMessageSubmit handles POST /matches/{id}/messages.
func (s *Server) MatchMessageSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	m, err := store.GetMatch(r.Context(), s.DB, id)
	if err != nil || m == nil {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	if !m.Participant(claims.UserID) && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	content := r.FormValue("content")
	if content == "" {
		http.Redirect(w, r, fmt.Sprintf("/matches/%d", id), http.StatusSeeOther)
		return
	}

	if _, err := store.CreateMessage(r.Context(), s.DB, id, claims.UserID, content); err != nil {
		slog.Error("failed to create message", "error", err)
		http.Error(w, "failed to send message", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/matches/%d", id), http.StatusSeeOther)
}
