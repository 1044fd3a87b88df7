package web

import (
	"log/slog"
	"net/http"

	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	recent, err := store.RecentMatches(r.Context(), s.DB, 10)
	if err != nil {
		slog.Error("failed to list recent matches", "error", err)
	}
	mine, err := store.MatchesForUser(r.Context(), s.DB, claims.UserID, 10)
	if err != nil {
		slog.Error("failed to list user matches", "error", err)
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		RecentMatches []model.Match
		MyMatches     []model.Match
	}{
		PageData:      PageData{Title: "校园失物招领", User: claims},
		RecentMatches: recent,
		MyMatches:     mine,
	})
}
