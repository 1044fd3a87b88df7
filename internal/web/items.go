package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/linyuchen/xunwu/internal/imaging"
	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

// ItemsPage handles GET /lost and GET /found.
func (s *Server) ItemsPage(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetWebClaims(r.Context())
		items, err := store.ListItems(r.Context(), s.DB, kind, r.URL.Query().Get("category"))
		if err != nil {
			slog.Error("failed to list items", "error", err)
		}

		title := "失物信息"
		if kind == model.KindFound {
			title = "招领信息"
		}

		s.Templates.Render(w, "items.html", &struct {
			PageData
			Kind       model.Kind
			Categories []string
			Items      []model.Item
		}{
			PageData:   PageData{Title: title, User: claims},
			Kind:       kind,
			Categories: model.Categories,
			Items:      items,
		})
	}
}

// ItemCreateSubmit handles POST /items. A successful submission runs
// matching right away and lands on the item detail page with the fresh
// suggestions.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	kind := model.Kind(r.FormValue("kind"))
	category := r.FormValue("category")
	description := r.FormValue("description")
	location := r.FormValue("location")

	if !model.ValidKind(kind) || !model.ValidCategory(category) || description == "" || location == "" {
		http.Redirect(w, r, "/lost", http.StatusSeeOther)
		return
	}

	occurredAt, err := parseOccurredAt(r.FormValue("occurred_at"))
	if err != nil {
		occurredAt = time.Now()
	}

	item, err := store.CreateItem(r.Context(), s.DB, kind, category, description, location, occurredAt, claims.UserID)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		http.Error(w, "failed to create item", http.StatusInternalServerError)
		return
	}

	matches, err := s.Matcher.Run(r.Context(), item)
	if err != nil {
		slog.Error("matching run failed", "error", err, "item", item.ID)
	}

	slog.Info("item created", "user", claims.Username, "kind", kind, "item", item.ID, "matches", len(matches))
	http.Redirect(w, r, fmt.Sprintf("/items/%d", item.ID), http.StatusSeeOther)
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil || item.DeletedAt != nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	var matches []model.Match
	if item.Kind == model.KindLost {
		matches, err = store.ListMatchesForLost(r.Context(), s.DB, id)
	} else {
		matches, err = store.ListMatchesForFound(r.Context(), s.DB, id)
	}
	if err != nil {
		slog.Error("failed to list matches", "error", err)
	}

	s.Templates.Render(w, "item_detail.html", &struct {
		PageData
		Item    *model.Item
		Matches []model.Match
	}{
		PageData: PageData{Title: item.Category, User: claims},
		Item:     item,
		Matches:  matches,
	})
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil || item == nil || item.DeletedAt != nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	if item.UserID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := store.DeleteItem(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete item", "error", err)
		http.Error(w, "failed to delete item", http.StatusInternalServerError)
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item", id)
	if item.Kind == model.KindFound {
		http.Redirect(w, r, "/found", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/lost", http.StatusSeeOther)
}

// ItemRematchSubmit handles POST /items/{id}/rematch.
func (s *Server) ItemRematchSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil || item == nil || item.DeletedAt != nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	matches, err := s.Matcher.Run(r.Context(), item)
	if err != nil {
		slog.Error("matching run failed", "error", err, "item", id)
		http.Error(w, "matching failed", http.StatusInternalServerError)
		return
	}

	slog.Info("item rematched", "user", claims.Username, "item", id, "matches", len(matches))
	http.Redirect(w, r, fmt.Sprintf("/items/%d", id), http.StatusSeeOther)
}

// ItemImageSubmit handles POST /items/{id}/image.
func (s *Server) ItemImageSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil || item == nil || item.DeletedAt != nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if item.UserID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := store.SetItemImage(r.Context(), s.DB, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		http.Error(w, "failed to save image", http.StatusInternalServerError)
		return
	}

	slog.Info("item photo uploaded", "user", claims.Username, "item", id)
	http.Redirect(w, r, fmt.Sprintf("/items/%d", id), http.StatusSeeOther)
}

// ItemImageGet handles GET /items/{id}/image.
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// parseOccurredAt parses the HTML datetime-local input format.
func parseOccurredAt(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty occurred_at")
	}
	return time.ParseInLocation("2006-01-02T15:04", value, time.Local)
}
