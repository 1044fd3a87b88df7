package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/linyuchen/xunwu/internal/imaging"
	"github.com/linyuchen/xunwu/internal/match"
	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

// ItemsHandler handles lost/found report endpoints.
type ItemsHandler struct {
	DB      *sql.DB
	Matcher *match.Coordinator
}

type createItemRequest struct {
	Kind        model.Kind `json:"kind"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

type itemWithMatches struct {
	Item    *model.Item   `json:"item"`
	Matches []model.Match `json:"matches"`
}

// List handles GET /api/items?kind=&category=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := model.Kind(r.URL.Query().Get("kind"))
	if !model.ValidKind(kind) {
		jsonError(w, http.StatusBadRequest, "kind must be 'lost' or 'found'")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, kind, r.URL.Query().Get("category"))
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items. The matching run happens synchronously
// within the request, and the fresh suggestions are returned alongside
// the created item.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.ValidKind(req.Kind) {
		jsonError(w, http.StatusBadRequest, "kind must be 'lost' or 'found'")
		return
	}
	if !model.ValidCategory(req.Category) {
		jsonError(w, http.StatusBadRequest, "unknown category")
		return
	}
	if req.Description == "" || req.Location == "" {
		jsonError(w, http.StatusBadRequest, "description and location required")
		return
	}
	if req.OccurredAt.IsZero() {
		jsonError(w, http.StatusBadRequest, "occurred_at required")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.Kind, req.Category, req.Description, req.Location, req.OccurredAt, claims.UserID)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	matches, err := h.Matcher.Run(r.Context(), item)
	if err != nil {
		slog.Error("matching run failed", "error", err, "item", item.ID)
		jsonError(w, http.StatusInternalServerError, "matching failed")
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}

	slog.Info("item created", "user", claims.Username, "kind", item.Kind, "item", item.ID, "matches", len(matches))
	jsonResponse(w, http.StatusCreated, itemWithMatches{Item: item, Matches: matches})
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. Only the reporter or an admin
// may delete; the item's match results (and their messages) go with it.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if item.UserID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "only the reporter or an admin can delete this item")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item", item.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Matches handles GET /api/items/{id}/matches.
func (h *ItemsHandler) Matches(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	var matches []model.Match
	var err error
	if item.Kind == model.KindLost {
		matches, err = store.ListMatchesForLost(r.Context(), h.DB, item.ID)
	} else {
		matches, err = store.ListMatchesForFound(r.Context(), h.DB, item.ID)
	}
	if err != nil {
		slog.Error("failed to list matches", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

// Rematch handles POST /api/items/{id}/rematch: re-runs matching for the
// item against the current candidate set. Confirmed matches keep their
// stored score.
func (h *ItemsHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	matches, err := h.Matcher.Run(r.Context(), item)
	if err != nil {
		slog.Error("matching run failed", "error", err, "item", item.ID)
		jsonError(w, http.StatusInternalServerError, "matching failed")
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}

	claims := GetClaims(r.Context())
	slog.Info("item rematched", "user", claims.Username, "item", item.ID, "matches", len(matches))
	jsonResponse(w, http.StatusOK, matches)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if item.UserID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "only the reporter or an admin can change the photo")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, item.ID, result.Data, result.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// loadItem parses the id path value and loads a non-deleted item,
// writing the error response itself when something is off.
func (h *ItemsHandler) loadItem(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil, false
	}
	if item == nil || item.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}
