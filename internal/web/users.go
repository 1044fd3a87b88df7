package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

// UsersPage handles GET /users. Admin only.
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	s.Templates.Render(w, "users.html", &struct {
		PageData
		Users []model.User
	}{
		PageData: PageData{Title: "用户管理", User: claims},
		Users:    users,
	})
}

// UserCreateSubmit handles POST /users. Admin only.
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	username := r.FormValue("username")
	password := r.FormValue("password")
	role := r.FormValue("role")
	if role != model.RoleAdmin {
		role = model.RoleUser
	}

	if username == "" || model.ValidatePassword(password) != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, username, string(hash), role)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	slog.Info("user created", "admin", claims.Username, "user", user.Username, "role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserRoleSubmit handles POST /users/{id}/role. Admin only.
func (s *Server) UserRoleSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	role := r.FormValue("role")
	if role != model.RoleAdmin && role != model.RoleUser {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}

	if err := store.UpdateUserRole(r.Context(), s.DB, id, role); err != nil {
		slog.Error("failed to update role", "error", err)
		http.Error(w, "failed to update role", http.StatusInternalServerError)
		return
	}

	slog.Info("user role updated", "admin", claims.Username, "user", id, "role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserDeleteSubmit handles POST /users/{id}/delete. Admin only.
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if id == claims.UserID {
		http.Error(w, "cannot delete yourself", http.StatusBadRequest)
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		http.Error(w, "failed to delete user", http.StatusInternalServerError)
		return
	}

	slog.Info("user deleted", "admin", claims.Username, "user", id)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}
