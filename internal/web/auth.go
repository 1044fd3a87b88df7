package web

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/linyuchen/xunwu/internal/auth"
	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "登录"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "登录",
			Error: "请输入用户名和密码。",
		})
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil || user == nil || user.DeletedAt != nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "登录",
			Error: "用户名或密码错误。",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "登录",
			Error: "用户名或密码错误。",
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "登录",
			Error: "登录失败，请重试。",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &PageData{Title: "注册"})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		s.Templates.Render(w, "register.html", &PageData{
			Title: "注册",
			Error: "请输入用户名和密码。",
		})
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.Templates.Render(w, "register.html", &PageData{
			Title: "注册",
			Error: "密码至少需要8个字符。",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.Templates.Render(w, "register.html", &PageData{
			Title: "注册",
			Error: "注册失败，请重试。",
		})
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, username, string(hash), model.RoleUser)
	if err != nil {
		s.Templates.Render(w, "register.html", &PageData{
			Title: "注册",
			Error: "该用户名已被使用。",
		})
		return
	}

	slog.Info("user registered", "user", user.Username)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout handles POST /logout: revokes the token and clears the cookie.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil && claims.ID != "" {
			expiry := time.Now().Add(auth.TokenExpiry)
			if claims.ExpiresAt != nil {
				expiry = claims.ExpiresAt.Time
			}
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, expiry); err != nil {
				slog.Error("failed to revoke token", "error", err)
			}
		}
	}

	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
