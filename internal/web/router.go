package web

import (
	"database/sql"
	"net/http"

	"github.com/linyuchen/xunwu/internal/match"
	"github.com/linyuchen/xunwu/internal/model"
	webembed "github.com/linyuchen/xunwu/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		JWTSecret: jwtSecret,
		Matcher:   match.NewCoordinator(db),
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.HandlerFunc(s.Dashboard)))

	mux.Handle("GET /lost", cookieAuth(s.ItemsPage(model.KindLost)))
	mux.Handle("GET /found", cookieAuth(s.ItemsPage(model.KindFound)))
	mux.Handle("POST /items", cookieAuth(http.HandlerFunc(s.ItemCreateSubmit)))
	mux.Handle("GET /items/{id}", cookieAuth(http.HandlerFunc(s.ItemDetailPage)))
	mux.Handle("POST /items/{id}/delete", cookieAuth(http.HandlerFunc(s.ItemDeleteSubmit)))
	mux.Handle("POST /items/{id}/rematch", cookieAuth(http.HandlerFunc(s.ItemRematchSubmit)))
	mux.Handle("POST /items/{id}/image", cookieAuth(http.HandlerFunc(s.ItemImageSubmit)))
	mux.Handle("GET /items/{id}/image", cookieAuth(http.HandlerFunc(s.ItemImageGet)))

	mux.Handle("GET /matches/{id}", cookieAuth(http.HandlerFunc(s.MatchDetailPage)))
	mux.Handle("POST /matches/{id}/confirm", cookieAuth(http.HandlerFunc(s.MatchConfirmSubmit)))
	mux.Handle("POST /matches/{id}/messages", cookieAuth(http.HandlerFunc(s.MatchMessageSubmit)))

	mux.Handle("GET /users", cookieAuth(RequireWebAdmin(http.HandlerFunc(s.UsersPage))))
	mux.Handle("POST /users", cookieAuth(RequireWebAdmin(http.HandlerFunc(s.UserCreateSubmit))))
	mux.Handle("POST /users/{id}/role", cookieAuth(RequireWebAdmin(http.HandlerFunc(s.UserRoleSubmit))))
	mux.Handle("POST /users/{id}/delete", cookieAuth(RequireWebAdmin(http.HandlerFunc(s.UserDeleteSubmit))))

	return mux, nil
}
