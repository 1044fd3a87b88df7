package api

import (
	"database/sql"
	"net/http"

	"github.com/linyuchen/xunwu/internal/match"
	"github.com/linyuchen/xunwu/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	matcher := match.NewCoordinator(db)

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Matcher: matcher}
	matchesHandler := &MatchesHandler{DB: db, Matcher: matcher}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: register and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated auth routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Items (all authenticated users).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("GET /api/items/{id}/matches", authMW(http.HandlerFunc(itemsHandler.Matches)))
	mux.Handle("POST /api/items/{id}/rematch", authMW(http.HandlerFunc(itemsHandler.Rematch)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Matches.
	mux.Handle("GET /api/matches/recent", authMW(http.HandlerFunc(matchesHandler.Recent)))
	mux.Handle("GET /api/matches/mine", authMW(http.HandlerFunc(matchesHandler.Mine)))
	mux.Handle("POST /api/matches/{id}/confirm", authMW(http.HandlerFunc(matchesHandler.Confirm)))
	mux.Handle("GET /api/matches/{id}/messages", authMW(http.HandlerFunc(matchesHandler.Messages)))
	mux.Handle("POST /api/matches/{id}/messages", authMW(http.HandlerFunc(matchesHandler.SendMessage)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("PUT /api/users/{id}/role", authMW(requireAdmin(http.HandlerFunc(usersHandler.UpdateRole))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	return mux
}
