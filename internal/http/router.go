package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tollboard/internal/http/handlers"
	"tollboard/internal/http/middleware"
	"tollboard/internal/session"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	Home     *handlers.HomeHandlers
	Map      *handlers.MapHandlers
	Debts    *handlers.DebtsHandlers
	Admin    *handlers.AdminHandlers
	Sessions *session.Store
	AdminID  string
	Static   http.Handler
	Logger   *zap.Logger
}

// NewRouter wires the four pages and their actions.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RedirectSlashes)

	r.Handle("/static/*", deps.Static)

	r.Get("/", deps.Home.Show)
	r.Post("/login", deps.Home.Login)
	r.Post("/logout", deps.Home.Logout)

	r.Get("/map", deps.Map.Show)

	r.Get("/debts", deps.Debts.Show)
	r.Post("/debts/settle", deps.Debts.Settle)

	r.Group(func(g chi.Router) {
		g.Use(middleware.AdminOnly(deps.Sessions, deps.AdminID))
		g.Get("/admin", deps.Admin.Show)
		g.Post("/admin/healthcheck", deps.Admin.HealthCheck)
		g.Post("/admin/resetstations", deps.Admin.ResetStations)
		g.Post("/admin/resetpasses", deps.Admin.ResetPasses)
		g.Post("/admin/addpasses", deps.Admin.AddPasses)
	})

	return r
}
