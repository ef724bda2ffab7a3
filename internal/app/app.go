package app

import (
	"context"
	"crypto/sha256"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"tollboard/internal/config"
	httpserver "tollboard/internal/http"
	"tollboard/internal/http/handlers"
	"tollboard/internal/observatory"
	"tollboard/internal/session"
	"tollboard/internal/web"
)

// App wires dashboard dependencies.
type App struct {
	server *httpserver.Server
	logger *zap.Logger
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	httpClient := observatory.NewDefaultHTTPClient(cfg.HTTPTimeout())
	client := observatory.NewClient(cfg.Observatory.BaseURL, httpClient, logger)

	sessions := session.NewStore(cfg.Session.Secret, cfg.HTTP.Secure)

	renderer, err := web.NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	adminID := cfg.Admin.OperatorID
	router := httpserver.NewRouter(httpserver.RouterDeps{
		Home:     handlers.NewHomeHandlers(client, sessions, renderer, logger, adminID),
		Map:      handlers.NewMapHandlers(client, sessions, renderer, logger, adminID),
		Debts:    handlers.NewDebtsHandlers(client, sessions, renderer, logger, adminID),
		Admin:    handlers.NewAdminHandlers(client, sessions, renderer, logger, adminID),
		Sessions: sessions,
		AdminID:  adminID,
		Static:   web.StaticHandler(),
		Logger:   logger,
	})

	csrfKey := sha256.Sum256([]byte("csrf:" + cfg.Session.Secret))
	protected := csrf.Protect(csrfKey[:],
		csrf.Secure(cfg.HTTP.Secure),
		csrf.Path("/"),
	)(router)

	server := httpserver.NewServer(cfg.HTTPAddress(), protected, logger)

	return &App{
		server: server,
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}
