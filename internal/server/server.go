// Package server wires the store, auth middleware, and API handlers into
// one HTTP handler.
package server

import (
	"context"
	"fmt"
	"net/http"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/rumor-ml/commons.systems/fintrack/internal/handlers"
	"github.com/rumor-ml/commons.systems/fintrack/internal/middleware"
	"github.com/rumor-ml/commons.systems/fintrack/internal/registry"
	"github.com/rumor-ml/commons.systems/fintrack/internal/rules"
	"github.com/rumor-ml/commons.systems/fintrack/internal/sharing"
	"github.com/rumor-ml/commons.systems/fintrack/internal/store"
)

// Config holds what the server needs to start.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// ProjectID is the Firebase project whose tokens are accepted.
	ProjectID string

	// CredentialsFile optionally points at a service account key. Empty
	// means Application Default Credentials.
	CredentialsFile string
}

// Server represents the fintrack API server
type Server struct {
	store *store.Store
	mux   *http.ServeMux
}

// New creates a new server instance
func New(ctx context.Context, cfg Config) (*Server, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	verifier, err := newTokenVerifier(ctx, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	engine, err := rules.LoadEmbedded()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("loading embedded rules: %w", err)
	}

	s := &Server{
		store: st,
		mux:   http.NewServeMux(),
	}
	s.setupRoutes(verifier, engine)

	return s, nil
}

// newTokenVerifier initializes the Firebase auth client used to verify
// bearer tokens.
func newTokenVerifier(ctx context.Context, cfg Config) (middleware.TokenVerifier, error) {
	conf := &firebase.Config{ProjectID: cfg.ProjectID}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Auth client: %w", err)
	}

	return authClient, nil
}

// userProvisioner adapts the store's get-or-create to the middleware's
// provisioning hook.
type userProvisioner struct {
	store *store.Store
}

func (p *userProvisioner) EnsureUser(ctx context.Context, id, name, email string) error {
	_, err := p.store.EnsureUser(ctx, id, name, email)
	return err
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(verifier middleware.TokenVerifier, engine *rules.Engine) {
	// Health check (no auth required)
	s.mux.HandleFunc("/health", handlers.HealthCheck)

	authMiddleware := middleware.NewAuthMiddleware(verifier, &userProvisioner{store: s.store})

	txnHandler := handlers.NewTransactionHandler(s.store)
	shareHandler := handlers.NewShareHandler(s.store)
	invHandler := handlers.NewInvitationHandler(s.store, sharing.NewPropagator(s.store))
	accountHandler := handlers.NewAccountHandler(s.store)
	balanceHandler := handlers.NewBalanceHandler(s.store)
	importHandler := handlers.NewImportHandler(s.store, registry.New(), engine)
	reportHandler := handlers.NewReportHandler(s.store)

	protected := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, authMiddleware.RequireAuth(h))
	}

	protected("GET /api/me", handlers.Me)

	protected("POST /api/transactions", txnHandler.Create)
	protected("GET /api/transactions", txnHandler.List)
	protected("PUT /api/transactions", txnHandler.Update)
	protected("DELETE /api/transactions", txnHandler.Delete)
	protected("POST /api/transactions/{id}/share", shareHandler.Share)
	protected("GET /api/transactions/{id}/shared-with", shareHandler.SharedWith)

	protected("POST /api/import", importHandler.Import)

	protected("POST /api/invitations", invHandler.Create)
	protected("GET /api/invitations", invHandler.List)
	protected("GET /api/invitations/{id}", invHandler.Get)
	protected("PATCH /api/invitations/{id}", invHandler.Respond)
	protected("GET /api/connections/accepted", invHandler.Connections)

	protected("POST /api/bank-accounts", accountHandler.Create)
	protected("GET /api/bank-accounts", accountHandler.List)
	protected("PUT /api/bank-accounts", accountHandler.Update)
	protected("DELETE /api/bank-accounts", accountHandler.Delete)

	protected("POST /api/account-balances", balanceHandler.Create)
	protected("GET /api/account-balances", balanceHandler.List)
	protected("PUT /api/account-balances", balanceHandler.Update)
	protected("DELETE /api/account-balances", balanceHandler.Delete)

	protected("GET /api/reports/summary", reportHandler.Summary)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return middleware.CORS(s.mux)
}

// Close closes the server resources
func (s *Server) Close() error {
	return s.store.Close()
}
