package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/averybrooks/fonezone/internal/config"
	"github.com/averybrooks/fonezone/internal/handlers"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/remote"
	"github.com/averybrooks/fonezone/internal/session"
	"github.com/averybrooks/fonezone/internal/store"
)

func main() {
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Open the document store
	db, err := kv.Open(kv.Options{
		Backend:       cfg.KVBackend,
		SQLitePath:    cfg.DBPath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		slog.Error("Failed to open document store", "backend", cfg.KVBackend, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3. Session store + admin bootstrap
	sessionStore := session.NewStore(db)
	if err := sessionStore.BootstrapAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("Failed to bootstrap admin actor", "error", err)
		os.Exit(1)
	}
	sessionStore.Subscribe(func(actor *models.Actor) {
		if actor == nil {
			slog.Info("Session cleared")
			return
		}
		slog.Info("Session started", "email", actor.Email, "role", actor.Role)
	})
	domainStore := store.NewStore(db)

	// 4. Cookie Setup
	cookieStore := sessions.NewCookieStore(cfg.SessionKey)
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.Secure = cfg.CookieSecure
	cookieStore.Options.SameSite = http.SameSiteLaxMode
	cookieStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		cookieStore.Options.Domain = cfg.CookieDomain
	}

	// 5. Remote storefront API client
	remoteClient := remote.NewClient(cfg.RemoteAPIURL)
	if remoteClient.Enabled() {
		slog.Info("Remote storefront API configured", "url", cfg.RemoteAPIURL)
	} else {
		slog.Info("No remote storefront API configured, running local-only")
	}

	// 6. Setup Handlers
	guard := &handlers.Guard{Sessions: sessionStore, Cookies: cookieStore}
	authHandler := &handlers.AuthHandler{Sessions: sessionStore, Cookies: cookieStore}
	shopHandler := &handlers.ShopHandler{
		Store:    domainStore,
		Remote:   remoteClient,
		Searcher: remote.NewSearcher(remoteClient),
	}
	customerHandler := &handlers.CustomerHandler{Store: domainStore}
	employeeHandler := &handlers.EmployeeHandler{
		Store:               domainStore,
		SupportPollInterval: cfg.SupportPollInterval,
	}
	adminHandler := &handlers.AdminHandler{Store: domainStore, Sessions: sessionStore}

	mux := handlers.NewMux(authHandler, shopHandler, customerHandler, employeeHandler, adminHandler, guard)

	// 7. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Logger -> Security Headers -> CSRF -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(
			CSRF(mux),
		),
	)

	// 8. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "kv_backend", cfg.KVBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
