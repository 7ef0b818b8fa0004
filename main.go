package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/todoapi/internal/auth"
	cfg "github.com/example/todoapi/internal/config"
	"github.com/gorilla/mux"
)

const version = "1.0.0"

type App struct {
	DB              DB
	tokens          *auth.TokenService
	hasher          *auth.DerivationPool
	metrics         *Metrics
	log             *slog.Logger
	allowedOrigins  []string
	// verified against when a login names an unknown email so that both
	// failure paths cost one key derivation
	dummyCredential string
}

// NewApp wires the HTTP application around db. The signing secret and token
// lifetime come from c.
func NewApp(c *cfg.Config, db DB, log *slog.Logger) (*App, error) {
	tokens, err := auth.NewTokenService([]byte(c.JwtSecret), c.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	metrics := NewMetrics()
	hasher := auth.NewDerivationPool(c.HashWorkers)
	hasher.Observe = metrics.observeDerivation
	dummy, err := auth.HashPassword("unknown-user-placeholder")
	if err != nil {
		return nil, fmt.Errorf("dummy credential: %w", err)
	}
	return &App{
		DB:              db,
		tokens:          tokens,
		hasher:          hasher,
		metrics:         metrics,
		log:             log,
		allowedOrigins:  c.AllowedOrigins,
		dummyCredential: dummy.String(),
	}, nil
}

var v1Endpoints = []string{"/v1/auth", "/v1/todos"}

// Router returns the full handler chain of the service.
func (a *App) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"message":   "Todo API",
			"version":   version,
			"endpoints": map[string]any{"v1": v1Endpoints},
		})
	}).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")
	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if p, ok := a.DB.(interface{ ping() bool }); ok && !p.ping() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
	}).Methods("GET")
	r.Handle("/metrics", a.metrics.Handler()).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// Authentication endpoints
	v1.HandleFunc("/auth/register", a.HandleRegister).Methods("POST")
	v1.HandleFunc("/auth/login", a.HandleLogin).Methods("POST")
	v1.Handle("/auth/me", a.RequireAuth(http.HandlerFunc(a.HandleMe))).Methods("GET")

	// Todo endpoints, all owner scoped
	todos := v1.PathPrefix("/todos").Subrouter()
	todos.Use(a.RequireAuth)
	todos.HandleFunc("", a.HandleCreateTodo).Methods("POST")
	todos.HandleFunc("", a.HandleListTodos).Methods("GET")
	todos.HandleFunc("/{id}", a.HandleGetTodo).Methods("GET")
	todos.HandleFunc("/{id}", a.HandleUpdateTodo).Methods("PUT")
	todos.HandleFunc("/{id}", a.HandleDeleteTodo).Methods("DELETE")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, APIResponse{Success: false, Code: "NOT_FOUND", Error: "Not found", Path: r.URL.Path})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	// Outside the router so that unmatched paths and preflights get them too.
	var h http.Handler = r
	h = a.CORS(h)
	h = SecurityHeaders(h)
	h = a.Recover(h)
	h = a.Logging(r)(h)
	return h
}

func openDB(c *cfg.Config, log *slog.Logger) (DB, error) {
	switch c.DBAdapter {
	case "sqlite":
		s, err := NewSQLiteDB(c.SQLiteFile)
		if err != nil {
			return nil, fmt.Errorf("sqlite init: %w", err)
		}
		return s, nil
	case "postgres":
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return nil, fmt.Errorf("postgres config error: %w", err)
		}
		log.Info("applying database migrations")
		if err := ApplyMigrations(dsn, log); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		p, err := NewPostgresDB(dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres init: %w", err)
		}
		log.Info("connected to PostgreSQL database")
		return p, nil
	case "memory":
		log.Warn("using in-memory database (not recommended for production)")
		return NewMemoryDB(), nil
	}
	return nil, fmt.Errorf("unsupported DB_ADAPTER: %s (supported: postgres, sqlite, memory)", c.DBAdapter)
}

func main() {
	c, err := cfg.New()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := NewLogger(c.LogLevel, os.Stdout)
	slog.SetDefault(log)

	db, err := openDB(c, log)
	if err != nil {
		log.Error("database", "err", err)
		os.Exit(1)
	}

	app, err := NewApp(c, db, log)
	if err != nil {
		log.Error("app init", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Handler:      app.Router(),
		Addr:         ":" + c.Port,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", "port", c.Port, "db", c.DBAdapter)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	if closer, ok := app.DB.(interface{ close() error }); ok {
		_ = closer.close()
	}
	log.Info("server exited properly")
}
