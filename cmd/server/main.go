package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/taskboard/internal/api"
	"github.com/mmynk/taskboard/internal/auth"
	"github.com/mmynk/taskboard/internal/chat"
	"github.com/mmynk/taskboard/internal/config"
	"github.com/mmynk/taskboard/internal/middleware"
	"github.com/mmynk/taskboard/internal/service"
	"github.com/mmynk/taskboard/internal/storage"
	"github.com/mmynk/taskboard/internal/storage/jsonfile"
	"github.com/mmynk/taskboard/internal/storage/sqlite"
	"github.com/mmynk/taskboard/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// run wires the server and blocks until it stops. Deferred cleanup runs on
// every return path.
func run() error {
	cfg, err := config.Load(os.Getenv("TASKBOARD_CONFIG"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.StoreBackend, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret, err := jwtSecret(cfg)
	if err != nil {
		return err
	}
	jwtManager := auth.NewJWTManager(secret, cfg.TokenTTL.Duration)
	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, slog.Default())
	taskSvc := service.NewTaskService(store)
	chatSvc := service.NewChatService(newReplier(ctx, cfg))

	mux := http.NewServeMux()
	api.NewHandler(authSvc, taskSvc, chatSvc).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	if cfg.StaticPath != "" {
		staticDir, err := filepath.Abs(cfg.StaticPath)
		if err != nil {
			return fmt.Errorf("failed to resolve static path: %w", err)
		}
		slog.Info("Serving static files", "path", staticDir)
		mux.Handle("GET /", http.FileServer(http.Dir(staticDir)))
	}

	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
	handler := middleware.CORS(
		middleware.OptionalAuth(jwtManager)(
			middleware.Logging(
				metrics.Middleware(mux),
			),
		),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openStore creates the configured storage backend.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.StoreBackend, "database", cfg.DBPath)
		return store, nil
	default:
		store, err := jsonfile.New(cfg.DataPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.StoreBackend, "file", cfg.DataPath)
		return store, nil
	}
}

// jwtSecret returns the configured signing key, or a random one that lives
// only as long as the process.
func jwtSecret(cfg *config.Config) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	slog.Warn("JWT_SECRET not set; tokens will not survive a restart")
	return hex.EncodeToString(buf), nil
}

// newReplier returns the chat upstream, or nil when no API key is set.
func newReplier(ctx context.Context, cfg *config.Config) service.Replier {
	client, err := chat.New(ctx, chat.Options{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		Endpoint:   cfg.GeminiEndpoint,
		Timeout:    cfg.ChatTimeout.Duration,
		MaxRetries: cfg.ChatMaxRetries,
	})
	if errors.Is(err, chat.ErrNotConfigured) {
		slog.Warn("GEMINI_API_KEY not set; chat is disabled")
		return nil
	}
	if err != nil {
		slog.Error("Failed to create chat client", "error", err)
		return nil
	}
	slog.Info("Chat enabled", "model", cfg.GeminiModel)
	return client
}
