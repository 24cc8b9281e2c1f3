package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"govassist-backend/internal/config"
	"govassist-backend/internal/database"
	"govassist-backend/internal/handlers"
	"govassist-backend/internal/middleware"
	"govassist-backend/internal/repository"
	"govassist-backend/internal/router"
	"govassist-backend/internal/services"
	"govassist-backend/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		log.Printf("✗ %v", err)
		os.Exit(1)
	}
}

func run() error {
	log.Println("🚀 Starting GovAssist Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: PostgreSQL (optional) ────
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("PostgreSQL connection failed: %w", err)
		}
		defer p.Close()
		pool = p
		log.Println("✓ PostgreSQL connected")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = database.RunMigrations(ctx, pool)
		cancel()
		if err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		log.Println("✓ Database migrations applied")
	} else {
		log.Println("  DATABASE_URL not set, skipping PostgreSQL")
	}

	// ──── Step 3: Canned Responses ────
	fallback, origin, err := loadFallback(cfg, pool)
	if err != nil {
		return fmt.Errorf("canned responses failed to load: %w", err)
	}
	log.Printf("✓ Canned responses loaded from %s (%d chat, %d image)",
		origin, fallback.ChatTable().Len(), fallback.ImageTable().Len())

	// ──── Step 4: Rate Limiter ────
	var limiter middleware.Limiter
	switch {
	case cfg.ChatRateLimit == 0:
		log.Println("  Chat rate limiting disabled")
	case cfg.RedisURL != "":
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("Redis connection failed: %w", err)
		}
		defer client.Close()
		limiter = middleware.NewRedisRateLimiter(client, "govassist:ratelimit:chat", cfg.ChatRateLimit, time.Minute)
		log.Printf("✓ Redis rate limiter ready (%d req/min)", cfg.ChatRateLimit)
	default:
		rl := middleware.NewRateLimiter(cfg.ChatRateLimit, time.Minute)
		defer rl.Stop()
		limiter = rl
		log.Printf("✓ In-memory rate limiter ready (%d req/min)", cfg.ChatRateLimit)
	}

	// ──── Step 5: LM Studio Client ────
	lmstudio := services.NewLMStudioClient(services.LMStudioConfig{
		BaseURL:           cfg.LMStudioURL,
		Model:             cfg.LMStudioModel,
		StatusTimeout:     cfg.LMStudioStatusTimeout,
		CompletionTimeout: cfg.LMStudioCompletionTimeout,
	})
	assistant := services.NewAssistant(lmstudio, fallback, services.AssistantConfig{
		MockResponsesEnabled: cfg.MockResponsesEnabled,
		Temperature:          cfg.LMStudioTemperature,
		MaxTokens:            cfg.LMStudioMaxTokens,
		BaseURL:              lmstudio.BaseURL(),
		Model:                lmstudio.Model(),
		CompletionTimeout:    lmstudio.CompletionTimeout(),
	})

	probeCtx, cancel := context.WithTimeout(context.Background(), cfg.LMStudioStatusTimeout)
	status := assistant.Status(probeCtx)
	cancel()
	log.Printf("✓ LM Studio client initialized (%s, %s: %s)", lmstudio.BaseURL(), status.Status, status.Message)
	if !cfg.MockResponsesEnabled {
		log.Println("  Mock responses disabled, upstream failures return 503")
	}

	// ──── Step 6: Handlers ────
	var jwtAuth *middleware.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth = middleware.NewJWTAuth(cfg.JWTSecret)
	}

	chatHandler := handlers.NewChatHandler(assistant)
	statusHandler := handlers.NewStatusHandler(assistant)
	chatSocket := websocket.NewChatSocket(assistant, cfg.FrontendURL, limiter)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(chatHandler, statusHandler, chatSocket, limiter, jwtAuth, cfg.FrontendURL)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Room for a full completion plus response write.
		WriteTimeout: cfg.LMStudioCompletionTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("✓ GovAssist Backend ready on http://localhost:%s", cfg.Port)
		log.Printf("  API: http://localhost:%s/api", cfg.Port)
		log.Printf("  WS:  ws://localhost:%s/api/ws/chat", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadFallback picks the canned tables: a YAML file wins over database rows,
// which win over the built-in tables.
func loadFallback(cfg *config.Config, pool *pgxpool.Pool) (*services.Fallback, string, error) {
	if cfg.CannedResponsesFile != "" {
		f, err := services.LoadFallbackFile(cfg.CannedResponsesFile)
		if err != nil {
			return nil, "", err
		}
		return f, cfg.CannedResponsesFile, nil
	}

	if pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		records, err := repository.NewCannedResponseRepo(pool).List(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("list canned responses: %w", err)
		}
		if len(records) > 0 {
			f, err := services.FallbackFromRecords(records)
			if err != nil {
				return nil, "", err
			}
			return f, "database", nil
		}
	}

	return services.DefaultFallback(), "built-in tables", nil
}
