package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/bug-fixer/backend/internal/config"
	"github.com/zhouzirui/bug-fixer/backend/internal/handler"
	"github.com/zhouzirui/bug-fixer/backend/internal/model/prompt"
	"github.com/zhouzirui/bug-fixer/backend/internal/observability"
	"github.com/zhouzirui/bug-fixer/backend/internal/service/ai"
	"github.com/zhouzirui/bug-fixer/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	moduleStore := prompt.NewMemoryStore(prompt.Seed())

	// A setup failure keeps the server up so the UI can show it.
	completer, setupErr := ai.New(ctx, cfg.AI)
	if setupErr != nil {
		log.Printf("warning: failed to initialize completion client: %v", setupErr)
		log.Println("chat endpoints disabled until restart - 请检查 AI_API_KEY / AI_MODEL 等环境变量")
	} else {
		log.Printf("completion client initialized (provider=%s model=%s)", cfg.AI.Provider, cfg.AI.Model)
	}

	driver := chat.NewDriver(completer, chat.WithObserver(metrics))
	chatService := chat.NewService(driver, chat.WithSessionGauge(metrics))

	if err := chatService.StartJanitor(ctx, cfg.Session.JanitorSchedule, cfg.Session.IdleTTL); err != nil {
		log.Fatalf("failed to start session janitor: %v", err)
	}

	router := handler.NewRouter(moduleStore, chatService, metrics, setupErr, cfg.Server.AllowedOrigin)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("AI bug fixer listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
