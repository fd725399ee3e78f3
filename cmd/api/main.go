package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/marketplace-core/internal/config"
	"github.com/shinyyama/marketplace-core/internal/db"
	appmw "github.com/shinyyama/marketplace-core/internal/middleware"
	"github.com/shinyyama/marketplace-core/internal/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	var auth appmw.Authenticator
	switch cfg.AuthMode {
	case config.AuthModeDev:
		logger.Warn("using X-User-ID header identity; never enable in production")
		auth = appmw.HeaderAuth{}
	default:
		fb, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
		if err != nil {
			return fmt.Errorf("init firebase auth: %w", err)
		}
		auth = fb
	}

	srv := server.New(cfg, conn, auth, logger, server.Options{SHA: gitSHA, BuildTime: buildTime})
	addr := ":" + cfg.Port

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", addr), zap.String("git_sha", gitSHA))
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
