package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Spok95/edu-platform/internal/config"
	"github.com/Spok95/edu-platform/internal/db"
	"github.com/Spok95/edu-platform/internal/httpapi"
	"github.com/Spok95/edu-platform/internal/jobs"
	"github.com/Spok95/edu-platform/internal/logging"
	"github.com/Spok95/edu-platform/internal/metrics"
	"github.com/Spok95/edu-platform/internal/observability"
)

var version = "dev" // подставляется при сборке через -ldflags

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Конфигурация: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Логгер: %v", err)
	}
	defer lg.Closer()

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		lg.Sugar.Warnw("sentry init", "err", err)
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("db open", "err", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		lg.Sugar.Fatalw("db migrate", "err", err)
	}

	// фоновый пинг БД кормит гистограмму задержки
	runner := jobs.New(ctx)
	runner.Every(30*time.Second, "db_ping", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(pingCtx); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(t0))
		return nil
	})

	api := httpapi.New(database, cfg, lg.Sugar)
	httpapi.Start(ctx, cfg.HTTPAddr, api.Routes())
	lg.Sugar.Infow("server started", "addr", cfg.HTTPAddr, "env", cfg.Env, "version", version)

	<-ctx.Done()
	lg.Sugar.Infow("shutting down")
}
