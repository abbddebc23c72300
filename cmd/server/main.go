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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/comic_reader/internal/config"
	"github.com/Skotchmaster/comic_reader/internal/db"
	authhdl "github.com/Skotchmaster/comic_reader/internal/handlers/auth"
	"github.com/Skotchmaster/comic_reader/internal/hash"
	"github.com/Skotchmaster/comic_reader/internal/logging"
	loggingmw "github.com/Skotchmaster/comic_reader/internal/middleware/logging"
	"github.com/Skotchmaster/comic_reader/internal/mykafka"
	"github.com/Skotchmaster/comic_reader/internal/reaper"
	"github.com/Skotchmaster/comic_reader/internal/repo"
	"github.com/Skotchmaster/comic_reader/internal/service"
	"github.com/Skotchmaster/comic_reader/internal/tokens"
	httpserver "github.com/Skotchmaster/comic_reader/internal/transport/http"
)

type publisher interface {
	service.Publisher
	Close() error
}

func main() {
	config.LoadEnvFile(".env")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	var (
		ledger repo.Ledger
		rdb    *redis.Client
	)
	switch cfg.LedgerBackend {
	case "redis":
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		ledger = repo.NewRedisLedger(rdb, cfg.ServiceName+":revoked:")
	default:
		ledger = &repo.GormLedger{DB: gdb}
	}

	var events publisher = mykafka.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		events = prod
	}

	keys, err := tokens.NewKeys(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token keys: %v", err)
	}

	svc := service.NewAuthService(
		&repo.GormRepo{DB: gdb},
		tokens.NewService(keys, ledger),
		hash.NewBcrypt(cfg.BcryptCost),
		events,
		cfg.KafkaTopic,
	)

	if cfg.SeedDefaultUsers {
		if err := svc.SeedDefaults(ctx); err != nil {
			log.Fatalf("seed default users: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger, "/health"))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &authhdl.AuthHandler{Svc: svc, SecureCookies: cfg.CookieSecure},
		UserHandler: &authhdl.UserHandler{Svc: svc},
		Decoder:     svc,
		Ready: func(ctx context.Context) error {
			if err := db.Ping(ctx, gdb); err != nil {
				return fmt.Errorf("db: %w", err)
			}
			if rdb != nil {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	})

	reaperCtx, stopReaper := context.WithCancel(ctx)
	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		reaper.New(ledger, cfg.ReaperInterval).Start(reaperCtx)
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("http_listen", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown", "error", err)
	}

	stopReaper()
	<-reaperDone

	if err := events.Close(); err != nil {
		logger.Error("kafka_close", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis_close", "error", err)
		}
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close", "error", err)
	}

	logger.Info("shutdown_complete")
}
