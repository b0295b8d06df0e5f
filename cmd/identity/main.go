package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/identity/internal/config"
	"github.com/Skotchmaster/identity/internal/db"
	"github.com/Skotchmaster/identity/internal/hash"
	"github.com/Skotchmaster/identity/internal/httpserver"
	"github.com/Skotchmaster/identity/internal/logging"
	"github.com/Skotchmaster/identity/internal/notify"
	"github.com/Skotchmaster/identity/internal/repo"
	"github.com/Skotchmaster/identity/internal/service"
	"github.com/Skotchmaster/identity/internal/tokens"
)

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(initCtx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	issuer, err := tokens.NewIssuer(tokens.Config{
		AccessSecret:    cfg.JWTAccessSecret,
		RefreshSecret:   cfg.JWTRefreshSecret,
		TemporarySecret: cfg.JWTTemporarySecret,
		AccessTTL:       cfg.AccessTokenTTL,
		RefreshTTL:      cfg.RefreshTokenTTL,
		TemporaryTTL:    cfg.TemporaryTokenTTL,
		Issuer:          cfg.ServiceName,
	})
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	notifier, closeNotifier := buildNotifier(cfg, logger)

	svc := service.New(repo.New(gdb), hash.NewHasher(), issuer, notifier, service.Options{
		FrontendURL:            cfg.FrontendURL,
		LoginCodeTTL:           cfg.LoginCodeTTL,
		ConcealUnknownAccounts: cfg.ConcealUnknownAccounts,
		NotifyTimeout:          cfg.NotifyTimeout,
	})

	e := httpserver.New(&httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc:        svc,
			AccessTTL:  issuer.TTL(tokens.Access),
			RefreshTTL: issuer.TTL(tokens.Refresh),
		},
		Auth:   &httpserver.Authenticator{Svc: svc},
		Logger: logger,
		Ready:  func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	go func() {
		logger.Info("server_started", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_failed", "error", err)
	}
	if err := closeNotifier(shutdownCtx); err != nil {
		logger.Error("notifier_shutdown_failed", "error", err)
	}
	closeDB(gdb, logger)
}

// buildNotifier publishes to Kafka when brokers are configured and logs otherwise.
func buildNotifier(cfg config.Config, logger *slog.Logger) (notify.Notifier, func(context.Context) error) {
	var (
		n       notify.Notifier = notify.LogNotifier{Logger: logger}
		closeFn                 = func(context.Context) error { return nil }
	)

	if len(cfg.KafkaBrokers) > 0 {
		kn, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotifyTopic)
		if err != nil {
			log.Fatalf("kafka notifier: %v", err)
		}
		n = kn
		closeFn = func(context.Context) error { return kn.Close() }
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty, notifications are only logged")
	}

	if cfg.NotifyAsync {
		async := notify.NewAsync(n, cfg.NotifyTimeout)
		inner := closeFn
		n = async
		closeFn = func(ctx context.Context) error {
			return errors.Join(async.Close(ctx), inner(ctx))
		}
	}
	return n, closeFn
}

func closeDB(gdb *gorm.DB, logger *slog.Logger) {
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_failed", "error", err)
	}
}
