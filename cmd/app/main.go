package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jflips/coachlog_backend/internal/adapter/api"
	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/app/auth"
	attendanceservice "github.com/jflips/coachlog_backend/internal/app/attendance"
	backupservice "github.com/jflips/coachlog_backend/internal/app/backup"
	invoiceservice "github.com/jflips/coachlog_backend/internal/app/invoicing"
	ledgerservice "github.com/jflips/coachlog_backend/internal/app/ledger"
	"github.com/jflips/coachlog_backend/internal/app/messagebus"
	profileapp "github.com/jflips/coachlog_backend/internal/app/profile"
	rosterservice "github.com/jflips/coachlog_backend/internal/app/roster"
	"github.com/jflips/coachlog_backend/internal/config"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/leporo/sqlf"
	"github.com/lmittmann/tint"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	logger := initLogger(cfg)

	bus := messagebus.New(logger)
	bus.Register(athlete.EventCreated, func(event domain.Event) error {
		e := event.(athlete.CreatedEvent)
		logger.Info("athlete joined roster", "athlete_id", e.AthleteID, "name", e.Name)
		return nil
	})
	bus.Register(history.EventMonthArchived, func(event domain.Event) error {
		e := event.(history.ArchivedEvent)
		logger.Info("ledger month archived",
			"record_id", e.RecordID,
			"month", e.Month,
			"year", e.Year,
			"sessions", e.Sessions,
			"revenue", e.Revenue,
		)
		return nil
	})

	sqlf.SetDialect(sqlf.PostgreSQL)

	db, err := sql.Open("pgx", cfg.DB.DSN)
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}

	authorizer := &auth.Authorizer{
		Secret:         cfg.JWT.Secret,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	}

	server := api.NewServer(
		api.Addr(cfg.Server.Host, cfg.Server.Port),
		api.Logger(logger),
		api.Authorizer(authorizer),
		api.DBContext(&storage.DB{DB: db}),
		api.MessageBus(bus),
		api.RosterService(rosterservice.New(logger)),
		api.AttendanceService(attendanceservice.New(logger)),
		api.LedgerService(ledgerservice.New(logger)),
		api.InvoiceService(invoiceservice.New(logger)),
		api.ProfileService(profileapp.New(logger)),
		api.BackupService(backupservice.New(logger)),
	)

	ctx := context.Background()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error)

	go func() {
		defer close(errCh)
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server was not shutdown gracefully", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server closed with unexpected error", "error", err)
			}
		}
	}

	bus.Close()
	logger.Info("server shutdown")
}

func initLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	switch cfg.App.Env {
	case config.Development:
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			AddSource:  true,
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		})
	case config.Production:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelInfo,
		})
	default:
		panic("invalid env")
	}

	return slog.New(handler)
}
