package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/app/auth"
	attendanceservice "github.com/jflips/coachlog_backend/internal/app/attendance"
	backupservice "github.com/jflips/coachlog_backend/internal/app/backup"
	invoiceservice "github.com/jflips/coachlog_backend/internal/app/invoicing"
	ledgerservice "github.com/jflips/coachlog_backend/internal/app/ledger"
	profileapp "github.com/jflips/coachlog_backend/internal/app/profile"
	rosterservice "github.com/jflips/coachlog_backend/internal/app/roster"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
)

type Server struct {
	handler           *echo.Echo
	logger            *slog.Logger
	addr              string
	db                storage.DBContext
	authorizer        *auth.Authorizer
	rosterService     *rosterservice.Service
	attendanceService *attendanceservice.Service
	ledgerService     *ledgerservice.Service
	invoiceService    *invoiceservice.Service
	profileService    *profileapp.Service
	backupService     *backupservice.Service
	msgBus            unitofwork.MessageBus
	validator         *validator.Validate
}

func NewServer(opt ...Option) *Server {
	e := echo.New()

	e.Server.WriteTimeout = 10 * time.Second
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.IdleTimeout = 10 * time.Second
	e.Server.ReadHeaderTimeout = 5 * time.Second
	// logos travel base64-encoded inside profile and backup payloads
	e.Server.MaxHeaderBytes = 4096

	v := validator.New(validator.WithRequiredStructEnabled())

	s := &Server{
		handler:   e,
		validator: v,
	}

	for _, opt := range opt {
		opt(s)
	}

	e.Use(slogecho.NewWithConfig(s.logger, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelInfo,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	s.Mount()
	return s
}

func (s *Server) Mount() {
	s.MountRoster()
	s.MountAttendance()
	s.MountLedger()
	s.MountInvoices()
	s.MountProfile()
	s.MountBackup()
}

func (s *Server) Start() error {
	return s.handler.Start(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.handler.Shutdown(ctx)
}

func (s *Server) bind(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return fmt.Errorf("bad request")
	}
	if err := s.validator.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("bad request")
		}
		return fmt.Errorf("%s: %s", errs[0].Field(), errs[0].Error())
	}
	return nil
}
