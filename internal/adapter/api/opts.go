package api

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/app/auth"
	attendanceservice "github.com/jflips/coachlog_backend/internal/app/attendance"
	backupservice "github.com/jflips/coachlog_backend/internal/app/backup"
	invoiceservice "github.com/jflips/coachlog_backend/internal/app/invoicing"
	ledgerservice "github.com/jflips/coachlog_backend/internal/app/ledger"
	profileapp "github.com/jflips/coachlog_backend/internal/app/profile"
	rosterservice "github.com/jflips/coachlog_backend/internal/app/roster"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
)

type Option func(*Server)

func Addr(host string, port int) Option {
	return func(s *Server) {
		s.addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
}

func Logger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func DBContext(db storage.DBContext) Option {
	return func(s *Server) {
		s.db = db
	}
}

func Authorizer(a *auth.Authorizer) Option {
	return func(s *Server) {
		s.authorizer = a
	}
}

func RosterService(service *rosterservice.Service) Option {
	return func(s *Server) {
		s.rosterService = service
	}
}

func AttendanceService(service *attendanceservice.Service) Option {
	return func(s *Server) {
		s.attendanceService = service
	}
}

func LedgerService(service *ledgerservice.Service) Option {
	return func(s *Server) {
		s.ledgerService = service
	}
}

func InvoiceService(service *invoiceservice.Service) Option {
	return func(s *Server) {
		s.invoiceService = service
	}
}

func ProfileService(service *profileapp.Service) Option {
	return func(s *Server) {
		s.profileService = service
	}
}

func BackupService(service *backupservice.Service) Option {
	return func(s *Server) {
		s.backupService = service
	}
}

func MessageBus(bus unitofwork.MessageBus) Option {
	return func(s *Server) {
		s.msgBus = bus
	}
}
