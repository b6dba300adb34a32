package api

import (
	"errors"
	"net/http"
	"time"

	ledgerservice "github.com/jflips/coachlog_backend/internal/app/ledger"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

func (s *Server) MountLedger() {
	loginRequired := LoginRequired(s.authorizer)

	ledger := s.handler.Group("/ledger", loginRequired)
	ledger.POST("/archive", s.ArchiveMonth)
	ledger.GET("/history", s.ListHistory)
	ledger.GET("/history/:record_id", s.GetHistoryRecord)
	ledger.DELETE("/history/:record_id", s.DeleteHistoryRecord)
	ledger.GET("/statistics/:year", s.YearStatistics)
}

func (s *Server) getLedgerUoW() *unitofwork.UnitOfWork[*ledgerservice.AtomicContext] {
	return unitofwork.New[*ledgerservice.AtomicContext](
		s.db,
		ledgerservice.NewAtomicContext,
		s.msgBus,
		s.logger,
	)
}

type HistoryRecord struct {
	RecordID   string    `json:"id"`
	MonthName  string    `json:"month_name"`
	Year       int       `json:"year"`
	Sessions   []Session `json:"sessions"`
	Revenue    int64     `json:"revenue"`
	RecordedAt string    `json:"recorded_at"`
}

func historyModel(r *history.Record) HistoryRecord {
	sessions := make([]Session, 0, len(r.Sessions))
	for i := range r.Sessions {
		sessions = append(sessions, sessionModel(&r.Sessions[i]))
	}
	return HistoryRecord{
		RecordID:   r.RecordID,
		MonthName:  r.MonthName,
		Year:       r.Year,
		Sessions:   sessions,
		Revenue:    r.Revenue,
		RecordedAt: r.RecordedAt.Format(time.RFC3339),
	}
}

type ArchiveMonthRequest struct {
	MonthName string `json:"month_name" validate:"required"`
	Year      int    `json:"year" validate:"required,gt=0"`
}

type ArchiveMonthResponse struct {
	Archived bool           `json:"archived"`
	Record   *HistoryRecord `json:"record,omitempty"`
}

func (s *Server) ArchiveMonth(c echo.Context) error {
	var req ArchiveMonthRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getLedgerUoW()

	result, err := s.ledgerService.ArchiveMonth(c.Request().Context(), uow, coach.CoachID, req.MonthName, req.Year)
	if err != nil {
		if errors.Is(err, history.ErrInvalidMonth) || errors.Is(err, history.ErrInvalidYear) {
			return JsonError(c, http.StatusBadRequest, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}

	resp := ArchiveMonthResponse{Archived: result.Archived}
	if result.Archived {
		record := historyModel(result.Record)
		resp.Record = &record
	}
	return c.JSON(http.StatusOK, resp)
}

type ListHistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

func (s *Server) ListHistory(c echo.Context) error {
	coach := currentCoach(c)
	uow := s.getLedgerUoW()

	records, err := s.ledgerService.ListHistory(c.Request().Context(), uow, coach.CoachID)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, ListHistoryResponse{
		Records: lo.Map(records, func(r *history.Record, _ int) HistoryRecord {
			return historyModel(r)
		}),
	})
}

type HistoryRecordRequest struct {
	RecordID string `param:"record_id" validate:"required"`
}

func (s *Server) GetHistoryRecord(c echo.Context) error {
	var req HistoryRecordRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getLedgerUoW()

	record, err := s.ledgerService.GetRecord(c.Request().Context(), uow, coach.CoachID, req.RecordID)
	if err != nil {
		if errors.Is(err, history.ErrRecordNotFound) {
			return JsonError(c, http.StatusNotFound, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, historyModel(record))
}

func (s *Server) DeleteHistoryRecord(c echo.Context) error {
	var req HistoryRecordRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getLedgerUoW()

	if err := s.ledgerService.DeleteRecord(c.Request().Context(), uow, coach.CoachID, req.RecordID); err != nil {
		if errors.Is(err, history.ErrRecordNotFound) {
			return JsonError(c, http.StatusNotFound, err)
		}
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type YearStatisticsRequest struct {
	Year int `param:"year" validate:"required,gt=0"`
}

type YearStatisticsResponse struct {
	Year   int                       `json:"year"`
	Months []ledgerservice.MonthStat `json:"months"`
}

func (s *Server) YearStatistics(c echo.Context) error {
	var req YearStatisticsRequest
	if err := s.bind(c, &req); err != nil {
		return JsonError(c, http.StatusBadRequest, err)
	}

	coach := currentCoach(c)
	uow := s.getLedgerUoW()

	stats, err := s.ledgerService.YearStatistics(c.Request().Context(), uow, coach.CoachID, req.Year)
	if err != nil {
		return JsonError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, YearStatisticsResponse{Year: req.Year, Months: stats})
}
