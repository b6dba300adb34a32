package ledgerservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/billing"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/session"
	"github.com/samber/lo"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

type ArchiveResult struct {
	Record   *history.Record
	Archived bool
}

// ArchiveMonth freezes the active ledger into a history record labelled with
// the given month, then clears the ledger. Snapshot, revenue computation,
// record insert and ledger clear happen in one transaction; an empty ledger
// archives nothing and is not an error. Revenue is computed from the prices
// in effect right now and stored on the record permanently.
func (s *Service) ArchiveMonth(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	monthName string,
	year int,
) (result *ArchiveResult, err error) {
	if !history.ValidMonth(monthName) {
		return nil, fmt.Errorf("%w: %q", history.ErrInvalidMonth, monthName)
	}

	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		sessions, err := c.Sessions.List(c.Context(), coachID)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			result = &ArchiveResult{Archived: false}
			return c.Commit()
		}

		offerings, err := c.Offerings.List(c.Context(), coachID)
		if err != nil {
			return err
		}
		byID := lo.KeyBy(offerings, func(o *offering.ClassOffering) string {
			return o.OfferingID
		})

		revenue := billing.PeriodRevenue(sessions, byID)
		snapshot := lo.Map(sessions, func(s *session.Session, _ int) session.Session {
			return *s
		})

		record, err := history.New(uuid.NewString(), coachID, monthName, year, snapshot, revenue)
		if err != nil {
			return err
		}

		if err := c.History.Add(c.Context(), record); err != nil {
			return err
		}
		if err := c.Sessions.DeleteAll(c.Context(), coachID); err != nil {
			return err
		}

		result = &ArchiveResult{Record: record, Archived: true}
		return c.Commit()
	})
	if err != nil {
		return nil, err
	}

	if result.Archived {
		s.logger.Info("month archived",
			"coach_id", coachID,
			"month", monthName,
			"year", year,
			"sessions", len(result.Record.Sessions),
			"revenue", result.Record.Revenue,
		)
	}
	return result, nil
}

// ListHistory returns archived records newest first.
func (s *Service) ListHistory(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
) (records []*history.Record, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		var err error
		if records, err = c.History.List(c.Context(), coachID); err != nil {
			return err
		}
		return c.Commit()
	})
	return
}

func (s *Service) GetRecord(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	recordID string,
) (record *history.Record, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		var err error
		if record, err = c.History.GetByID(c.Context(), coachID, recordID); err != nil {
			return err
		}
		return c.Commit()
	})
	return
}

// DeleteRecord discards an archived month. The sessions inside it are gone
// for good; they never return to the active ledger.
func (s *Service) DeleteRecord(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	recordID string,
) error {
	return uow.Atomic(ctx, func(c *AtomicContext) error {
		if err := c.History.Delete(c.Context(), coachID, recordID); err != nil {
			return err
		}
		return c.Commit()
	})
}

type MonthStat struct {
	Month    string `json:"month"`
	Revenue  int64  `json:"revenue"`
	Sessions int    `json:"sessions"`
	Archived bool   `json:"archived"`
}

// YearStatistics aggregates archived revenue per calendar month for one
// year. Months archived more than once are summed.
func (s *Service) YearStatistics(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	year int,
) (stats []MonthStat, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		records, err := c.History.List(c.Context(), coachID)
		if err != nil {
			return err
		}

		stats = lo.Map(history.Months, func(month string, _ int) MonthStat {
			stat := MonthStat{Month: month}
			for _, r := range records {
				if r.Year == year && r.MonthName == month {
					stat.Revenue += r.Revenue
					stat.Sessions += len(r.Sessions)
					stat.Archived = true
				}
			}
			return stat
		})
		return c.Commit()
	})
	return
}
