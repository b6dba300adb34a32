package attendanceservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/session"
	"github.com/samber/lo"
)

var (
	ErrAthleteNotEnrolled = errors.New("athlete not enrolled in class offering")
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// RecordSession upserts an attendance entry. All preconditions are checked
// before any write: the offering must exist, every athlete must exist, and
// restricted offerings admit only enrolled athletes. A failed check leaves
// the ledger untouched.
func (s *Service) RecordSession(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	sessionID string,
	date time.Time,
	offeringID string,
	athleteIDs []string,
) (saved *session.Session, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		fresh, err := session.New(sessionID, coachID, date, offeringID, athleteIDs)
		if err != nil {
			return err
		}

		off, err := c.Offerings.GetByID(c.Context(), coachID, offeringID)
		if err != nil {
			return err
		}

		roster, err := c.Athletes.List(c.Context(), coachID)
		if err != nil {
			return err
		}
		known := lo.SliceToMap(roster, func(a *athlete.Athlete) (string, struct{}) {
			return a.AthleteID, struct{}{}
		})

		for _, id := range fresh.AthleteIDs {
			if _, ok := known[id]; !ok {
				return fmt.Errorf("%w: %s", athlete.ErrAthleteNotFound, id)
			}
			if !off.Admits(id) {
				return fmt.Errorf("%w: %s", ErrAthleteNotEnrolled, id)
			}
		}

		existing, err := c.Sessions.GetByID(c.Context(), coachID, sessionID)
		if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			return err
		}

		if existing == nil {
			if err := c.Sessions.Add(c.Context(), fresh); err != nil {
				return err
			}
		} else {
			existing.Date = fresh.Date
			existing.OfferingID = fresh.OfferingID
			existing.AthleteIDs = fresh.AthleteIDs
			if err := c.Sessions.Persist(c.Context(), existing); err != nil {
				return err
			}
			fresh = existing
		}
		saved = fresh

		return c.Commit()
	})
	return
}

func (s *Service) DeleteSession(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	sessionID string,
) error {
	return uow.Atomic(ctx, func(c *AtomicContext) error {
		if err := c.Sessions.Delete(c.Context(), coachID, sessionID); err != nil {
			return err
		}
		return c.Commit()
	})
}

// ListSessions returns the active ledger ordered by date ascending.
func (s *Service) ListSessions(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
) (sessions []*session.Session, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		var err error
		if sessions, err = c.Sessions.List(c.Context(), coachID); err != nil {
			return err
		}
		return c.Commit()
	})
	return
}
