package attendanceservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	athletestorage "github.com/jflips/coachlog_backend/internal/adapter/storage/athletes"
	offeringstorage "github.com/jflips/coachlog_backend/internal/adapter/storage/offerings"
	sessionstorage "github.com/jflips/coachlog_backend/internal/adapter/storage/sessions"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

type AthleteStorage interface {
	List(ctx context.Context, coachID string) ([]*athlete.Athlete, error)

	Close() error
	CollectEvents() []domain.Event
}

type OfferingStorage interface {
	GetByID(ctx context.Context, coachID, offeringID string) (*offering.ClassOffering, error)

	Close() error
	CollectEvents() []domain.Event
}

type SessionStorage interface {
	Add(ctx context.Context, s *session.Session) error
	Persist(ctx context.Context, s *session.Session) error
	GetByID(ctx context.Context, coachID, sessionID string) (*session.Session, error)
	List(ctx context.Context, coachID string) ([]*session.Session, error)
	Delete(ctx context.Context, coachID, sessionID string) error

	Close() error
	CollectEvents() []domain.Event
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	Athletes  AthleteStorage
	Offerings OfferingStorage
	Sessions  SessionStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	for _, closer := range []interface{ Close() error }{a.Athletes, a.Offerings, a.Sessions} {
		if closeErr := closer.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	var events []domain.Event
	events = append(events, a.Athletes.CollectEvents()...)
	events = append(events, a.Offerings.CollectEvents()...)
	events = append(events, a.Sessions.CollectEvents()...)
	return events
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:       ctx,
		DBContext: dbContext,
		Athletes:  athletestorage.NewPostgresStorage(dbContext),
		Offerings: offeringstorage.NewPostgresStorage(dbContext),
		Sessions:  sessionstorage.NewPostgresStorage(dbContext),
	}, nil
}
