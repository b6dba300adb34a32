package invoiceservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	athletestorage "github.com/jflips/coachlog_backend/internal/adapter/storage/athletes"
	historystorage "github.com/jflips/coachlog_backend/internal/adapter/storage/history"
	offeringstorage "github.com/jflips/coachlog_backend/internal/adapter/storage/offerings"
	profilestorage "github.com/jflips/coachlog_backend/internal/adapter/storage/profiles"
	sessionstorage "github.com/jflips/coachlog_backend/internal/adapter/storage/sessions"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

type AthleteStorage interface {
	List(ctx context.Context, coachID string) ([]*athlete.Athlete, error)

	Close() error
	CollectEvents() []domain.Event
}

type OfferingStorage interface {
	List(ctx context.Context, coachID string) ([]*offering.ClassOffering, error)

	Close() error
	CollectEvents() []domain.Event
}

type SessionStorage interface {
	List(ctx context.Context, coachID string) ([]*session.Session, error)

	Close() error
	CollectEvents() []domain.Event
}

type HistoryStorage interface {
	GetByID(ctx context.Context, coachID, recordID string) (*history.Record, error)

	Close() error
	CollectEvents() []domain.Event
}

type ProfileStorage interface {
	Get(ctx context.Context, coachID string) (*profile.Profile, error)

	Close() error
	CollectEvents() []domain.Event
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	Athletes  AthleteStorage
	Offerings OfferingStorage
	Sessions  SessionStorage
	History   HistoryStorage
	Profiles  ProfileStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	closers := []interface{ Close() error }{
		a.Athletes, a.Offerings, a.Sessions, a.History, a.Profiles,
	}
	for _, closer := range closers {
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
	events = append(events, a.History.CollectEvents()...)
	events = append(events, a.Profiles.CollectEvents()...)
	return events
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:       ctx,
		DBContext: dbContext,
		Athletes:  athletestorage.NewPostgresStorage(dbContext),
		Offerings: offeringstorage.NewPostgresStorage(dbContext),
		Sessions:  sessionstorage.NewPostgresStorage(dbContext),
		History:   historystorage.NewPostgresStorage(dbContext),
		Profiles:  profilestorage.NewPostgresStorage(dbContext),
	}, nil
}
