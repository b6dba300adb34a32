package ledgerservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	historystorage "github.com/jflips/coachlog_backend/internal/adapter/storage/history"
	offeringstorage "github.com/jflips/coachlog_backend/internal/adapter/storage/offerings"
	sessionstorage "github.com/jflips/coachlog_backend/internal/adapter/storage/sessions"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

type SessionStorage interface {
	List(ctx context.Context, coachID string) ([]*session.Session, error)
	DeleteAll(ctx context.Context, coachID string) error

	Close() error
	CollectEvents() []domain.Event
}

type OfferingStorage interface {
	List(ctx context.Context, coachID string) ([]*offering.ClassOffering, error)

	Close() error
	CollectEvents() []domain.Event
}

type HistoryStorage interface {
	Add(ctx context.Context, r *history.Record) error
	GetByID(ctx context.Context, coachID, recordID string) (*history.Record, error)
	List(ctx context.Context, coachID string) ([]*history.Record, error)
	Delete(ctx context.Context, coachID, recordID string) error

	Close() error
	CollectEvents() []domain.Event
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	Sessions  SessionStorage
	Offerings OfferingStorage
	History   HistoryStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	for _, closer := range []interface{ Close() error }{a.Sessions, a.Offerings, a.History} {
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
	events = append(events, a.Sessions.CollectEvents()...)
	events = append(events, a.Offerings.CollectEvents()...)
	events = append(events, a.History.CollectEvents()...)
	return events
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:       ctx,
		DBContext: dbContext,
		Sessions:  sessionstorage.NewPostgresStorage(dbContext),
		Offerings: offeringstorage.NewPostgresStorage(dbContext),
		History:   historystorage.NewPostgresStorage(dbContext),
	}, nil
}
