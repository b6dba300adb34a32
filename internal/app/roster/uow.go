package rosterservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	athletestorage "github.com/jflips/coachlog_backend/internal/adapter/storage/athletes"
	offeringstorage "github.com/jflips/coachlog_backend/internal/adapter/storage/offerings"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
)

type AthleteStorage interface {
	Add(ctx context.Context, a *athlete.Athlete) error
	Persist(ctx context.Context, a *athlete.Athlete) error
	GetByID(ctx context.Context, coachID, athleteID string) (*athlete.Athlete, error)
	List(ctx context.Context, coachID string) ([]*athlete.Athlete, error)
	Delete(ctx context.Context, coachID, athleteID string) error

	Close() error
	CollectEvents() []domain.Event
}

type OfferingStorage interface {
	Add(ctx context.Context, o *offering.ClassOffering) error
	Persist(ctx context.Context, o *offering.ClassOffering) error
	GetByID(ctx context.Context, coachID, offeringID string) (*offering.ClassOffering, error)
	List(ctx context.Context, coachID string) ([]*offering.ClassOffering, error)
	Delete(ctx context.Context, coachID, offeringID string) error

	Close() error
	CollectEvents() []domain.Event
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	Athletes  AthleteStorage
	Offerings OfferingStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.Athletes.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if closeErr := a.Offerings.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	athleteEvents := a.Athletes.CollectEvents()
	offeringEvents := a.Offerings.CollectEvents()

	events := make([]domain.Event, 0, len(athleteEvents)+len(offeringEvents))
	events = append(events, athleteEvents...)
	events = append(events, offeringEvents...)
	return events
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:       ctx,
		DBContext: dbContext,
		Athletes:  athletestorage.NewPostgresStorage(dbContext),
		Offerings: offeringstorage.NewPostgresStorage(dbContext),
	}, nil
}
