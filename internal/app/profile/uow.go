package profileapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	profilestorage "github.com/jflips/coachlog_backend/internal/adapter/storage/profiles"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
)

type ProfileStorage interface {
	Get(ctx context.Context, coachID string) (*profile.Profile, error)
	Add(ctx context.Context, p *profile.Profile) error
	Persist(ctx context.Context, p *profile.Profile) error

	Close() error
	CollectEvents() []domain.Event
}

type AtomicContext struct {
	ctx context.Context
	storage.DBContext
	Profiles ProfileStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.DBContext.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.Profiles.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.Profiles.CollectEvents()
}

func NewAtomicContext(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
	return &AtomicContext{
		ctx:       ctx,
		DBContext: dbContext,
		Profiles:  profilestorage.NewPostgresStorage(dbContext),
	}, nil
}
