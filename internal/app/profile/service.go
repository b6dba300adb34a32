package profileapp

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// GetProfile returns the coach's billing profile, or the default profile if
// none has been saved yet.
func (s *Service) GetProfile(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
) (prof *profile.Profile, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		var err error
		prof, err = c.Profiles.Get(c.Context(), coachID)
		if errors.Is(err, profile.ErrProfileNotFound) {
			prof = profile.Default(coachID)
		} else if err != nil {
			return err
		}
		return c.Commit()
	})
	return
}

// SaveProfile upserts the billing profile. The whole document replaces the
// stored one; already generated invoices keep the details they were rendered
// with.
func (s *Service) SaveProfile(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	prof *profile.Profile,
) error {
	return uow.Atomic(ctx, func(c *AtomicContext) error {
		prof.UpdatedAt = time.Now().UTC()

		_, err := c.Profiles.Get(c.Context(), prof.CoachID)
		switch {
		case errors.Is(err, profile.ErrProfileNotFound):
			err = c.Profiles.Add(c.Context(), prof)
		case err == nil:
			err = c.Profiles.Persist(c.Context(), prof)
		}
		if err != nil {
			return err
		}
		return c.Commit()
	})
}
