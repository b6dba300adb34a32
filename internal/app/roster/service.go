package rosterservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// SaveAthlete upserts an athlete. When linkSiblingID is set, the athlete
// joins the sibling's billing group: the sibling's existing group key is
// reused, or a fresh key is minted and stamped on both athletes inside the
// same transaction, so a linked pair always has at least two members.
func (s *Service) SaveAthlete(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	athleteID string,
	name string,
	linkSiblingID string,
) (saved *athlete.Athlete, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		existing, err := c.Athletes.GetByID(c.Context(), coachID, athleteID)
		if err != nil && !errors.Is(err, athlete.ErrAthleteNotFound) {
			return err
		}

		var groupKey string
		if existing != nil {
			groupKey = existing.GroupKey
		}

		if linkSiblingID != "" {
			sibling, err := c.Athletes.GetByID(c.Context(), coachID, linkSiblingID)
			if err != nil {
				return err
			}
			if sibling.GroupKey != "" {
				groupKey = sibling.GroupKey
			} else {
				groupKey = "grp_" + uuid.NewString()
				sibling.Link(groupKey)
				if err := c.Athletes.Persist(c.Context(), sibling); err != nil {
					return err
				}
			}
		}

		if existing == nil {
			saved = athlete.New(athleteID, coachID, name, groupKey)
			if err := c.Athletes.Add(c.Context(), saved); err != nil {
				return err
			}
		} else {
			existing.Rename(name)
			existing.Link(groupKey)
			if err := c.Athletes.Persist(c.Context(), existing); err != nil {
				return err
			}
			saved = existing
		}

		return c.Commit()
	})
	return
}

// DeleteAthlete removes the athlete. Group keys on other athletes are left
// untouched; a key pointing nowhere degrades its group to the remaining
// members.
func (s *Service) DeleteAthlete(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	athleteID string,
) error {
	return uow.Atomic(ctx, func(c *AtomicContext) error {
		if err := c.Athletes.Delete(c.Context(), coachID, athleteID); err != nil {
			return err
		}
		return c.Commit()
	})
}

func (s *Service) ListAthletes(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
) (athletes []*athlete.Athlete, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		var err error
		if athletes, err = c.Athletes.List(c.Context(), coachID); err != nil {
			return err
		}
		return c.Commit()
	})
	return
}

// SaveOffering upserts a class offering. Price changes never rewrite
// recorded sessions; they only affect revenue computed from now on.
func (s *Service) SaveOffering(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	offeringID string,
	name string,
	price int64,
	enrolledAthleteIDs []string,
) (saved *offering.ClassOffering, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		fresh, err := offering.New(offeringID, coachID, name, price, enrolledAthleteIDs)
		if err != nil {
			return err
		}

		existing, err := c.Offerings.GetByID(c.Context(), coachID, offeringID)
		if err != nil && !errors.Is(err, offering.ErrOfferingNotFound) {
			return err
		}

		if existing == nil {
			if err := c.Offerings.Add(c.Context(), fresh); err != nil {
				return err
			}
			saved = fresh
		} else {
			existing.Name = fresh.Name
			existing.Price = fresh.Price
			existing.EnrolledAthleteIDs = fresh.EnrolledAthleteIDs
			existing.UpdatedAt = fresh.UpdatedAt
			if err := c.Offerings.Persist(c.Context(), existing); err != nil {
				return err
			}
			saved = existing
		}

		return c.Commit()
	})
	return
}

func (s *Service) DeleteOffering(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	offeringID string,
) error {
	return uow.Atomic(ctx, func(c *AtomicContext) error {
		if err := c.Offerings.Delete(c.Context(), coachID, offeringID); err != nil {
			return err
		}
		return c.Commit()
	})
}

func (s *Service) ListOfferings(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
) (offerings []*offering.ClassOffering, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		var err error
		if offerings, err = c.Offerings.List(c.Context(), coachID); err != nil {
			return err
		}
		return c.Commit()
	})
	return
}
