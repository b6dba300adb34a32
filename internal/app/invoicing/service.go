package invoiceservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/billing"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
	"github.com/jflips/coachlog_backend/internal/domain/session"
	"github.com/samber/lo"
)

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// GroupSummary is one entry in the invoice list view.
type GroupSummary struct {
	billing.Group
	SessionCount int
}

// Document pairs an invoice with the coach's billing profile so the caller
// can render letterhead and payment details alongside the lines.
type Document struct {
	Invoice billing.Invoice
	Profile profile.Profile
}

// ListGroups resolves the current roster into billing groups and counts the
// active sessions touching each one. Groups are derived on every call, never
// stored.
func (s *Service) ListGroups(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
) (summaries []GroupSummary, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		athletes, err := c.Athletes.List(c.Context(), coachID)
		if err != nil {
			return err
		}
		sessions, err := c.Sessions.List(c.Context(), coachID)
		if err != nil {
			return err
		}

		groups := billing.ResolveGroups(athletes)
		summaries = lo.Map(groups, func(g billing.Group, _ int) GroupSummary {
			return GroupSummary{
				Group:        g,
				SessionCount: billing.MatchingSessionCount(g, sessions),
			}
		})
		return c.Commit()
	})
	return
}

// BuildInvoice renders the invoice for one billing group from the active
// ledger.
func (s *Service) BuildInvoice(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	groupID string,
) (doc *Document, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		sessions, err := c.Sessions.List(c.Context(), coachID)
		if err != nil {
			return err
		}
		var inner error
		if doc, inner = s.assemble(c, coachID, groupID, sessions); inner != nil {
			return inner
		}
		return c.Commit()
	})
	return
}

// BuildArchivedInvoice renders an invoice from a history record's frozen
// session snapshot. Group membership and names come from the current roster;
// athletes deleted since the archive fall back to placeholder names inside
// the assembler.
func (s *Service) BuildArchivedInvoice(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	recordID string,
	groupID string,
) (doc *Document, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		record, err := c.History.GetByID(c.Context(), coachID, recordID)
		if err != nil {
			return err
		}
		sessions := lo.Map(record.Sessions, func(s session.Session, _ int) *session.Session {
			return &s
		})
		var inner error
		if doc, inner = s.assemble(c, coachID, groupID, sessions); inner != nil {
			return inner
		}
		return c.Commit()
	})
	return
}

func (s *Service) assemble(
	c *AtomicContext,
	coachID string,
	groupID string,
	sessions []*session.Session,
) (*Document, error) {
	athletes, err := c.Athletes.List(c.Context(), coachID)
	if err != nil {
		return nil, err
	}
	offerings, err := c.Offerings.List(c.Context(), coachID)
	if err != nil {
		return nil, err
	}

	groups := billing.ResolveGroups(athletes)
	invoice, err := billing.BuildInvoice(
		groupID,
		groups,
		sessions,
		lo.KeyBy(offerings, func(o *offering.ClassOffering) string { return o.OfferingID }),
		lo.KeyBy(athletes, func(a *athlete.Athlete) string { return a.AthleteID }),
	)
	if err != nil {
		return nil, err
	}

	prof, err := c.Profiles.Get(c.Context(), coachID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		prof = profile.Default(coachID)
	} else if err != nil {
		return nil, err
	}

	return &Document{Invoice: *invoice, Profile: *prof}, nil
}
