package backupservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
	"github.com/jflips/coachlog_backend/internal/domain/session"
	"github.com/samber/lo"
)

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

const dateLayout = "2006-01-02"

type Service struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Snapshot is the interchange document for export and restore. Dates travel
// as YYYY-MM-DD strings and revenue as a JSON number or string; legacy
// exports used strings for both.
type Snapshot struct {
	Athletes  []AthleteRecord  `json:"athletes"`
	Offerings []OfferingRecord `json:"class_offerings"`
	Sessions  []SessionRecord  `json:"sessions"`
	History   []HistoryEntry   `json:"history"`
	Profile   *ProfileRecord   `json:"profile,omitempty"`
}

type AthleteRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	GroupKey string `json:"group_key,omitempty"`
}

type OfferingRecord struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Price              int64    `json:"price"`
	EnrolledAthleteIDs []string `json:"enrolled_athlete_ids,omitempty"`
}

type SessionRecord struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	OfferingID string   `json:"class_offering_id"`
	AthleteIDs []string `json:"athlete_ids"`
}

type HistoryEntry struct {
	ID         string          `json:"id"`
	MonthName  string          `json:"month_name"`
	Year       int             `json:"year"`
	Sessions   []SessionRecord `json:"sessions"`
	Revenue    json.Number     `json:"revenue"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type ProfileRecord struct {
	BusinessName  string `json:"business_name"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	BranchCode    string `json:"branch_code,omitempty"`
	AccountType   string `json:"account_type,omitempty"`
	Logo          string `json:"logo,omitempty"`
}

// Export reads the coach's entire dataset into a Snapshot.
func (s *Service) Export(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
) (snap *Snapshot, err error) {
	err = uow.Atomic(ctx, func(c *AtomicContext) error {
		athletes, err := c.Athletes.List(c.Context(), coachID)
		if err != nil {
			return err
		}
		offerings, err := c.Offerings.List(c.Context(), coachID)
		if err != nil {
			return err
		}
		sessions, err := c.Sessions.List(c.Context(), coachID)
		if err != nil {
			return err
		}
		records, err := c.History.List(c.Context(), coachID)
		if err != nil {
			return err
		}

		snap = &Snapshot{
			Athletes: lo.Map(athletes, func(a *athlete.Athlete, _ int) AthleteRecord {
				return AthleteRecord{ID: a.AthleteID, Name: a.Name, GroupKey: a.GroupKey}
			}),
			Offerings: lo.Map(offerings, func(o *offering.ClassOffering, _ int) OfferingRecord {
				return OfferingRecord{
					ID:                 o.OfferingID,
					Name:               o.Name,
					Price:              o.Price,
					EnrolledAthleteIDs: o.EnrolledAthleteIDs,
				}
			}),
			Sessions: lo.Map(sessions, func(sess *session.Session, _ int) SessionRecord {
				return sessionRecord(*sess)
			}),
			History: lo.Map(records, func(r *history.Record, _ int) HistoryEntry {
				return HistoryEntry{
					ID:         r.RecordID,
					MonthName:  r.MonthName,
					Year:       r.Year,
					Sessions:   lo.Map(r.Sessions, func(sess session.Session, _ int) SessionRecord { return sessionRecord(sess) }),
					Revenue:    json.Number(strconv.FormatInt(r.Revenue, 10)),
					RecordedAt: r.RecordedAt,
				}
			}),
		}

		prof, err := c.Profiles.Get(c.Context(), coachID)
		if err == nil {
			snap.Profile = &ProfileRecord{
				BusinessName:  prof.BusinessName,
				BankName:      prof.BankName,
				AccountNumber: prof.AccountNumber,
				BranchCode:    prof.BranchCode,
				AccountType:   prof.AccountType,
				Logo:          prof.Logo,
			}
		} else if !errors.Is(err, profile.ErrProfileNotFound) {
			return err
		}

		return c.Commit()
	})
	return
}

// Restore replaces the coach's entire dataset with the snapshot's contents.
// Wipe and insert run in one transaction: a snapshot that fails validation
// part-way leaves the previous data in place.
func (s *Service) Restore(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
	snap *Snapshot,
) error {
	return uow.Atomic(ctx, func(c *AtomicContext) error {
		if err := wipe(c, coachID); err != nil {
			return err
		}

		for _, rec := range snap.Athletes {
			if rec.ID == "" || rec.Name == "" {
				return fmt.Errorf("%w: athlete missing id or name", ErrMalformedSnapshot)
			}
			a := &athlete.Athlete{
				AthleteID: rec.ID,
				CoachID:   coachID,
				Name:      rec.Name,
				GroupKey:  rec.GroupKey,
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			}
			if err := c.Athletes.Add(c.Context(), a); err != nil {
				return err
			}
		}

		for _, rec := range snap.Offerings {
			o, err := offering.New(rec.ID, coachID, rec.Name, rec.Price, rec.EnrolledAthleteIDs)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
			}
			if err := c.Offerings.Add(c.Context(), o); err != nil {
				return err
			}
		}

		for _, rec := range snap.Sessions {
			sess, err := parseSession(coachID, rec)
			if err != nil {
				return err
			}
			if err := c.Sessions.Add(c.Context(), sess); err != nil {
				return err
			}
		}

		for _, entry := range snap.History {
			record, err := parseHistoryEntry(coachID, entry)
			if err != nil {
				return err
			}
			if err := c.History.Add(c.Context(), record); err != nil {
				return err
			}
		}

		if snap.Profile != nil {
			prof := &profile.Profile{
				CoachID:       coachID,
				BusinessName:  snap.Profile.BusinessName,
				BankName:      snap.Profile.BankName,
				AccountNumber: snap.Profile.AccountNumber,
				BranchCode:    snap.Profile.BranchCode,
				AccountType:   snap.Profile.AccountType,
				Logo:          snap.Profile.Logo,
				UpdatedAt:     time.Now().UTC(),
			}
			if err := c.Profiles.Add(c.Context(), prof); err != nil {
				return err
			}
		}

		s.logger.Info("snapshot restored",
			"coach_id", coachID,
			"athletes", len(snap.Athletes),
			"offerings", len(snap.Offerings),
			"sessions", len(snap.Sessions),
			"history", len(snap.History),
		)
		return c.Commit()
	})
}

// Wipe deletes the coach's entire dataset.
func (s *Service) Wipe(
	ctx context.Context,
	uow *unitofwork.UnitOfWork[*AtomicContext],
	coachID string,
) error {
	return uow.Atomic(ctx, func(c *AtomicContext) error {
		if err := wipe(c, coachID); err != nil {
			return err
		}
		s.logger.Info("dataset wiped", "coach_id", coachID)
		return c.Commit()
	})
}

func wipe(c *AtomicContext, coachID string) error {
	if err := c.Sessions.DeleteAll(c.Context(), coachID); err != nil {
		return err
	}
	if err := c.History.DeleteAll(c.Context(), coachID); err != nil {
		return err
	}
	if err := c.Offerings.DeleteAll(c.Context(), coachID); err != nil {
		return err
	}
	if err := c.Athletes.DeleteAll(c.Context(), coachID); err != nil {
		return err
	}
	return c.Profiles.Delete(c.Context(), coachID)
}

func sessionRecord(sess session.Session) SessionRecord {
	return SessionRecord{
		ID:         sess.SessionID,
		Date:       sess.Date.Format(dateLayout),
		OfferingID: sess.OfferingID,
		AthleteIDs: sess.AthleteIDs,
	}
}

func parseSession(coachID string, rec SessionRecord) (*session.Session, error) {
	date, err := time.ParseInLocation(dateLayout, rec.Date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s date %q", ErrMalformedSnapshot, rec.ID, rec.Date)
	}
	sess, err := session.New(rec.ID, coachID, date, rec.OfferingID, rec.AthleteIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return sess, nil
}

func parseHistoryEntry(coachID string, entry HistoryEntry) (*history.Record, error) {
	revenue, err := history.ParseRevenue(entry.Revenue.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	sessions := make([]session.Session, 0, len(entry.Sessions))
	for _, rec := range entry.Sessions {
		sess, err := parseSession(coachID, rec)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}

	record, err := history.New(entry.ID, coachID, entry.MonthName, entry.Year, sessions, revenue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	record.PopEvents()
	if !entry.RecordedAt.IsZero() {
		record.RecordedAt = entry.RecordedAt
	}
	return record, nil
}
