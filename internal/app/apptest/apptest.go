// Package apptest provides in-memory storage fakes for service tests. The
// fakes satisfy every per-feature storage interface structurally, so one set
// of stores serves all app packages.
package apptest

import (
	"context"
	"database/sql"
	"sort"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

// FakeDB counts transaction boundaries and refuses raw SQL access.
type FakeDB struct {
	Commits   int
	Rollbacks int
}

func (f *FakeDB) Begin(ctx context.Context) (storage.DBContext, error) { return f, nil }
func (f *FakeDB) Commit() error                                        { f.Commits++; return nil }
func (f *FakeDB) Rollback() error                                      { f.Rollbacks++; return nil }

func (f *FakeDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	panic("unexpected database access")
}

func (f *FakeDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	panic("unexpected database access")
}

func (f *FakeDB) QueryRowContext(context.Context, string, ...any) *sql.Row {
	panic("unexpected database access")
}

type AthleteStore struct {
	order []string
	byID  map[string]*athlete.Athlete

	FailAdd error
}

func NewAthleteStore() *AthleteStore {
	return &AthleteStore{byID: map[string]*athlete.Athlete{}}
}

func (s *AthleteStore) Add(_ context.Context, a *athlete.Athlete) error {
	if s.FailAdd != nil {
		return s.FailAdd
	}
	if _, ok := s.byID[a.AthleteID]; ok {
		return athlete.ErrAthleteExists
	}
	s.byID[a.AthleteID] = cloneAthlete(a)
	s.order = append(s.order, a.AthleteID)
	return nil
}

func (s *AthleteStore) Persist(_ context.Context, a *athlete.Athlete) error {
	if _, ok := s.byID[a.AthleteID]; !ok {
		return athlete.ErrAthleteNotFound
	}
	s.byID[a.AthleteID] = cloneAthlete(a)
	return nil
}

func (s *AthleteStore) GetByID(_ context.Context, coachID, athleteID string) (*athlete.Athlete, error) {
	a, ok := s.byID[athleteID]
	if !ok || a.CoachID != coachID {
		return nil, athlete.ErrAthleteNotFound
	}
	return cloneAthlete(a), nil
}

func (s *AthleteStore) List(_ context.Context, coachID string) ([]*athlete.Athlete, error) {
	var out []*athlete.Athlete
	for _, id := range s.order {
		if a := s.byID[id]; a != nil && a.CoachID == coachID {
			out = append(out, cloneAthlete(a))
		}
	}
	return out, nil
}

func (s *AthleteStore) Delete(_ context.Context, coachID, athleteID string) error {
	a, ok := s.byID[athleteID]
	if !ok || a.CoachID != coachID {
		return athlete.ErrAthleteNotFound
	}
	delete(s.byID, athleteID)
	return nil
}

func (s *AthleteStore) DeleteAll(_ context.Context, coachID string) error {
	for id, a := range s.byID {
		if a.CoachID == coachID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *AthleteStore) Len() int { return len(s.byID) }
func (s *AthleteStore) Close() error { return nil }
func (s *AthleteStore) CollectEvents() []domain.Event { return nil }

// cloneAthlete copies the entity without its embedded aggregate state.
func cloneAthlete(a *athlete.Athlete) *athlete.Athlete {
	return &athlete.Athlete{
		AthleteID: a.AthleteID,
		CoachID:   a.CoachID,
		Name:      a.Name,
		GroupKey:  a.GroupKey,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type OfferingStore struct {
	order []string
	byID  map[string]*offering.ClassOffering
}

func NewOfferingStore() *OfferingStore {
	return &OfferingStore{byID: map[string]*offering.ClassOffering{}}
}

func (s *OfferingStore) Add(_ context.Context, o *offering.ClassOffering) error {
	if _, ok := s.byID[o.OfferingID]; ok {
		return offering.ErrOfferingExists
	}
	cp := *o
	s.byID[o.OfferingID] = &cp
	s.order = append(s.order, o.OfferingID)
	return nil
}

func (s *OfferingStore) Persist(_ context.Context, o *offering.ClassOffering) error {
	if _, ok := s.byID[o.OfferingID]; !ok {
		return offering.ErrOfferingNotFound
	}
	cp := *o
	s.byID[o.OfferingID] = &cp
	return nil
}

func (s *OfferingStore) GetByID(_ context.Context, coachID, offeringID string) (*offering.ClassOffering, error) {
	o, ok := s.byID[offeringID]
	if !ok || o.CoachID != coachID {
		return nil, offering.ErrOfferingNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *OfferingStore) List(_ context.Context, coachID string) ([]*offering.ClassOffering, error) {
	var out []*offering.ClassOffering
	for _, id := range s.order {
		if o := s.byID[id]; o != nil && o.CoachID == coachID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *OfferingStore) Delete(_ context.Context, coachID, offeringID string) error {
	o, ok := s.byID[offeringID]
	if !ok || o.CoachID != coachID {
		return offering.ErrOfferingNotFound
	}
	delete(s.byID, offeringID)
	return nil
}

func (s *OfferingStore) DeleteAll(_ context.Context, coachID string) error {
	for id, o := range s.byID {
		if o.CoachID == coachID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *OfferingStore) Len() int { return len(s.byID) }
func (s *OfferingStore) Close() error { return nil }
func (s *OfferingStore) CollectEvents() []domain.Event { return nil }

type SessionStore struct {
	byID map[string]*session.Session

	FailDeleteAll error
}

func NewSessionStore() *SessionStore {
	return &SessionStore{byID: map[string]*session.Session{}}
}

func (s *SessionStore) Add(_ context.Context, sess *session.Session) error {
	if _, ok := s.byID[sess.SessionID]; ok {
		return session.ErrSessionExists
	}
	cp := *sess
	s.byID[sess.SessionID] = &cp
	return nil
}

func (s *SessionStore) Persist(_ context.Context, sess *session.Session) error {
	if _, ok := s.byID[sess.SessionID]; !ok {
		return session.ErrSessionNotFound
	}
	cp := *sess
	s.byID[sess.SessionID] = &cp
	return nil
}

func (s *SessionStore) GetByID(_ context.Context, coachID, sessionID string) (*session.Session, error) {
	sess, ok := s.byID[sessionID]
	if !ok || sess.CoachID != coachID {
		return nil, session.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

// List returns sessions ordered by date ascending, matching the real
// storage's ORDER BY.
func (s *SessionStore) List(_ context.Context, coachID string) ([]*session.Session, error) {
	var out []*session.Session
	for _, sess := range s.byID {
		if sess.CoachID == coachID {
			cp := *sess
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *SessionStore) Delete(_ context.Context, coachID, sessionID string) error {
	sess, ok := s.byID[sessionID]
	if !ok || sess.CoachID != coachID {
		return session.ErrSessionNotFound
	}
	delete(s.byID, sessionID)
	return nil
}

func (s *SessionStore) DeleteAll(_ context.Context, coachID string) error {
	if s.FailDeleteAll != nil {
		return s.FailDeleteAll
	}
	for id, sess := range s.byID {
		if sess.CoachID == coachID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *SessionStore) Len() int { return len(s.byID) }
func (s *SessionStore) Close() error { return nil }
func (s *SessionStore) CollectEvents() []domain.Event { return nil }

type HistoryStore struct {
	byID map[string]*history.Record

	FailAdd error
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{byID: map[string]*history.Record{}}
}

func (s *HistoryStore) Add(_ context.Context, rec *history.Record) error {
	if s.FailAdd != nil {
		return s.FailAdd
	}
	if _, ok := s.byID[rec.RecordID]; ok {
		return history.ErrRecordExists
	}
	s.byID[rec.RecordID] = cloneRecord(rec)
	return nil
}

func (s *HistoryStore) GetByID(_ context.Context, coachID, recordID string) (*history.Record, error) {
	rec, ok := s.byID[recordID]
	if !ok || rec.CoachID != coachID {
		return nil, history.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// List returns records newest first, matching the real storage's ORDER BY.
func (s *HistoryStore) List(_ context.Context, coachID string) ([]*history.Record, error) {
	var out []*history.Record
	for _, rec := range s.byID {
		if rec.CoachID == coachID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

func (s *HistoryStore) Delete(_ context.Context, coachID, recordID string) error {
	rec, ok := s.byID[recordID]
	if !ok || rec.CoachID != coachID {
		return history.ErrRecordNotFound
	}
	delete(s.byID, recordID)
	return nil
}

func (s *HistoryStore) DeleteAll(_ context.Context, coachID string) error {
	for id, rec := range s.byID {
		if rec.CoachID == coachID {
			delete(s.byID, id)
		}
	}
	return nil
}

func (s *HistoryStore) Len() int { return len(s.byID) }
func (s *HistoryStore) Close() error { return nil }
func (s *HistoryStore) CollectEvents() []domain.Event { return nil }

func cloneRecord(r *history.Record) *history.Record {
	return &history.Record{
		RecordID:   r.RecordID,
		CoachID:    r.CoachID,
		MonthName:  r.MonthName,
		Year:       r.Year,
		Sessions:   r.Sessions,
		Revenue:    r.Revenue,
		RecordedAt: r.RecordedAt,
	}
}

type ProfileStore struct {
	byCoach map[string]*profile.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{byCoach: map[string]*profile.Profile{}}
}

func (s *ProfileStore) Add(_ context.Context, p *profile.Profile) error {
	cp := *p
	s.byCoach[p.CoachID] = &cp
	return nil
}

func (s *ProfileStore) Persist(_ context.Context, p *profile.Profile) error {
	if _, ok := s.byCoach[p.CoachID]; !ok {
		return profile.ErrProfileNotFound
	}
	cp := *p
	s.byCoach[p.CoachID] = &cp
	return nil
}

func (s *ProfileStore) Get(_ context.Context, coachID string) (*profile.Profile, error) {
	p, ok := s.byCoach[coachID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *ProfileStore) Delete(_ context.Context, coachID string) error {
	delete(s.byCoach, coachID)
	return nil
}

func (s *ProfileStore) Len() int { return len(s.byCoach) }
func (s *ProfileStore) Close() error { return nil }
func (s *ProfileStore) CollectEvents() []domain.Event { return nil }
