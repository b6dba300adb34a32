package attendanceservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/app/apptest"
	"github.com/jflips/coachlog_backend/internal/app/messagebus"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

type fixture struct {
	svc       *Service
	uow       *unitofwork.UnitOfWork[*AtomicContext]
	db        *apptest.FakeDB
	athletes  *apptest.AthleteStore
	offerings *apptest.OfferingStore
	sessions  *apptest.SessionStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := &apptest.FakeDB{}
	athletes := apptest.NewAthleteStore()
	offerings := apptest.NewOfferingStore()
	sessions := apptest.NewSessionStore()

	uow := unitofwork.New[*AtomicContext](
		db,
		func(ctx context.Context, dbCtx storage.DBContext) (*AtomicContext, error) {
			return &AtomicContext{
				ctx:       ctx,
				DBContext: dbCtx,
				Athletes:  athletes,
				Offerings: offerings,
				Sessions:  sessions,
			}, nil
		},
		messagebus.New(logger),
		logger,
	)

	ctx := context.Background()
	for _, a := range []*athlete.Athlete{
		{AthleteID: "ath-1", CoachID: "coach-1", Name: "Amy"},
		{AthleteID: "ath-2", CoachID: "coach-1", Name: "Ben"},
	} {
		if err := athletes.Add(ctx, a); err != nil {
			t.Fatalf("seed athlete: %v", err)
		}
	}
	for _, o := range []*offering.ClassOffering{
		{OfferingID: "off-open", CoachID: "coach-1", Name: "Open Gym", Price: 150},
		{OfferingID: "off-squad", CoachID: "coach-1", Name: "Squad", Price: 300, EnrolledAthleteIDs: []string{"ath-1"}},
	} {
		if err := offerings.Add(ctx, o); err != nil {
			t.Fatalf("seed offering: %v", err)
		}
	}

	return &fixture{
		svc:       New(logger),
		uow:       uow,
		db:        db,
		athletes:  athletes,
		offerings: offerings,
		sessions:  sessions,
	}
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestRecordSessionCreates(t *testing.T) {
	f := newFixture(t)

	saved, err := f.svc.RecordSession(context.Background(), f.uow, "coach-1", "sess-1", day(3), "off-open", []string{"ath-1", "ath-2"})
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if len(saved.AthleteIDs) != 2 {
		t.Errorf("athlete ids = %v, want 2 entries", saved.AthleteIDs)
	}
	if f.db.Commits != 1 {
		t.Errorf("commits = %d, want 1", f.db.Commits)
	}
}

func TestRecordSessionUpserts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RecordSession(ctx, f.uow, "coach-1", "sess-1", day(3), "off-open", []string{"ath-1"}); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	saved, err := f.svc.RecordSession(ctx, f.uow, "coach-1", "sess-1", day(4), "off-open", []string{"ath-2"})
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if !saved.Date.Equal(day(4)) || saved.AthleteIDs[0] != "ath-2" {
		t.Errorf("saved = %+v, want replaced date and attendees", saved)
	}
	if f.sessions.Len() != 1 {
		t.Errorf("sessions stored = %d, want 1", f.sessions.Len())
	}
}

func TestRecordSessionPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := map[string]struct {
		offeringID string
		athleteIDs []string
		wantErr    error
	}{
		"no athletes":       {"off-open", nil, session.ErrNoAthletes},
		"unknown offering":  {"off-nope", []string{"ath-1"}, offering.ErrOfferingNotFound},
		"unknown athlete":   {"off-open", []string{"ath-9"}, athlete.ErrAthleteNotFound},
		"not enrolled":      {"off-squad", []string{"ath-2"}, ErrAthleteNotEnrolled},
		"one of many fails": {"off-squad", []string{"ath-1", "ath-2"}, ErrAthleteNotEnrolled},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.RecordSession(ctx, f.uow, "coach-1", "sess-x", day(1), tt.offeringID, tt.athleteIDs)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if f.sessions.Len() != 0 {
				t.Errorf("sessions stored = %d, want 0", f.sessions.Len())
			}
		})
	}
}

func TestRecordSessionEnrolledAdmitted(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.RecordSession(context.Background(), f.uow, "coach-1", "sess-1", day(5), "off-squad", []string{"ath-1"}); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
}

func TestListSessionsOrderedByDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, s := range []struct {
		id  string
		day int
	}{
		{"sess-b", 10},
		{"sess-a", 2},
		{"sess-c", 21},
	} {
		if _, err := f.svc.RecordSession(ctx, f.uow, "coach-1", s.id, day(s.day), "off-open", []string{"ath-1"}); err != nil {
			t.Fatalf("RecordSession: %v", err)
		}
	}

	listed, err := f.svc.ListSessions(ctx, f.uow, "coach-1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	var got []string
	for _, s := range listed {
		got = append(got, s.SessionID)
	}
	want := []string{"sess-a", "sess-b", "sess-c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.RecordSession(ctx, f.uow, "coach-1", "sess-1", day(3), "off-open", []string{"ath-1"}); err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if err := f.svc.DeleteSession(ctx, f.uow, "coach-1", "sess-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	err := f.svc.DeleteSession(ctx, f.uow, "coach-1", "sess-1")
	if !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
