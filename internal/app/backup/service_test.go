package backupservice

import (
	"context"
	"encoding/json"
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
	"github.com/jflips/coachlog_backend/internal/domain/profile"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

type fixture struct {
	svc       *Service
	uow       *unitofwork.UnitOfWork[*AtomicContext]
	db        *apptest.FakeDB
	athletes  *apptest.AthleteStore
	offerings *apptest.OfferingStore
	sessions  *apptest.SessionStore
	records   *apptest.HistoryStore
	profiles  *apptest.ProfileStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := &apptest.FakeDB{}
	athletes := apptest.NewAthleteStore()
	offerings := apptest.NewOfferingStore()
	sessions := apptest.NewSessionStore()
	records := apptest.NewHistoryStore()
	profiles := apptest.NewProfileStore()

	uow := unitofwork.New[*AtomicContext](
		db,
		func(ctx context.Context, dbCtx storage.DBContext) (*AtomicContext, error) {
			return &AtomicContext{
				ctx:       ctx,
				DBContext: dbCtx,
				Athletes:  athletes,
				Offerings: offerings,
				Sessions:  sessions,
				History:   records,
				Profiles:  profiles,
			}, nil
		},
		messagebus.New(logger),
		logger,
	)

	return &fixture{
		svc:       New(logger),
		uow:       uow,
		db:        db,
		athletes:  athletes,
		offerings: offerings,
		sessions:  sessions,
		records:   records,
		profiles:  profiles,
	}
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	for _, a := range []*athlete.Athlete{
		{AthleteID: "ath-1", CoachID: "coach-1", Name: "Amy", GroupKey: "grp_1"},
		{AthleteID: "ath-2", CoachID: "coach-1", Name: "Ben", GroupKey: "grp_1"},
	} {
		if err := f.athletes.Add(ctx, a); err != nil {
			t.Fatalf("seed athlete: %v", err)
		}
	}
	if err := f.offerings.Add(ctx, &offering.ClassOffering{
		OfferingID: "off-1", CoachID: "coach-1", Name: "Gym", Price: 150,
	}); err != nil {
		t.Fatalf("seed offering: %v", err)
	}
	if err := f.sessions.Add(ctx, &session.Session{
		SessionID:  "sess-1",
		CoachID:    "coach-1",
		Date:       time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
		OfferingID: "off-1",
		AthleteIDs: []string{"ath-1", "ath-2"},
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := f.profiles.Add(ctx, &profile.Profile{
		CoachID: "coach-1", BusinessName: "Flip Factory", BankName: "FNB",
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	snap, err := f.svc.Export(ctx, f.uow, "coach-1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(snap.Athletes) != 2 || len(snap.Offerings) != 1 || len(snap.Sessions) != 1 {
		t.Fatalf("snapshot = %+v, want seeded counts", snap)
	}
	if snap.Sessions[0].Date != "2026-03-03" {
		t.Errorf("session date = %q, want 2026-03-03", snap.Sessions[0].Date)
	}
	if snap.Profile == nil || snap.Profile.BusinessName != "Flip Factory" {
		t.Errorf("profile = %+v, want Flip Factory", snap.Profile)
	}

	// Restore onto a second, empty fixture through JSON to exercise the
	// interchange encoding as well.
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	g := newFixture(t)
	if err := g.svc.Restore(ctx, g.uow, "coach-1", &decoded); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if g.athletes.Len() != 2 || g.offerings.Len() != 1 || g.sessions.Len() != 1 {
		t.Errorf("restored counts = %d/%d/%d, want 2/1/1",
			g.athletes.Len(), g.offerings.Len(), g.sessions.Len())
	}

	restored, err := g.athletes.GetByID(ctx, "coach-1", "ath-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if restored.GroupKey != "grp_1" {
		t.Errorf("group key = %q, want grp_1", restored.GroupKey)
	}
}

func TestRestoreReplacesExistingData(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	snap := &Snapshot{
		Athletes: []AthleteRecord{{ID: "ath-9", Name: "Zoe"}},
	}
	if err := f.svc.Restore(ctx, f.uow, "coach-1", snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if f.athletes.Len() != 1 {
		t.Errorf("athletes = %d, want 1", f.athletes.Len())
	}
	if f.sessions.Len() != 0 || f.offerings.Len() != 0 || f.profiles.Len() != 0 {
		t.Error("restore kept data the snapshot does not contain")
	}
}

func TestRestoreParsesLegacyStringRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := []byte(`{
		"athletes": [],
		"class_offerings": [],
		"sessions": [],
		"history": [{
			"id": "rec-1",
			"month_name": "March",
			"year": 2026,
			"sessions": [{"id": "s1", "date": "2026-03-03", "class_offering_id": "off-1", "athlete_ids": ["ath-1"]}],
			"revenue": "450.00"
		}]
	}`)
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if err := f.svc.Restore(ctx, f.uow, "coach-1", &snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	rec, err := f.records.GetByID(ctx, "coach-1", "rec-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if rec.Revenue != 450 {
		t.Errorf("revenue = %d, want 450", rec.Revenue)
	}
	if len(rec.Sessions) != 1 {
		t.Errorf("snapshot sessions = %d, want 1", len(rec.Sessions))
	}
}

func TestRestoreRejectsMalformedSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := map[string]*Snapshot{
		"athlete without name": {Athletes: []AthleteRecord{{ID: "ath-1"}}},
		"negative price":       {Offerings: []OfferingRecord{{ID: "off-1", Name: "Gym", Price: -5}}},
		"bad session date":     {Sessions: []SessionRecord{{ID: "s1", Date: "03/03/2026", OfferingID: "off-1", AthleteIDs: []string{"a"}}}},
		"bad month":            {History: []HistoryEntry{{ID: "r1", MonthName: "Nope", Year: 2026, Revenue: "0"}}},
	}

	for name, snap := range tests {
		t.Run(name, func(t *testing.T) {
			err := f.svc.Restore(ctx, f.uow, "coach-1", snap)
			if !errors.Is(err, ErrMalformedSnapshot) {
				t.Fatalf("err = %v, want ErrMalformedSnapshot", err)
			}
		})
	}
}

func TestWipe(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	if err := f.svc.Wipe(context.Background(), f.uow, "coach-1"); err != nil {
		t.Fatalf("Wipe: %v", err)
	}
	if f.athletes.Len()+f.offerings.Len()+f.sessions.Len()+f.records.Len()+f.profiles.Len() != 0 {
		t.Error("wipe left data behind")
	}
}
