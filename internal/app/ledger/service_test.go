package ledgerservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/app/apptest"
	"github.com/jflips/coachlog_backend/internal/app/messagebus"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

type fixture struct {
	svc       *Service
	uow       *unitofwork.UnitOfWork[*AtomicContext]
	db        *apptest.FakeDB
	sessions  *apptest.SessionStore
	offerings *apptest.OfferingStore
	records   *apptest.HistoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := &apptest.FakeDB{}
	sessions := apptest.NewSessionStore()
	offerings := apptest.NewOfferingStore()
	records := apptest.NewHistoryStore()

	uow := unitofwork.New[*AtomicContext](
		db,
		func(ctx context.Context, dbCtx storage.DBContext) (*AtomicContext, error) {
			return &AtomicContext{
				ctx:       ctx,
				DBContext: dbCtx,
				Sessions:  sessions,
				Offerings: offerings,
				History:   records,
			}, nil
		},
		messagebus.New(logger),
		logger,
	)

	return &fixture{
		svc:       New(logger),
		uow:       uow,
		db:        db,
		sessions:  sessions,
		offerings: offerings,
		records:   records,
	}
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) seedLedger(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	for _, o := range []*offering.ClassOffering{
		{OfferingID: "off-1", CoachID: "coach-1", Name: "Gym", Price: 150},
		{OfferingID: "off-2", CoachID: "coach-1", Name: "Squad", Price: 300},
	} {
		if err := f.offerings.Add(ctx, o); err != nil {
			t.Fatalf("seed offering: %v", err)
		}
	}
	for _, s := range []*session.Session{
		{SessionID: "sess-1", CoachID: "coach-1", Date: day(3), OfferingID: "off-1", AthleteIDs: []string{"ath-1", "ath-2"}},
		{SessionID: "sess-2", CoachID: "coach-1", Date: day(10), OfferingID: "off-2", AthleteIDs: []string{"ath-1"}},
	} {
		if err := f.sessions.Add(ctx, s); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}
}

func TestArchiveMonthSnapshotsAndClears(t *testing.T) {
	f := newFixture(t)
	f.seedLedger(t)

	result, err := f.svc.ArchiveMonth(context.Background(), f.uow, "coach-1", "March", 2026)
	if err != nil {
		t.Fatalf("ArchiveMonth: %v", err)
	}
	if !result.Archived {
		t.Fatal("Archived = false, want true")
	}

	rec := result.Record
	if rec.MonthName != "March" || rec.Year != 2026 {
		t.Errorf("record label = %s %d, want March 2026", rec.MonthName, rec.Year)
	}
	if len(rec.Sessions) != 2 {
		t.Errorf("snapshot sessions = %d, want 2", len(rec.Sessions))
	}
	// 150*2 + 300*1
	if rec.Revenue != 600 {
		t.Errorf("revenue = %d, want 600", rec.Revenue)
	}
	if f.sessions.Len() != 0 {
		t.Errorf("ledger sessions = %d, want 0 after archive", f.sessions.Len())
	}
	if f.records.Len() != 1 {
		t.Errorf("records stored = %d, want 1", f.records.Len())
	}
	if f.db.Commits != 1 {
		t.Errorf("commits = %d, want 1", f.db.Commits)
	}
}

func TestArchiveMonthEmptyLedgerIsNoop(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.ArchiveMonth(context.Background(), f.uow, "coach-1", "March", 2026)
	if err != nil {
		t.Fatalf("ArchiveMonth: %v", err)
	}
	if result.Archived {
		t.Error("Archived = true, want false for empty ledger")
	}
	if f.records.Len() != 0 {
		t.Errorf("records stored = %d, want 0", f.records.Len())
	}
}

func TestArchiveMonthRejectsBadMonth(t *testing.T) {
	f := newFixture(t)
	f.seedLedger(t)

	_, err := f.svc.ArchiveMonth(context.Background(), f.uow, "coach-1", "Marchtober", 2026)
	if !errors.Is(err, history.ErrInvalidMonth) {
		t.Fatalf("err = %v, want ErrInvalidMonth", err)
	}
	if f.sessions.Len() != 2 {
		t.Errorf("ledger sessions = %d, want untouched 2", f.sessions.Len())
	}
}

func TestArchiveMonthRollsBackOnAddFailure(t *testing.T) {
	f := newFixture(t)
	f.seedLedger(t)
	f.records.FailAdd = errors.New("insert failed")

	_, err := f.svc.ArchiveMonth(context.Background(), f.uow, "coach-1", "March", 2026)
	if err == nil {
		t.Fatal("err = nil, want insert failure")
	}
	if f.db.Rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", f.db.Rollbacks)
	}
	if f.sessions.Len() != 2 {
		t.Errorf("ledger sessions = %d, want untouched 2", f.sessions.Len())
	}
}

func TestYearStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mustRecord := func(month string, year int, revenue int64, sessions int) {
		snap := make([]session.Session, sessions)
		rec, err := history.New("rec-"+month+"-"+strconv.Itoa(year), "coach-1", month, year, snap, revenue)
		if err != nil {
			t.Fatalf("history.New: %v", err)
		}
		rec.PopEvents()
		if err := f.records.Add(ctx, rec); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}
	mustRecord("February", 2026, 450, 3)
	mustRecord("March", 2026, 600, 2)
	mustRecord("March", 2025, 999, 4)

	stats, err := f.svc.YearStatistics(ctx, f.uow, "coach-1", 2026)
	if err != nil {
		t.Fatalf("YearStatistics: %v", err)
	}
	if len(stats) != 12 {
		t.Fatalf("stats = %d months, want 12", len(stats))
	}

	byMonth := map[string]MonthStat{}
	for _, s := range stats {
		byMonth[s.Month] = s
	}
	if got := byMonth["February"]; !got.Archived || got.Revenue != 450 || got.Sessions != 3 {
		t.Errorf("February = %+v, want archived 450/3", got)
	}
	if got := byMonth["March"]; got.Revenue != 600 {
		t.Errorf("March revenue = %d, want 600 (2025 excluded)", got.Revenue)
	}
	if got := byMonth["July"]; got.Archived || got.Revenue != 0 {
		t.Errorf("July = %+v, want empty", got)
	}
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture(t)
	f.seedLedger(t)
	ctx := context.Background()

	result, err := f.svc.ArchiveMonth(ctx, f.uow, "coach-1", "March", 2026)
	if err != nil {
		t.Fatalf("ArchiveMonth: %v", err)
	}

	if err := f.svc.DeleteRecord(ctx, f.uow, "coach-1", result.Record.RecordID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	_, err = f.svc.GetRecord(ctx, f.uow, "coach-1", result.Record.RecordID)
	if !errors.Is(err, history.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}
