package invoiceservice

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
	"github.com/jflips/coachlog_backend/internal/domain/billing"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

type fixture struct {
	svc       *Service
	uow       *unitofwork.UnitOfWork[*AtomicContext]
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

	ctx := context.Background()
	for _, a := range []*athlete.Athlete{
		{AthleteID: "ath-1", CoachID: "coach-1", Name: "Amy", GroupKey: "grp_1"},
		{AthleteID: "ath-2", CoachID: "coach-1", Name: "Ben", GroupKey: "grp_1"},
		{AthleteID: "ath-3", CoachID: "coach-1", Name: "Cal"},
	} {
		if err := athletes.Add(ctx, a); err != nil {
			t.Fatalf("seed athlete: %v", err)
		}
	}
	if err := offerings.Add(ctx, &offering.ClassOffering{
		OfferingID: "off-1", CoachID: "coach-1", Name: "Gym", Price: 150,
	}); err != nil {
		t.Fatalf("seed offering: %v", err)
	}

	return &fixture{
		svc:       New(logger),
		uow:       uow,
		athletes:  athletes,
		offerings: offerings,
		sessions:  sessions,
		records:   records,
		profiles:  profiles,
	}
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) seedSessions(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []*session.Session{
		{SessionID: "sess-1", CoachID: "coach-1", Date: day(3), OfferingID: "off-1", AthleteIDs: []string{"ath-1", "ath-2"}},
		{SessionID: "sess-2", CoachID: "coach-1", Date: day(7), OfferingID: "off-1", AthleteIDs: []string{"ath-3"}},
	} {
		if err := f.sessions.Add(ctx, s); err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}
}

func TestListGroups(t *testing.T) {
	f := newFixture(t)
	f.seedSessions(t)

	summaries, err := f.svc.ListGroups(context.Background(), f.uow, "coach-1")
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("groups = %d, want 2", len(summaries))
	}

	siblings := summaries[0]
	if siblings.Kind != billing.Siblings || siblings.Label != "Amy & Ben" {
		t.Errorf("first group = %+v, want Amy & Ben siblings", siblings.Group)
	}
	if siblings.SessionCount != 1 {
		t.Errorf("sibling session count = %d, want 1", siblings.SessionCount)
	}

	single := summaries[1]
	if single.Kind != billing.Singleton || single.RepresentativeID != "ath-3" {
		t.Errorf("second group = %+v, want Cal singleton", single.Group)
	}
}

func TestBuildInvoiceUsesDefaultProfile(t *testing.T) {
	f := newFixture(t)
	f.seedSessions(t)

	doc, err := f.svc.BuildInvoice(context.Background(), f.uow, "coach-1", "ath-1")
	if err != nil {
		t.Fatalf("BuildInvoice: %v", err)
	}
	if doc.Invoice.Total != 300 {
		t.Errorf("total = %d, want 300 (both siblings billed)", doc.Invoice.Total)
	}
	if len(doc.Invoice.Lines) != 2 {
		t.Errorf("lines = %d, want 2", len(doc.Invoice.Lines))
	}
	if doc.Profile.BusinessName != "JFLIPS" {
		t.Errorf("business name = %q, want default JFLIPS", doc.Profile.BusinessName)
	}
}

func TestBuildInvoiceUsesSavedProfile(t *testing.T) {
	f := newFixture(t)
	f.seedSessions(t)

	if err := f.profiles.Add(context.Background(), &profile.Profile{
		CoachID:      "coach-1",
		BusinessName: "Flip Factory",
		BankName:     "FNB",
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	doc, err := f.svc.BuildInvoice(context.Background(), f.uow, "coach-1", "ath-3")
	if err != nil {
		t.Fatalf("BuildInvoice: %v", err)
	}
	if doc.Profile.BusinessName != "Flip Factory" {
		t.Errorf("business name = %q, want Flip Factory", doc.Profile.BusinessName)
	}
	if doc.Invoice.Total != 150 {
		t.Errorf("total = %d, want 150", doc.Invoice.Total)
	}
}

func TestBuildInvoiceUnknownGroup(t *testing.T) {
	f := newFixture(t)
	f.seedSessions(t)

	_, err := f.svc.BuildInvoice(context.Background(), f.uow, "coach-1", "ath-9")
	if !errors.Is(err, billing.ErrGroupNotFound) {
		t.Fatalf("err = %v, want ErrGroupNotFound", err)
	}
}

func TestBuildArchivedInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snapshot := []session.Session{
		{SessionID: "sess-old", CoachID: "coach-1", Date: day(1), OfferingID: "off-1", AthleteIDs: []string{"ath-1", "ath-2"}},
	}
	rec, err := history.New("rec-1", "coach-1", "February", 2026, snapshot, 300)
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	rec.PopEvents()
	if err := f.records.Add(ctx, rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	doc, err := f.svc.BuildArchivedInvoice(ctx, f.uow, "coach-1", "rec-1", "ath-1")
	if err != nil {
		t.Fatalf("BuildArchivedInvoice: %v", err)
	}
	if len(doc.Invoice.Lines) != 2 || doc.Invoice.Total != 300 {
		t.Errorf("invoice = %+v, want 2 lines totalling 300", doc.Invoice)
	}

	_, err = f.svc.BuildArchivedInvoice(ctx, f.uow, "coach-1", "rec-missing", "ath-1")
	if !errors.Is(err, history.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}
