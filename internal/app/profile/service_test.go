package profileapp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/app/apptest"
	"github.com/jflips/coachlog_backend/internal/app/messagebus"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
)

func newFixture() (*Service, *unitofwork.UnitOfWork[*AtomicContext], *apptest.ProfileStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := &apptest.FakeDB{}
	profiles := apptest.NewProfileStore()

	uow := unitofwork.New[*AtomicContext](
		db,
		func(ctx context.Context, dbCtx storage.DBContext) (*AtomicContext, error) {
			return &AtomicContext{ctx: ctx, DBContext: dbCtx, Profiles: profiles}, nil
		},
		messagebus.New(logger),
		logger,
	)

	return New(logger), uow, profiles
}

func TestGetProfileFallsBackToDefault(t *testing.T) {
	svc, uow, _ := newFixture()

	p, err := svc.GetProfile(context.Background(), uow, "coach-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.BusinessName != profile.DefaultBusinessName || p.AccountType != "Current" {
		t.Errorf("profile = %+v, want defaults", p)
	}
}

func TestSaveProfileUpserts(t *testing.T) {
	svc, uow, _ := newFixture()
	ctx := context.Background()

	if err := svc.SaveProfile(ctx, uow, &profile.Profile{
		CoachID: "coach-1", BusinessName: "Flip Factory",
	}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := svc.SaveProfile(ctx, uow, &profile.Profile{
		CoachID: "coach-1", BusinessName: "Flip Factory", BankName: "FNB",
	}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	p, err := svc.GetProfile(ctx, uow, "coach-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.BankName != "FNB" {
		t.Errorf("bank = %q, want FNB", p.BankName)
	}
	if p.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
}
