package rosterservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/app/apptest"
	"github.com/jflips/coachlog_backend/internal/app/messagebus"
	"github.com/jflips/coachlog_backend/internal/app/unitofwork"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
)

type fixture struct {
	svc       *Service
	uow       *unitofwork.UnitOfWork[*AtomicContext]
	db        *apptest.FakeDB
	athletes  *apptest.AthleteStore
	offerings *apptest.OfferingStore
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := &apptest.FakeDB{}
	athletes := apptest.NewAthleteStore()
	offerings := apptest.NewOfferingStore()

	uow := unitofwork.New[*AtomicContext](
		db,
		func(ctx context.Context, dbCtx storage.DBContext) (*AtomicContext, error) {
			return &AtomicContext{
				ctx:       ctx,
				DBContext: dbCtx,
				Athletes:  athletes,
				Offerings: offerings,
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
	}
}

func TestSaveAthleteCreates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	saved, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-1", "Amy", "")
	if err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}
	if saved.Name != "Amy" || saved.GroupKey != "" {
		t.Errorf("saved = %+v, want name Amy and empty group key", saved)
	}
	if f.db.Commits != 1 {
		t.Errorf("commits = %d, want 1", f.db.Commits)
	}

	listed, err := f.svc.ListAthletes(ctx, f.uow, "coach-1")
	if err != nil {
		t.Fatalf("ListAthletes: %v", err)
	}
	if len(listed) != 1 || listed[0].AthleteID != "ath-1" {
		t.Errorf("listed = %+v, want the one saved athlete", listed)
	}
}

func TestSaveAthleteMintsSharedKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-1", "Amy", ""); err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}

	saved, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-2", "Ben", "ath-1")
	if err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}
	if !strings.HasPrefix(saved.GroupKey, "grp_") {
		t.Fatalf("group key = %q, want minted grp_ key", saved.GroupKey)
	}

	sibling, err := f.athletes.GetByID(ctx, "coach-1", "ath-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sibling.GroupKey != saved.GroupKey {
		t.Errorf("sibling key = %q, athlete key = %q, want equal", sibling.GroupKey, saved.GroupKey)
	}
}

func TestSaveAthleteReusesSiblingKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-1", "Amy", ""); err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}
	if _, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-2", "Ben", "ath-1"); err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}
	first, _ := f.athletes.GetByID(ctx, "coach-1", "ath-1")

	saved, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-3", "Cal", "ath-1")
	if err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}
	if saved.GroupKey != first.GroupKey {
		t.Errorf("key = %q, want reused sibling key %q", saved.GroupKey, first.GroupKey)
	}
}

func TestSaveAthleteUpdatePreservesKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-1", "Amy", ""); err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}
	if _, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-2", "Ben", "ath-1"); err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}

	saved, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-2", "Benjamin", "")
	if err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}
	if saved.Name != "Benjamin" {
		t.Errorf("name = %q, want Benjamin", saved.Name)
	}
	if saved.GroupKey == "" {
		t.Error("rename dropped the group key")
	}
}

func TestSaveAthleteMissingSibling(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SaveAthlete(context.Background(), f.uow, "coach-1", "ath-1", "Amy", "nope")
	if !errors.Is(err, athlete.ErrAthleteNotFound) {
		t.Fatalf("err = %v, want ErrAthleteNotFound", err)
	}
	if f.db.Rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", f.db.Rollbacks)
	}
	if f.athletes.Len() != 0 {
		t.Errorf("athletes stored = %d, want 0", f.athletes.Len())
	}
}

func TestDeleteAthlete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.SaveAthlete(ctx, f.uow, "coach-1", "ath-1", "Amy", ""); err != nil {
		t.Fatalf("SaveAthlete: %v", err)
	}
	if err := f.svc.DeleteAthlete(ctx, f.uow, "coach-1", "ath-1"); err != nil {
		t.Fatalf("DeleteAthlete: %v", err)
	}

	err := f.svc.DeleteAthlete(ctx, f.uow, "coach-1", "ath-1")
	if !errors.Is(err, athlete.ErrAthleteNotFound) {
		t.Errorf("err = %v, want ErrAthleteNotFound", err)
	}
}

func TestSaveOfferingRejectsNegativePrice(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SaveOffering(context.Background(), f.uow, "coach-1", "off-1", "Gym", -100, nil)
	if !errors.Is(err, offering.ErrNegativePrice) {
		t.Fatalf("err = %v, want ErrNegativePrice", err)
	}
	if f.offerings.Len() != 0 {
		t.Errorf("offerings stored = %d, want 0", f.offerings.Len())
	}
}

func TestSaveOfferingUpserts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.SaveOffering(ctx, f.uow, "coach-1", "off-1", "Gym", 150, []string{"ath-1"}); err != nil {
		t.Fatalf("SaveOffering: %v", err)
	}

	saved, err := f.svc.SaveOffering(ctx, f.uow, "coach-1", "off-1", "Gymnastics", 200, []string{"ath-1", "ath-2"})
	if err != nil {
		t.Fatalf("SaveOffering: %v", err)
	}
	if saved.Name != "Gymnastics" || saved.Price != 200 || len(saved.EnrolledAthleteIDs) != 2 {
		t.Errorf("saved = %+v, want updated name, price and enrollment", saved)
	}
}
