package profilestorage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/adapter/storage/pgutil"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/profile"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
)

type PostgresStorage struct {
	base *pgutil.BasePostgresStorage
}

func NewPostgresStorage(db storage.DBContext) *PostgresStorage {
	return &PostgresStorage{
		base: pgutil.NewBasePostgresStorage(db),
	}
}

func (s *PostgresStorage) Add(ctx context.Context, p *profile.Profile) error {
	q := sqlf.InsertInto("billing_profiles").
		Set("coach_id", p.CoachID).
		Set("business_name", p.BusinessName).
		Set("bank_name", p.BankName).
		Set("account_number", p.AccountNumber).
		Set("branch_code", p.BranchCode).
		Set("account_type", p.AccountType).
		Set("logo", p.Logo).
		Set("updated_at", p.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "billing_profiles_pkey") {
			return profile.ErrProfileExists
		}
		return err
	}

	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, coachID string) (*profile.Profile, error) {
	p := &profile.Profile{}

	q := sqlf.From("billing_profiles p").
		Where("p.coach_id = ?", coachID).
		Select("p.coach_id").To(&p.CoachID).
		Select("p.business_name").To(&p.BusinessName).
		Select("p.bank_name").To(&p.BankName).
		Select("p.account_number").To(&p.AccountNumber).
		Select("p.branch_code").To(&p.BranchCode).
		Select("p.account_type").To(&p.AccountType).
		Select("p.logo").To(&p.Logo).
		Select("p.updated_at").To(&p.UpdatedAt)

	if err := q.QueryRowAndClose(ctx, s.base.DB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}

	return p, nil
}

func (s *PostgresStorage) Persist(ctx context.Context, p *profile.Profile) error {
	dbState, err := s.Get(ctx, p.CoachID)
	if err != nil {
		return err
	}

	changes, err := diff.Diff(dbState, p)
	if err != nil {
		return storage.InternalError(err)
	}
	if len(changes) == 0 {
		return nil
	}

	q := sqlf.Update("billing_profiles").Where("coach_id = ?", p.CoachID)
	q = pgutil.MakeUpdateQuery(q, changes)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, profile.ErrProfileNotFound)
}

func (s *PostgresStorage) Delete(ctx context.Context, coachID string) error {
	q := sqlf.DeleteFrom("billing_profiles").Where("coach_id = ?", coachID)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		return storage.InternalError(err)
	}
	return nil
}

func (s *PostgresStorage) CollectEvents() []domain.Event {
	return s.base.CollectEvents()
}

func (s *PostgresStorage) Close() error {
	s.base.Close()
	return nil
}
