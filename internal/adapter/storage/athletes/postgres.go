package athletestorage

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/adapter/storage/pgutil"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/leporo/sqlf"
	"github.com/r3labs/diff"
	"github.com/samber/lo"
)

type PostgresStorage struct {
	base *pgutil.BasePostgresStorage
}

func NewPostgresStorage(db storage.DBContext) *PostgresStorage {
	return &PostgresStorage{
		base: pgutil.NewBasePostgresStorage(db),
	}
}

func (s *PostgresStorage) Add(ctx context.Context, a *athlete.Athlete) error {
	q := sqlf.InsertInto("athletes").
		Set("athlete_id", a.AthleteID).
		Set("coach_id", a.CoachID).
		Set("name", a.Name).
		Set("group_key", a.GroupKey).
		Set("created_at", a.CreatedAt).
		Set("updated_at", a.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "athletes_pkey") {
			return athlete.ErrAthleteExists
		}
		return err
	}

	s.base.MarkSeen(a.AthleteID, a)
	return nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) (map[string]*athlete.Athlete, error) {
	tmp := &athlete.Athlete{}

	q := sqlf.From("athletes a").
		Select("a.athlete_id").To(&tmp.AthleteID).
		Select("a.coach_id").To(&tmp.CoachID).
		Select("a.name").To(&tmp.Name).
		Select("a.group_key").To(&tmp.GroupKey).
		Select("a.created_at").To(&tmp.CreatedAt).
		Select("a.updated_at").To(&tmp.UpdatedAt)

	q = modify(q)

	athletes := make(map[string]*athlete.Athlete)

	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		athletes[tmp.AthleteID] = &athlete.Athlete{
			AthleteID: tmp.AthleteID,
			CoachID:   tmp.CoachID,
			Name:      tmp.Name,
			GroupKey:  tmp.GroupKey,
			CreatedAt: tmp.CreatedAt,
			UpdatedAt: tmp.UpdatedAt,
		}
	})

	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return athletes, err
}

func (s *PostgresStorage) GetByID(ctx context.Context, coachID, athleteID string) (*athlete.Athlete, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("a.coach_id = ?", coachID).Where("a.athlete_id = ?", athleteID)
	})

	a, err := pgutil.PeekOrErr(result, err, athlete.ErrAthleteNotFound)
	if err != nil {
		return nil, err
	}

	s.base.MarkSeen(a.AthleteID, a)
	return a, nil
}

// List returns the roster in creation order, so derived billing groups come
// out the same way on every call.
func (s *PostgresStorage) List(ctx context.Context, coachID string) ([]*athlete.Athlete, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("a.coach_id = ?", coachID).OrderBy("a.created_at", "a.athlete_id")
	})
	if err != nil {
		return nil, err
	}

	// the row map loses the ORDER BY, restore it
	out := lo.Values(result)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].AthleteID < out[j].AthleteID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *PostgresStorage) Persist(ctx context.Context, a *athlete.Athlete) error {
	dbState, err := s.GetByID(ctx, a.CoachID, a.AthleteID)
	if err != nil {
		return err
	}

	changes, err := diff.Diff(dbState, a)
	if err != nil {
		return storage.InternalError(err)
	}
	if len(changes) == 0 {
		return nil
	}

	q := sqlf.Update("athletes").
		Where("coach_id = ?", a.CoachID).
		Where("athlete_id = ?", a.AthleteID)
	q = pgutil.MakeUpdateQuery(q, changes)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	if err := pgutil.AssertUpdated(res, err, athlete.ErrAthleteNotFound); err != nil {
		return err
	}

	s.base.MarkSeen(a.AthleteID, a)
	return nil
}

func (s *PostgresStorage) Delete(ctx context.Context, coachID, athleteID string) error {
	q := sqlf.DeleteFrom("athletes").
		Where("coach_id = ?", coachID).
		Where("athlete_id = ?", athleteID)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, athlete.ErrAthleteNotFound)
}

func (s *PostgresStorage) DeleteAll(ctx context.Context, coachID string) error {
	q := sqlf.DeleteFrom("athletes").Where("coach_id = ?", coachID)

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
