package offeringstorage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/adapter/storage/pgutil"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
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

func (s *PostgresStorage) Add(ctx context.Context, o *offering.ClassOffering) error {
	q := sqlf.InsertInto("class_offerings").
		Set("offering_id", o.OfferingID).
		Set("coach_id", o.CoachID).
		Set("name", o.Name).
		Set("price", o.Price).
		Set("enrolled_athlete_ids", marshalIDs(o.EnrolledAthleteIDs)).
		Set("created_at", o.CreatedAt).
		Set("updated_at", o.UpdatedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "class_offerings_pkey") {
			return offering.ErrOfferingExists
		}
		return err
	}

	return nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) (map[string]*offering.ClassOffering, error) {
	tmp := &offering.ClassOffering{}
	var enrolledRaw string

	q := sqlf.From("class_offerings o").
		Select("o.offering_id").To(&tmp.OfferingID).
		Select("o.coach_id").To(&tmp.CoachID).
		Select("o.name").To(&tmp.Name).
		Select("o.price").To(&tmp.Price).
		Select("o.enrolled_athlete_ids").To(&enrolledRaw).
		Select("o.created_at").To(&tmp.CreatedAt).
		Select("o.updated_at").To(&tmp.UpdatedAt)

	q = modify(q)

	offerings := make(map[string]*offering.ClassOffering)
	var scanErr error

	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		ids, err := unmarshalIDs(enrolledRaw)
		if err != nil {
			scanErr = err
			return
		}
		offerings[tmp.OfferingID] = &offering.ClassOffering{
			OfferingID:         tmp.OfferingID,
			CoachID:            tmp.CoachID,
			Name:               tmp.Name,
			Price:              tmp.Price,
			EnrolledAthleteIDs: ids,
			CreatedAt:          tmp.CreatedAt,
			UpdatedAt:          tmp.UpdatedAt,
		}
	})
	if scanErr != nil {
		return nil, storage.InternalError(scanErr)
	}

	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return offerings, err
}

func (s *PostgresStorage) GetByID(ctx context.Context, coachID, offeringID string) (*offering.ClassOffering, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("o.coach_id = ?", coachID).Where("o.offering_id = ?", offeringID)
	})
	return pgutil.PeekOrErr(result, err, offering.ErrOfferingNotFound)
}

func (s *PostgresStorage) List(ctx context.Context, coachID string) ([]*offering.ClassOffering, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("o.coach_id = ?", coachID)
	})
	if err != nil {
		return nil, err
	}

	out := lo.Values(result)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OfferingID < out[j].OfferingID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Persist writes scalar changes through a diff changelog; the enrollment
// list has no stable diff path, so it is always rewritten whole.
func (s *PostgresStorage) Persist(ctx context.Context, o *offering.ClassOffering) error {
	dbState, err := s.GetByID(ctx, o.CoachID, o.OfferingID)
	if err != nil {
		return err
	}

	changes, err := diff.Diff(dbState, o)
	if err != nil {
		return storage.InternalError(err)
	}

	q := sqlf.Update("class_offerings").
		Where("coach_id = ?", o.CoachID).
		Where("offering_id = ?", o.OfferingID).
		Set("enrolled_athlete_ids", marshalIDs(o.EnrolledAthleteIDs))
	q = pgutil.MakeUpdateQuery(q, changes)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, offering.ErrOfferingNotFound)
}

func (s *PostgresStorage) Delete(ctx context.Context, coachID, offeringID string) error {
	q := sqlf.DeleteFrom("class_offerings").
		Where("coach_id = ?", coachID).
		Where("offering_id = ?", offeringID)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, offering.ErrOfferingNotFound)
}

func (s *PostgresStorage) DeleteAll(ctx context.Context, coachID string) error {
	q := sqlf.DeleteFrom("class_offerings").Where("coach_id = ?", coachID)

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

func marshalIDs(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	raw, _ := json.Marshal(ids)
	return string(raw)
}

func unmarshalIDs(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
