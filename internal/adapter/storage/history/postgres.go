package historystorage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/adapter/storage/pgutil"
	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/history"
	"github.com/jflips/coachlog_backend/internal/domain/session"
	"github.com/leporo/sqlf"
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

func (s *PostgresStorage) Add(ctx context.Context, r *history.Record) error {
	snapshot, err := json.Marshal(r.Sessions)
	if err != nil {
		return storage.InternalError(err)
	}

	q := sqlf.InsertInto("history_records").
		Set("record_id", r.RecordID).
		Set("coach_id", r.CoachID).
		Set("month_name", r.MonthName).
		Set("year", r.Year).
		Set("sessions_json", string(snapshot)).
		Set("revenue", r.Revenue).
		Set("recorded_at", r.RecordedAt)

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "history_records_pkey") {
			return history.ErrRecordExists
		}
		return err
	}

	s.base.MarkSeen(r.RecordID, r)
	return nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) (map[string]*history.Record, error) {
	tmp := &history.Record{}
	var sessionsRaw string

	q := sqlf.From("history_records h").
		Select("h.record_id").To(&tmp.RecordID).
		Select("h.coach_id").To(&tmp.CoachID).
		Select("h.month_name").To(&tmp.MonthName).
		Select("h.year").To(&tmp.Year).
		Select("h.sessions_json").To(&sessionsRaw).
		Select("h.revenue").To(&tmp.Revenue).
		Select("h.recorded_at").To(&tmp.RecordedAt)

	q = modify(q)

	records := make(map[string]*history.Record)
	var scanErr error

	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		var sessions []session.Session
		if err := json.Unmarshal([]byte(sessionsRaw), &sessions); err != nil {
			scanErr = err
			return
		}
		// CoachID is excluded from the snapshot encoding, restore it
		for i := range sessions {
			sessions[i].CoachID = tmp.CoachID
		}
		records[tmp.RecordID] = &history.Record{
			RecordID:   tmp.RecordID,
			CoachID:    tmp.CoachID,
			MonthName:  tmp.MonthName,
			Year:       tmp.Year,
			Sessions:   sessions,
			Revenue:    tmp.Revenue,
			RecordedAt: tmp.RecordedAt,
		}
	})
	if scanErr != nil {
		return nil, storage.InternalError(scanErr)
	}

	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return records, err
}

func (s *PostgresStorage) GetByID(ctx context.Context, coachID, recordID string) (*history.Record, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("h.coach_id = ?", coachID).Where("h.record_id = ?", recordID)
	})
	return pgutil.PeekOrErr(result, err, history.ErrRecordNotFound)
}

// List returns archives newest first.
func (s *PostgresStorage) List(ctx context.Context, coachID string) ([]*history.Record, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("h.coach_id = ?", coachID)
	})
	if err != nil {
		return nil, err
	}

	out := lo.Values(result)
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

func (s *PostgresStorage) Delete(ctx context.Context, coachID, recordID string) error {
	q := sqlf.DeleteFrom("history_records").
		Where("coach_id = ?", coachID).
		Where("record_id = ?", recordID)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, history.ErrRecordNotFound)
}

func (s *PostgresStorage) DeleteAll(ctx context.Context, coachID string) error {
	q := sqlf.DeleteFrom("history_records").Where("coach_id = ?", coachID)

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
