package sessionstorage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/jflips/coachlog_backend/internal/adapter/storage"
	"github.com/jflips/coachlog_backend/internal/adapter/storage/pgutil"
	"github.com/jflips/coachlog_backend/internal/domain"
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

func (s *PostgresStorage) Add(ctx context.Context, sess *session.Session) error {
	q := sqlf.InsertInto("sessions").
		Set("session_id", sess.SessionID).
		Set("coach_id", sess.CoachID).
		Set("session_date", sess.Date).
		Set("offering_id", sess.OfferingID).
		Set("athlete_ids", marshalIDs(sess.AthleteIDs))

	if _, err := q.ExecAndClose(ctx, s.base.DB); err != nil {
		if pgutil.ViolatesConstraint(err, "sessions_pkey") {
			return session.ErrSessionExists
		}
		return err
	}

	return nil
}

func (s *PostgresStorage) get(
	ctx context.Context,
	modify func(stmt *sqlf.Stmt) *sqlf.Stmt,
) (map[string]*session.Session, error) {
	tmp := &session.Session{}
	var athletesRaw string

	q := sqlf.From("sessions s").
		Select("s.session_id").To(&tmp.SessionID).
		Select("s.coach_id").To(&tmp.CoachID).
		Select("s.session_date").To(&tmp.Date).
		Select("s.offering_id").To(&tmp.OfferingID).
		Select("s.athlete_ids").To(&athletesRaw)

	q = modify(q)

	sessions := make(map[string]*session.Session)
	var scanErr error

	err := q.QueryAndClose(ctx, s.base.DB, func(rows *sql.Rows) {
		ids, err := unmarshalIDs(athletesRaw)
		if err != nil {
			scanErr = err
			return
		}
		sessions[tmp.SessionID] = &session.Session{
			SessionID:  tmp.SessionID,
			CoachID:    tmp.CoachID,
			Date:       tmp.Date,
			OfferingID: tmp.OfferingID,
			AthleteIDs: ids,
		}
	})
	if scanErr != nil {
		return nil, storage.InternalError(scanErr)
	}

	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return sessions, err
}

func (s *PostgresStorage) GetByID(ctx context.Context, coachID, sessionID string) (*session.Session, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("s.coach_id = ?", coachID).Where("s.session_id = ?", sessionID)
	})
	return pgutil.PeekOrErr(result, err, session.ErrSessionNotFound)
}

// List returns the active ledger by date ascending; ties keep insertion
// order stable through the id tiebreak.
func (s *PostgresStorage) List(ctx context.Context, coachID string) ([]*session.Session, error) {
	result, err := s.get(ctx, func(stmt *sqlf.Stmt) *sqlf.Stmt {
		return stmt.Where("s.coach_id = ?", coachID)
	})
	if err != nil {
		return nil, err
	}

	out := lo.Values(result)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// Persist replaces the whole row; attendance edits touch most columns
// anyway, so a diff changelog buys nothing here.
func (s *PostgresStorage) Persist(ctx context.Context, sess *session.Session) error {
	q := sqlf.Update("sessions").
		Where("coach_id = ?", sess.CoachID).
		Where("session_id = ?", sess.SessionID).
		Set("session_date", sess.Date).
		Set("offering_id", sess.OfferingID).
		Set("athlete_ids", marshalIDs(sess.AthleteIDs))

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, session.ErrSessionNotFound)
}

func (s *PostgresStorage) Delete(ctx context.Context, coachID, sessionID string) error {
	q := sqlf.DeleteFrom("sessions").
		Where("coach_id = ?", coachID).
		Where("session_id = ?", sessionID)

	res, err := q.ExecAndClose(ctx, s.base.DB)
	return pgutil.AssertUpdated(res, err, session.ErrSessionNotFound)
}

func (s *PostgresStorage) DeleteAll(ctx context.Context, coachID string) error {
	q := sqlf.DeleteFrom("sessions").Where("coach_id = ?", coachID)

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
