package history

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jflips/coachlog_backend/internal/domain"
	"github.com/jflips/coachlog_backend/internal/domain/session"
	"github.com/samber/lo"
)

var (
	ErrRecordNotFound = errors.New("history record not found")
	ErrRecordExists   = errors.New("history record already exists")
	ErrInvalidMonth   = errors.New("invalid month name")
	ErrInvalidYear    = errors.New("invalid year")
)

const (
	EventMonthArchived = "ledger.month_archived"
)

var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

func ValidMonth(name string) bool {
	return lo.Contains(Months, name)
}

// Record is the frozen archive of one month's sessions. Revenue is computed
// once at archive time from the prices in effect at that moment and is never
// recomputed; the session snapshot is read-only from then on.
type Record struct {
	domain.Aggregate `diff:"-"`
	RecordID         string
	CoachID          string
	MonthName        string
	Year             int
	Sessions         []session.Session
	Revenue          int64
	RecordedAt       time.Time
}

func New(
	recordID string,
	coachID string,
	monthName string,
	year int,
	sessions []session.Session,
	revenue int64,
) (*Record, error) {
	if !ValidMonth(monthName) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, monthName)
	}
	if year <= 0 {
		return nil, ErrInvalidYear
	}

	r := &Record{
		RecordID:   recordID,
		CoachID:    coachID,
		MonthName:  monthName,
		Year:       year,
		Sessions:   sessions,
		Revenue:    revenue,
		RecordedAt: time.Now().UTC(),
	}
	r.PushEvent(ArchivedEvent{
		At:       r.RecordedAt,
		RecordID: r.RecordID,
		Month:    r.MonthName,
		Year:     r.Year,
		Revenue:  r.Revenue,
		Sessions: len(r.Sessions),
	})
	return r, nil
}

// ParseRevenue converts a revenue figure that arrives as text (legacy backups
// stored numbers as strings) into whole currency units. It is the single
// parse point; callers must not re-parse the result downstream.
func ParseRevenue(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed revenue %q: %w", raw, err)
	}
	return int64(f), nil
}

type ArchivedEvent struct {
	At       time.Time
	RecordID string
	Month    string
	Year     int
	Revenue  int64
	Sessions int
}

func (e ArchivedEvent) Type() string {
	return EventMonthArchived
}

func (e ArchivedEvent) PublishedAt() time.Time {
	return e.At
}
