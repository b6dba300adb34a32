package session

import (
	"errors"
	"time"

	"github.com/samber/lo"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrNoAthletes      = errors.New("session requires at least one athlete")
)

// Session is one dated attendance record: one class offering, N attending
// athletes. Athlete ids must reference existing athletes at creation time;
// dangling ids after a deletion are tolerated and simply fail lookups.
type Session struct {
	SessionID  string    `json:"id"`
	CoachID    string    `json:"-"`
	Date       time.Time `json:"date"`
	OfferingID string    `json:"class_offering_id"`
	AthleteIDs []string  `json:"athlete_ids"`
}

func New(sessionID, coachID string, date time.Time, offeringID string, athleteIDs []string) (*Session, error) {
	ids := lo.Uniq(athleteIDs)
	if len(ids) == 0 {
		return nil, ErrNoAthletes
	}
	return &Session{
		SessionID:  sessionID,
		CoachID:    coachID,
		Date:       date,
		OfferingID: offeringID,
		AthleteIDs: ids,
	}, nil
}
