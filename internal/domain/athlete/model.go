package athlete

import (
	"errors"
	"time"

	"github.com/jflips/coachlog_backend/internal/domain"
)

var (
	ErrAthleteNotFound = errors.New("athlete not found")
	ErrAthleteExists   = errors.New("athlete already exists")
)

const (
	EventCreated = "athlete.created"
)

// Athlete is one billable individual on the coach's roster. GroupKey, when
// not empty, is an opaque token shared by siblings billed on one invoice.
// An orphaned key (no other athlete holds it) carries no group semantics.
type Athlete struct {
	domain.Aggregate `diff:"-"`
	AthleteID        string    `diff:"-"`
	CoachID          string    `diff:"-"`
	Name             string    `diff:"name"`
	GroupKey         string    `diff:"group_key"`
	CreatedAt        time.Time `diff:"-"`
	UpdatedAt        time.Time `diff:"updated_at"`
}

func New(athleteID, coachID, name, groupKey string) *Athlete {
	now := time.Now().UTC()
	a := &Athlete{
		AthleteID: athleteID,
		CoachID:   coachID,
		Name:      name,
		GroupKey:  groupKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.PushEvent(CreatedEvent{
		At:        a.CreatedAt,
		AthleteID: a.AthleteID,
		Name:      a.Name,
	})
	return a
}

// Link stamps the athlete with a sibling-group key.
func (a *Athlete) Link(groupKey string) {
	a.GroupKey = groupKey
	a.UpdatedAt = time.Now().UTC()
}

func (a *Athlete) Rename(name string) {
	a.Name = name
	a.UpdatedAt = time.Now().UTC()
}

type CreatedEvent struct {
	At        time.Time
	AthleteID string
	Name      string
}

func (e CreatedEvent) Type() string {
	return EventCreated
}

func (e CreatedEvent) PublishedAt() time.Time {
	return e.At
}
