package offering

import (
	"errors"
	"time"

	"github.com/samber/lo"
)

var (
	ErrOfferingNotFound = errors.New("class offering not found")
	ErrOfferingExists   = errors.New("class offering already exists")
	ErrNegativePrice    = errors.New("price must not be negative")
)

// ClassOffering is a priced class type. Price is in whole currency units and
// is charged per attending athlete. EnrolledAthleteIDs optionally restricts
// which athletes may be marked present; empty means unrestricted.
type ClassOffering struct {
	OfferingID         string    `diff:"-"`
	CoachID            string    `diff:"-"`
	Name               string    `diff:"name"`
	Price              int64     `diff:"price"`
	EnrolledAthleteIDs []string  `diff:"-"`
	CreatedAt          time.Time `diff:"-"`
	UpdatedAt          time.Time `diff:"updated_at"`
}

func New(offeringID, coachID, name string, price int64, enrolledAthleteIDs []string) (*ClassOffering, error) {
	if price < 0 {
		return nil, ErrNegativePrice
	}
	now := time.Now().UTC()
	return &ClassOffering{
		OfferingID:         offeringID,
		CoachID:            coachID,
		Name:               name,
		Price:              price,
		EnrolledAthleteIDs: lo.Uniq(enrolledAthleteIDs),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Admits reports whether the athlete may be marked present for this offering.
func (o *ClassOffering) Admits(athleteID string) bool {
	if len(o.EnrolledAthleteIDs) == 0 {
		return true
	}
	return lo.Contains(o.EnrolledAthleteIDs, athleteID)
}
