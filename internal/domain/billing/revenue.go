package billing

import (
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/session"
)

// SessionRevenue is the offering price multiplied by the attendee count.
// A session whose offering has been deleted contributes zero; a missing
// reference is a valid degraded state, never an error.
func SessionRevenue(sess *session.Session, offeringsByID map[string]*offering.ClassOffering) int64 {
	off, ok := offeringsByID[sess.OfferingID]
	if !ok {
		return 0
	}
	return off.Price * int64(len(sess.AthleteIDs))
}

// PeriodRevenue sums SessionRevenue over the collection. An empty collection
// is revenue zero.
func PeriodRevenue(sessions []*session.Session, offeringsByID map[string]*offering.ClassOffering) int64 {
	var total int64
	for _, sess := range sessions {
		total += SessionRevenue(sess, offeringsByID)
	}
	return total
}
