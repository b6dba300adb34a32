package billing

import (
	"sort"
	"time"

	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/jflips/coachlog_backend/internal/domain/offering"
	"github.com/jflips/coachlog_backend/internal/domain/session"
	"github.com/samber/lo"
)

// Line is one billed entry on an invoice. A session shared by several group
// members emits one line per member; AthleteName is set only when the group
// has more than one member.
type Line struct {
	SessionID   string
	Date        time.Time
	Description string
	AthleteID   string
	AthleteName string
	Amount      int64
}

// Invoice is an immutable per-group billing document. Prices are per
// attending athlete, so Total equals the sum of the line amounts: a session
// shared by two siblings charges the offering price twice.
type Invoice struct {
	GroupID   string
	Label     string
	MemberIDs []string
	Lines     []Line
	Total     int64
}

// BuildInvoice assembles the invoice for the billing group identified by
// groupID. It selects every session whose attendee set intersects the group,
// emits one line per matching member, and orders lines by session date with
// ties keeping the original session order. Sessions referencing a deleted
// offering produce zero-amount lines. The entity collections are never
// mutated.
func BuildInvoice(
	groupID string,
	groups []Group,
	sessions []*session.Session,
	offeringsByID map[string]*offering.ClassOffering,
	athletesByID map[string]*athlete.Athlete,
) (*Invoice, error) {
	group, ok := FindGroup(groups, groupID)
	if !ok {
		return nil, ErrGroupNotFound
	}

	members := lo.SliceToMap(group.MemberIDs, func(id string) (string, struct{}) {
		return id, struct{}{}
	})

	var lines []Line
	for _, sess := range sessions {
		for _, athleteID := range sess.AthleteIDs {
			if _, match := members[athleteID]; !match {
				continue
			}

			var description string
			var amount int64
			if off, ok := offeringsByID[sess.OfferingID]; ok {
				description = off.Name
				amount = off.Price
			}

			var athleteName string
			if len(group.MemberIDs) > 1 {
				if a, ok := athletesByID[athleteID]; ok {
					athleteName = a.Name
				} else {
					athleteName = "Athlete"
				}
			}

			lines = append(lines, Line{
				SessionID:   sess.SessionID,
				Date:        sess.Date,
				Description: description,
				AthleteID:   athleteID,
				AthleteName: athleteName,
				Amount:      amount,
			})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Date.Before(lines[j].Date)
	})

	return &Invoice{
		GroupID:   group.RepresentativeID,
		Label:     group.Label,
		MemberIDs: group.MemberIDs,
		Lines:     lines,
		Total: lo.SumBy(lines, func(l Line) int64 {
			return l.Amount
		}),
	}, nil
}

// MatchingSessionCount reports how many sessions touch the group, used for
// the invoice list view.
func MatchingSessionCount(group Group, sessions []*session.Session) int {
	count := 0
	for _, sess := range sessions {
		if lo.Some(sess.AthleteIDs, group.MemberIDs) {
			count++
		}
	}
	return count
}
