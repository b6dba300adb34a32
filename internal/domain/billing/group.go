package billing

import (
	"errors"
	"strings"

	"github.com/jflips/coachlog_backend/internal/domain/athlete"
	"github.com/samber/lo"
)

var (
	ErrGroupNotFound = errors.New("billing group not found")
)

type GroupKind int

const (
	// Singleton is an athlete billed alone, including athletes whose group
	// key no other athlete holds.
	Singleton GroupKind = iota
	// Siblings is two or more athletes sharing a group key, billed on one
	// combined invoice.
	Siblings
)

// Group is a derived billing unit. It is recomputed from the athlete
// collection on every render and never persisted. RepresentativeID is the
// first member in input order and doubles as the stable group identity.
type Group struct {
	Kind             GroupKind
	RepresentativeID string
	Label            string
	MemberIDs        []string
}

// ResolveGroups partitions the athletes into billing groups. Athletes
// sharing a group key form one Siblings group; key-less athletes and
// orphaned keys (bucket of one) resolve to Singletons. Output order is
// sibling groups by first key encounter, then singletons in input order,
// so repeated calls over the same roster yield identical results.
func ResolveGroups(athletes []*athlete.Athlete) []Group {
	buckets := make(map[string][]*athlete.Athlete)
	var keyOrder []string

	for _, a := range athletes {
		if a.GroupKey == "" {
			continue
		}
		if _, seen := buckets[a.GroupKey]; !seen {
			keyOrder = append(keyOrder, a.GroupKey)
		}
		buckets[a.GroupKey] = append(buckets[a.GroupKey], a)
	}

	var groups []Group
	for _, key := range keyOrder {
		members := buckets[key]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, Group{
			Kind:             Siblings,
			RepresentativeID: members[0].AthleteID,
			Label: strings.Join(lo.Map(members, func(a *athlete.Athlete, _ int) string {
				return a.Name
			}), " & "),
			MemberIDs: lo.Map(members, func(a *athlete.Athlete, _ int) string {
				return a.AthleteID
			}),
		})
	}

	for _, a := range athletes {
		if a.GroupKey != "" && len(buckets[a.GroupKey]) >= 2 {
			continue
		}
		groups = append(groups, Group{
			Kind:             Singleton,
			RepresentativeID: a.AthleteID,
			Label:            a.Name,
			MemberIDs:        []string{a.AthleteID},
		})
	}

	return groups
}

// FindGroup returns the group identified by its representative athlete id.
func FindGroup(groups []Group, representativeID string) (Group, bool) {
	return lo.Find(groups, func(g Group) bool {
		return g.RepresentativeID == representativeID
	})
}
