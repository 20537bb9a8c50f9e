// Package activity implements the append-only activity log and its two
// retention-pruning policies. Candidate selection is pure and separate from
// the deletion commit so the policies can be tested without a store.
package activity

import (
	"time"

	"github.com/google/uuid"

	"leadpilot_backend/internal/leads/repository"
)

// SelectOlderThan returns the activities created before the cutoff.
func SelectOlderThan(activities []repository.Activity, cutoff time.Time) []repository.Activity {
	var candidates []repository.Activity
	for _, a := range activities {
		if a.CreatedAt.Before(cutoff) {
			candidates = append(candidates, a)
		}
	}
	return candidates
}

// SelectBeyondKeepCount returns, for every lead, the activities beyond the
// keepRecent most recent ones. Input must be ordered most-recent-first within
// each lead, which is how the repository returns it.
func SelectBeyondKeepCount(activities []repository.Activity, keepRecent int) []repository.Activity {
	if keepRecent < 0 {
		keepRecent = 0
	}

	perLead := make(map[uuid.UUID]int)
	var candidates []repository.Activity
	for _, a := range activities {
		perLead[a.LeadID]++
		if perLead[a.LeadID] > keepRecent {
			candidates = append(candidates, a)
		}
	}
	return candidates
}

// UnionByID merges candidate sets, deduplicating by activity id. An activity
// that is both too old and beyond the per-lead keep count appears once.
func UnionByID(sets ...[]repository.Activity) []repository.Activity {
	seen := make(map[uuid.UUID]struct{})
	var union []repository.Activity
	for _, set := range sets {
		for _, a := range set {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			union = append(union, a)
		}
	}
	return union
}

func activityIDs(activities []repository.Activity) []uuid.UUID {
	ids := make([]uuid.UUID, len(activities))
	for i, a := range activities {
		ids[i] = a.ID
	}
	return ids
}
