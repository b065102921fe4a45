// pkg/dedup/dedup.go

// Package dedup picks one survivor per natural key among candidate places.
package dedup

import (
	"sort"

	"github.com/David-Botos/gazetteer/pkg/model"
)

// Result is the outcome of a deduplication pass
type Result struct {
	Places    []*model.CanonicalPlace
	Discarded int
}

// Deduplicate orders candidates by certainty score, highest first with
// absent scores last, and keeps the first candidate per
// (original_source_id, source). Equal scores keep their input order.
// The input slice is not modified.
func Deduplicate(candidates []*model.CanonicalPlace) Result {
	ordered := make([]*model.CanonicalPlace, len(candidates))
	copy(ordered, candidates)

	sort.SliceStable(ordered, func(i, j int) bool {
		return rank(ordered[i]) > rank(ordered[j])
	})

	seen := make(map[model.Key]struct{}, len(ordered))
	survivors := make([]*model.CanonicalPlace, 0, len(ordered))
	for _, place := range ordered {
		key := place.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		survivors = append(survivors, place)
	}

	return Result{
		Places:    survivors,
		Discarded: len(ordered) - len(survivors),
	}
}

// rank maps an absent score below every real score
func rank(p *model.CanonicalPlace) int {
	if p.CertaintyScore == nil {
		return -1
	}
	return *p.CertaintyScore
}
