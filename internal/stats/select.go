// internal/stats/select.go
package stats

import (
	"slices"

	"portfolio-stats/internal/model"
)

// DefaultFeaturedLimit bounds the featured selection.
const DefaultFeaturedLimit = 6

// SelectFeatured returns at most limit repositories: those named in priority,
// in the order priority lists them, followed by the remaining repositories by
// descending star count. Ties keep their input order. Priority names missing
// from repos are skipped, as are repeated names. repos is not modified.
func SelectFeatured(repos []model.Repository, priority []string, limit int) []model.Repository {
	if limit <= 0 {
		return []model.Repository{}
	}

	rank := make(map[string]int, len(priority))
	for i, name := range priority {
		if _, dup := rank[name]; !dup {
			rank[name] = i
		}
	}

	byName := make(map[string]model.Repository)
	seen := make(map[string]bool, len(repos))
	others := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		if _, ok := rank[r.Name]; ok {
			byName[r.Name] = r
			continue
		}
		others = append(others, r)
	}

	out := make([]model.Repository, 0, min(limit, len(repos)))
	for i, name := range priority {
		r, ok := byName[name]
		if !ok || rank[name] != i {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(others, func(a, b model.Repository) int {
		return b.Stars - a.Stars
	})
	out = append(out, others...)

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FilterPublic keeps the public repositories, dropping forks unless includeForks is set.
func FilterPublic(repos []model.Repository, includeForks bool) []model.Repository {
	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if !r.IsPublic() {
			continue
		}
		if r.Fork && !includeForks {
			continue
		}
		out = append(out, r)
	}
	return out
}
