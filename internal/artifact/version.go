package artifact

import "sort"

// ResolveVersion computes the version of target as its 1-indexed rank by
// CreatedAt among all artifacts in the conversation sharing its normalized
// title. Ties on CreatedAt fall back to ID lexicographic order so the rank
// is total and deterministic.
//
// The version is recomputed from the live population, never stamped:
// inserting or deleting an older same-title sibling shifts the versions of
// artifacts created later. Version reflects relative recency within the
// title group.
//
// Returns 0 if target is not present in population (by ID).
func ResolveVersion(target *Artifact, population []*Artifact) int {
	key := NormalizeTitle(target.Title)

	group := make([]*Artifact, 0, len(population))
	seen := false
	for _, a := range population {
		if NormalizeTitle(a.Title) != key {
			continue
		}
		group = append(group, a)
		if a.ID == target.ID {
			seen = true
		}
	}
	if !seen {
		return 0
	}

	sort.Slice(group, func(i, j int) bool {
		if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		}
		return group[i].ID.String() < group[j].ID.String()
	})

	for i, a := range group {
		if a.ID == target.ID {
			return i + 1
		}
	}
	return 0
}

// ResolveVersions recomputes and assigns Version for every artifact in the
// population in place. Used after inserts or deletes change a title group.
func ResolveVersions(population []*Artifact) {
	for _, a := range population {
		a.Version = ResolveVersion(a, population)
	}
}
