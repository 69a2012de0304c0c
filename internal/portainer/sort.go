package portainer

import (
	"cmp"
	"slices"
)

// Collections are always presented in the same order, live or cached: by
// display name, ties broken by ID, so refreshed and cache-primed views stay
// visually stable.

// SortEndpoints sorts endpoints by name, then ID.
func SortEndpoints(endpoints []Endpoint) {
	slices.SortFunc(endpoints, func(a, b Endpoint) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortContainers sorts containers by display name, then ID.
func SortContainers(containers []Container) {
	slices.SortFunc(containers, func(a, b Container) int {
		if c := cmp.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortStacks sorts stacks by name, then ID.
func SortStacks(stacks []Stack) {
	slices.SortFunc(stacks, func(a, b Stack) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
