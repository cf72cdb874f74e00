package alerts

import "sort"

// Rank orders alerts for display: priority descending, then recency
// descending. The sort is stable so re-ranking an unchanged list never
// reorders equal-key entries.
func Rank(list []Alert) []Alert {
	out := make([]Alert, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].Priority.Weight(), out[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
