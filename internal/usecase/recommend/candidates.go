package recommend

// Candidates returns the universe minus the items in seen, keeping universe order.
// The result may be empty.
func Candidates(universe []int, seen SeenSet) []int {
	out := make([]int, 0, len(universe))
	for _, id := range universe {
		if seen != nil && seen.HasSeen(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
