package dedup

// Jaccard computes intersection-over-union of two keyword sets. The inputs
// are treated as sets; repeated tokens count once. Either side empty scores
// 0 (there is nothing to assess, not a division-by-zero). The function is
// pure, deterministic, and commutative.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, k := range a {
		setA[k] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, k := range b {
		setB[k] = struct{}{}
	}

	intersection := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
