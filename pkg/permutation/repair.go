package permutation

// Repair completes a parsed-but-imperfect permutation without re-invoking
// the model.
//
//   - Complete results pass through unchanged.
//   - Partial results with at most threshold missing positions are completed
//     by appending the missing positions after the recognized prefix in
//     ascending order, which preserves their pre-rerank relative order.
//   - Anything else is not repairable here: ok is false and the caller
//     decides between a retry and the identity fallback.
//
// The output is always a bijection over [0, windowSize) when ok is true.
func Repair(res ParseResult, windowSize, threshold int) (perm []int, ok bool) {
	switch res.Status {
	case StatusComplete:
		return res.Positions, true
	case StatusPartial:
		if res.Missing > threshold {
			return nil, false
		}
		seen := make(map[int]bool, len(res.Positions))
		for _, pos := range res.Positions {
			seen[pos] = true
		}
		perm = make([]int, len(res.Positions), windowSize)
		copy(perm, res.Positions)
		for pos := 0; pos < windowSize; pos++ {
			if !seen[pos] {
				perm = append(perm, pos)
			}
		}
		return perm, true
	default:
		return nil, false
	}
}

// Identity returns the identity permutation of size n.
func Identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}
