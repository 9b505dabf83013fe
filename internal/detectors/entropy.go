package detectors

import "math"

// Entropy returns the Shannon entropy of s in bits per character. Terms are
// summed in order of first occurrence so the result is bit-for-bit stable.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	count := map[rune]int{}
	var order []rune
	n := 0
	for _, r := range s {
		if count[r] == 0 {
			order = append(order, r)
		}
		count[r]++
		n++
	}
	H := 0.0
	total := float64(n)
	for _, r := range order {
		p := float64(count[r]) / total
		H += -p * math.Log2(p)
	}
	return H
}
