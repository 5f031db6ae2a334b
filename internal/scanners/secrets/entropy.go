package secrets

import "math"

// shannonEntropy measures character diversity in bits per symbol. Real keys
// sit well above prose and identifiers; 3.5 is the gate for the generic
// context-bound rules.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	count := map[rune]int{}
	for _, r := range s {
		count[r]++
	}
	h := 0.0
	n := float64(len(s))
	for _, c := range count {
		p := float64(c) / n
		h += -p * math.Log2(p)
	}
	return h
}

const genericEntropyGate = 3.5
