package kyc

import (
	"math"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

func levenshtein() *metrics.Levenshtein {
	m := metrics.NewLevenshtein()
	m.CaseSensitive = false
	return m
}

// Ratio scores a and b from 0 to 100 by normalized edit distance, ignoring
// case. Empty input scores 0.
func Ratio(a, b string) int {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	return toScore(strutil.Similarity(a, b, levenshtein()))
}

// PartialRatio scores how well the shorter string matches the best aligned
// substring of the longer one, from 0 to 100, ignoring case.
func PartialRatio(a, b string) int {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return Ratio(a, b)
	}

	m := levenshtein()
	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		sim := strutil.Similarity(s, string(long[i:i+len(short)]), m)
		if sim > best {
			best = sim
			if best >= 1 {
				break
			}
		}
	}
	return toScore(best)
}

func toScore(sim float64) int {
	if math.IsNaN(sim) || math.IsInf(sim, 0) || sim <= 0 {
		return 0
	}
	if sim >= 1 {
		return 100
	}
	return int(math.Round(sim * 100))
}
