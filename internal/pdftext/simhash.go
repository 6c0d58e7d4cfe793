// Package pdftext derives the text fingerprint of a PDF: plain text and page
// count via extraction, then a 64-bit shingled SimHash robust to trivial
// edits.
package pdftext

import (
	"hash/fnv"
	"strings"
)

// DefaultShingleSize is the default k for k-character shingles.
const DefaultShingleSize = 5

// Shingles splits text into overlapping k-character substrings and returns
// their frequency map. Texts shorter than k yield a single shingle of the
// whole text. Shingling is rune-based so multi-byte text does not split
// mid-character.
func Shingles(text string, k int) map[string]int {
	if k <= 0 {
		k = DefaultShingleSize
	}
	counts := make(map[string]int)
	runes := []rune(text)
	if len(runes) == 0 {
		return counts
	}
	if len(runes) <= k {
		counts[string(runes)]++
		return counts
	}
	for i := 0; i+k <= len(runes); i++ {
		counts[string(runes[i:i+k])]++
	}
	return counts
}

// SimHash folds a weighted shingle set into a 64-bit locality-sensitive
// hash: for each bit position the shingle counts vote with the sign of that
// shingle's FNV-1a hash bit, and the output bit is set iff the sum is
// positive.
func SimHash(shingles map[string]int) uint64 {
	var sums [64]int64
	for shingle, count := range shingles {
		h := fnv.New64a()
		h.Write([]byte(shingle))
		bits := h.Sum64()
		for i := 0; i < 64; i++ {
			if bits&(1<<uint(i)) != 0 {
				sums[i] += int64(count)
			} else {
				sums[i] -= int64(count)
			}
		}
	}

	var out uint64
	for i := 0; i < 64; i++ {
		if sums[i] > 0 {
			out |= 1 << uint(i)
		}
	}
	return out
}

// SimHashText computes the document SimHash over k-character shingles.
// ok is false when the text is empty after trimming; the document then has
// no text fingerprint.
func SimHashText(text string, k int) (hash uint64, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}
	return SimHash(Shingles(trimmed, k)), true
}
