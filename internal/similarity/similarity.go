// Package similarity compares fingerprints: Hamming distance, percentage
// similarity, and duplicate-pair discovery over a set of hashed images.
package similarity

import (
	"errors"
	"fmt"
	"math/bits"
	"time"
)

// ErrLengthMismatch reports two hash representations of different lengths.
// This is a programmer error, never a data error: hashes of different
// algorithms or widths must not be compared, silently or otherwise.
var ErrLengthMismatch = errors.New("hash length mismatch")

// HammingString counts differing positions between two equal-length hash
// strings (hex or bit-string form). Returns ErrLengthMismatch when the
// lengths differ.
func HammingString(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	dist := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			dist++
		}
	}
	return dist, nil
}

// Hamming64 counts differing bits between two 64-bit hashes.
func Hamming64(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// PercentString is 100 * (1 - distance/length) over equal-length strings.
// Identical inputs yield exactly 100.
func PercentString(a, b string) (float64, error) {
	if len(a) == 0 && len(b) == 0 {
		return 100, nil
	}
	dist, err := HammingString(a, b)
	if err != nil {
		return 0, err
	}
	return 100 * (1 - float64(dist)/float64(len(a))), nil
}

// Percent64 is 100 * (1 - distance/64) over 64-bit hashes.
func Percent64(a, b uint64) float64 {
	return 100 * (1 - float64(Hamming64(a, b))/64)
}

// HashKind names one of the four perceptual hash algorithms.
type HashKind string

const (
	KindPHash     HashKind = "phash"
	KindDHash     HashKind = "dhash"
	KindAvgHash   HashKind = "avgHash"
	KindColorHash HashKind = "colorHash"
)

// ImageMetadata describes the source of a HashedImage.
type ImageMetadata struct {
	Width         int
	Height        int
	FileSizeBytes int64
	Format        string
	Timestamp     time.Time
}

// HashedImage is the transient comparison unit: all four perceptual hashes of
// one image plus its metadata.
type HashedImage struct {
	ID        string
	PHash     uint64
	DHash     uint64
	AvgHash   uint64
	ColorHash uint64
	Metadata  ImageMetadata
}

// Match is one duplicate pair. Kind and Similarity describe the hash type
// that scored highest between the two images.
type Match struct {
	A          string
	B          string
	Kind       HashKind
	Similarity float64
}

// FindDuplicates pairwise-compares every image against every other and
// returns all pairs whose similarity on any one of the four hash types meets
// or exceeds thresholdPercent. Pairs appear in discovery order: the earlier
// image of the pair is the one considered first.
func FindDuplicates(images []HashedImage, thresholdPercent float64) []Match {
	var matches []Match
	for i := 0; i < len(images); i++ {
		for j := i + 1; j < len(images); j++ {
			kind, sim := bestSimilarity(images[i], images[j])
			if sim >= thresholdPercent {
				matches = append(matches, Match{
					A:          images[i].ID,
					B:          images[j].ID,
					Kind:       kind,
					Similarity: sim,
				})
			}
		}
	}
	return matches
}

// bestSimilarity returns the highest-scoring hash type between two images.
func bestSimilarity(a, b HashedImage) (HashKind, float64) {
	kind := KindPHash
	best := Percent64(a.PHash, b.PHash)
	for _, c := range []struct {
		kind HashKind
		sim  float64
	}{
		{KindDHash, Percent64(a.DHash, b.DHash)},
		{KindAvgHash, Percent64(a.AvgHash, b.AvgHash)},
		{KindColorHash, Percent64(a.ColorHash, b.ColorHash)},
	} {
		if c.sim > best {
			kind, best = c.kind, c.sim
		}
	}
	return kind, best
}
