package imagehash

import "image"

// ColorHash derives a 64-bit hash from a coarse color histogram: each pixel
// is quantized to two bits per RGB channel (64 buckets total) and bit i of
// the hash is set iff bucket i holds more than its uniform share of pixels.
// Structurally similar but differently colored images land far apart, which
// is exactly what the shape-based hashes cannot tell apart.
func ColorHash(img image.Image) uint64 {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var buckets [64]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; keep the top two bits of each.
			idx := (r>>14)<<4 | (g>>14)<<2 | b>>14
			buckets[idx]++
		}
	}

	threshold := total / 64
	var h uint64
	for i, count := range buckets {
		if count > threshold {
			h |= 1 << uint(i)
		}
	}
	return h
}
