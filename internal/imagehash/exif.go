package imagehash

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifDatetime returns the capture timestamp embedded in the image at path,
// or nil when the file carries no usable EXIF data. Failures here are never
// errors: most PNGs and many JPEGs simply have no EXIF block.
func ExifDatetime(path string) *time.Time {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil
	}
	ts, err := x.DateTime()
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}
