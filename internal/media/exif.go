package media

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// captureTime extracts the original capture timestamp from image EXIF data.
// Best effort: screenshots and stripped images simply have none.
func captureTime(data []byte) *time.Time {
	parsed, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	taken, err := parsed.DateTime()
	if err != nil {
		return nil
	}
	return &taken
}
