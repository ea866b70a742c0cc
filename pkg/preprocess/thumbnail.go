package preprocess

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	thumbnailMaxSize    = 720
	thumbnailQuality    = 75
	thumbnailQualityLow = 60
	thumbnailMaxBytes   = 200 * 1024 // 200KB
)

// GenerateThumbnail produces a JPEG thumbnail for an image file, bounded
// to 720px on the long edge. Oversized output is re-encoded once at a
// lower quality.
func GenerateThumbnail(path string) ([]byte, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	data, err := encodeThumbnail(src, thumbnailQuality)
	if err != nil {
		return nil, err
	}

	if len(data) > thumbnailMaxBytes {
		data, err = encodeThumbnail(src, thumbnailQualityLow)
		if err != nil {
			return nil, err
		}
	}

	return data, nil
}

func encodeThumbnail(src image.Image, quality int) ([]byte, error) {
	thumb := imaging.Fit(src, thumbnailMaxSize, thumbnailMaxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
