package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Normalized output for all recompressed images. Bounds storage size and
// drops any embedded metadata, since only pixel data survives re-encoding.
const (
	normalizedMimeType = "image/jpeg"
	jpegQuality        = 80
)

// Transform normalizes a validated asset for storage. Images are decoded,
// downscaled to fit within the category's bounds (never enlarged) and
// re-encoded as JPEG. Video assets pass through unchanged.
func Transform(asset *ValidatedAsset, category Category) (*ProcessedAsset, error) {
	if !asset.IsImage {
		return &ProcessedAsset{Data: asset.Data, MimeType: asset.MimeType}, nil
	}

	data, err := compressImage(asset.Data, category.maxDimension())
	if err != nil {
		return nil, fmt.Errorf("image compression failed: %w", err)
	}

	return &ProcessedAsset{Data: data, MimeType: normalizedMimeType}, nil
}

func compressImage(data []byte, maxDim int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > maxDim || height > maxDim {
		scale := float64(maxDim) / float64(width)
		if height > width {
			scale = float64(maxDim) / float64(height)
		}
		width = int(float64(width) * scale)
		height = int(float64(height) * scale)
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
