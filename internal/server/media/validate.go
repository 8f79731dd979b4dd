package media

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/temten/aexpo/internal/common"
)

// Size thresholds per asset class.
const (
	MaxImageBytes = 10 * 1024 * 1024
	MaxVideoBytes = 50 * 1024 * 1024
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

var allowedVideoTypes = map[string]struct{}{
	"video/mp4":       {},
	"video/quicktime": {},
	"video/webm":      {},
}

func normalizeMimeType(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if separator := strings.Index(normalized, ";"); separator >= 0 {
		normalized = strings.TrimSpace(normalized[:separator])
	}
	return normalized
}

// Accept verifies a raw upload before any persistence or transcoding.
// The declared content type must match the type sniffed from the bytes;
// trusting the client-declared type alone is a known injection vector, so
// the sniffed type is authoritative. Disallowed types and oversize payloads
// are rejected with ErrInvalidAsset.
func Accept(data []byte, declaredMimeType string) (*ValidatedAsset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", common.ErrInvalidAsset)
	}

	declared := normalizeMimeType(declaredMimeType)
	detected := mimetype.Detect(data)

	if !detected.Is(declared) {
		return nil, fmt.Errorf("%w: declared type %s, detected %s",
			common.ErrInvalidAsset, declared, detected.String())
	}

	sniffed := normalizeMimeType(detected.String())

	_, isImage := allowedImageTypes[sniffed]
	_, isVideo := allowedVideoTypes[sniffed]
	if !isImage && !isVideo {
		return nil, fmt.Errorf("%w: unsupported type %s", common.ErrInvalidAsset, sniffed)
	}

	maxSize := MaxVideoBytes
	if isImage {
		maxSize = MaxImageBytes
	}
	if len(data) > maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			common.ErrInvalidAsset, len(data), maxSize)
	}

	return &ValidatedAsset{Data: data, MimeType: sniffed, IsImage: isImage}, nil
}
