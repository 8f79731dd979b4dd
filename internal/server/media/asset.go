// Package media implements the asset lifecycle shared by user avatars and
// post media: validation of raw uploads against their declared type,
// normalization of images, and storage through exactly one of three
// interchangeable backends (inline row bytes, S3-compatible object storage,
// local filesystem).
//
// An asset slot moves Empty -> Live on first store, stays Live on replace
// (the previous object is deleted best-effort), and returns to Empty on
// release. Uploads are atomic from the caller's perspective; no partial
// state is modeled.
package media

// Category is the logical slot an asset belongs to. It doubles as the
// storage folder for backends that have one.
type Category string

const (
	CategoryAvatar Category = "avatars"
	CategoryPost   Category = "posts"
)

// maxDimension bounds the longer side of normalized images per category.
func (c Category) maxDimension() int {
	if c == CategoryAvatar {
		return 800
	}
	return 1200
}

// ValidatedAsset is a raw upload that passed type and size validation.
type ValidatedAsset struct {
	Data     []byte
	MimeType string
	IsImage  bool
}

// ProcessedAsset is a validated asset after normalization, ready to be
// handed to a storage backend.
type ProcessedAsset struct {
	Data     []byte
	MimeType string
}
