package models

// AssetKind tags which representation of a stored media asset is live.
// A record carries at most one live representation at a time.
type AssetKind string

const (
	// AssetNone means the slot is empty.
	AssetNone AssetKind = ""
	// AssetInline means the bytes live in the owning database row.
	AssetInline AssetKind = "inline"
	// AssetURL means the asset lives in object storage behind a public URL.
	AssetURL AssetKind = "url"
	// AssetPath means the asset lives on local disk behind a served path.
	AssetPath AssetKind = "path"
)

// AssetRef is a tagged reference to the single current binary asset of an
// owning record (user avatar or post media). Exactly one representation is
// populated according to Kind; the other fields stay zero.
type AssetRef struct {
	Kind     AssetKind
	MimeType string
	Data     []byte // inline kind only
	URL      string // url and path kinds
}

// IsZero reports whether the slot is empty.
func (r AssetRef) IsZero() bool {
	return r.Kind == AssetNone
}
