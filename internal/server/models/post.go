package models

import "time"

// PostPrivacy is the audience of a post.
type PostPrivacy string

const (
	PrivacyPublic  PostPrivacy = "public"
	PrivacyFriends PostPrivacy = "friends"
	PrivacyPrivate PostPrivacy = "private"
)

// Valid reports whether p is one of the known privacy values.
func (p PostPrivacy) Valid() bool {
	switch p {
	case PrivacyPublic, PrivacyFriends, PrivacyPrivate:
		return true
	}
	return false
}

// Post is a user-authored content item with an optional single media asset.
// UserID is immutable after creation; only the owner may mutate or delete
// the post.
type Post struct {
	ID        int64
	UserID    int64
	Text      string
	Hashtags  []string
	Privacy   PostPrivacy
	Media     AssetRef
	CreatedAt time.Time
	UpdatedAt time.Time
}
