package domain

import "time"

// SocialPost is a post normalized from any platform adapter.
// Posts are immutable once fetched and never persisted; only their
// (Platform, PostID) identity is stored by the dedup store.
type SocialPost struct {
	Platform  Platform  `json:"platform"`
	PostID    string    `json:"postId"`             // unique per platform
	Author    string    `json:"author"`             // display name or handle
	Content   string    `json:"content"`            // raw text, may carry the trigger
	ImageURL  string    `json:"imageUrl,omitempty"` // attached media, informational only
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
}

// Key returns the dedup identity of the post.
func (p SocialPost) Key() PostKey {
	return PostKey{Platform: p.Platform, PostID: p.PostID}
}

// PostKey is the (platform, postId) identity used for deduplication.
type PostKey struct {
	Platform Platform
	PostID   string
}

// String formats the key as "<platform>:<postId>".
func (k PostKey) String() string {
	return string(k.Platform) + ":" + k.PostID
}
