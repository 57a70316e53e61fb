package domain

import "time"

// LaunchRecord is the durable archive row for a confirmed launch.
// Corresponds to the launches table in PostgreSQL.
type LaunchRecord struct {
	TokenMint     string    `json:"tokenMint"`               // PK
	Signature     string    `json:"signature"`               // confirmed creation transaction
	Platform      Platform  `json:"platform"`                // source platform (or manual)
	PostID        string    `json:"postId"`                  // source post id
	PostURL       string    `json:"postUrl,omitempty"`       // empty for manual submissions
	Author        string    `json:"author"`                  // post author
	Name          string    `json:"name"`                    // token name
	Symbol        string    `json:"symbol"`                  // token symbol
	Description   string    `json:"description"`             // token description
	ImageURL      string    `json:"imageUrl"`                // original image URL
	MetadataURI   string    `json:"metadataUri"`             // content URI returned by the metadata store
	CreatorWallet string    `json:"creatorWallet,omitempty"` // optional creator wallet
	LaunchedAt    time.Time `json:"launchedAt"`              // confirmation time
	CreatedAt     time.Time `json:"createdAt"`               // row creation time, set by the store
}
