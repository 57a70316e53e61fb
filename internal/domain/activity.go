package domain

import "time"

// ActivityEntry records a successful launch in the activity log.
type ActivityEntry struct {
	Platform    Platform  `json:"platform"`
	PostID      string    `json:"postId"`
	PostURL     string    `json:"postUrl"`
	Author      string    `json:"author"`
	TokenName   string    `json:"tokenName"`
	TokenSymbol string    `json:"tokenSymbol"`
	TokenMint   string    `json:"tokenMint"`
	Signature   string    `json:"signature"`
	LaunchedAt  time.Time `json:"launchedAt"`
}

// NewActivityEntry builds the activity entry for a launched request.
func NewActivityEntry(req *ParsedTokenRequest, result ScanResult) ActivityEntry {
	post := req.SourcePost
	return ActivityEntry{
		Platform:    post.Platform,
		PostID:      post.PostID,
		PostURL:     post.URL,
		Author:      post.Author,
		TokenName:   req.Name,
		TokenSymbol: req.Symbol,
		TokenMint:   result.TokenMint,
		Signature:   result.Signature,
		LaunchedAt:  result.Timestamp,
	}
}
