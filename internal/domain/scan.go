package domain

import "time"

// ScanStatus is the terminal outcome of processing one post.
type ScanStatus string

const (
	ScanStatusLaunched  ScanStatus = "launched"
	ScanStatusDuplicate ScanStatus = "duplicate"
	ScanStatusInvalid   ScanStatus = "invalid"
	ScanStatusError     ScanStatus = "error"
)

// String returns the string representation of ScanStatus.
func (s ScanStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status marks the post as processed.
// Duplicates are skipped without being marked.
func (s ScanStatus) IsTerminal() bool {
	return s == ScanStatusLaunched || s == ScanStatusInvalid || s == ScanStatusError
}

// ScanResult is produced once per processed post and returned to the caller.
type ScanResult struct {
	Platform  Platform   `json:"platform"`
	PostID    string     `json:"postId"`
	Status    ScanStatus `json:"status"`
	TokenMint string     `json:"tokenMint,omitempty"`
	Signature string     `json:"signature,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
