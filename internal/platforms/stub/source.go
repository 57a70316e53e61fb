// Package stub provides in-memory platform sources for tests.
package stub

import (
	"context"
	"sync/atomic"
	"time"

	"clawnch-scanner/internal/domain"
)

// Source is a scripted platforms.Source.
type Source struct {
	PlatformID domain.Platform
	Posts      []domain.SocialPost
	Err        error
	Delay      time.Duration // honored with ctx cancellation
	Panic      bool

	calls atomic.Int32
}

// NewSource creates a Source returning posts.
func NewSource(platform domain.Platform, posts ...domain.SocialPost) *Source {
	return &Source{PlatformID: platform, Posts: posts}
}

// Platform returns the configured platform.
func (s *Source) Platform() domain.Platform {
	return s.PlatformID
}

// Fetch returns the scripted posts or error.
func (s *Source) Fetch(ctx context.Context) ([]domain.SocialPost, error) {
	s.calls.Add(1)

	if s.Panic {
		panic("stub source panic")
	}
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]domain.SocialPost, len(s.Posts))
	copy(out, s.Posts)
	return out, nil
}

// Calls returns how many times Fetch was invoked.
func (s *Source) Calls() int {
	return int(s.calls.Load())
}

// Post builds a post for platform with the given id, content and timestamp.
func Post(platform domain.Platform, id, content string, ts time.Time) domain.SocialPost {
	return domain.SocialPost{
		Platform:  platform,
		PostID:    id,
		Author:    "tester",
		Content:   content,
		Timestamp: ts,
		URL:       "https://example.test/" + string(platform) + "/" + id,
	}
}
