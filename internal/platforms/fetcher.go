package platforms

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/observability"
)

// FetchReport is the merged outcome of one fetch across all sources.
type FetchReport struct {
	// Posts holds every fetched post, newest first.
	Posts []domain.SocialPost

	// Counts is the number of posts returned per platform.
	Counts map[domain.Platform]int

	// Failures holds the error of each source that returned nothing because
	// it failed.
	Failures map[domain.Platform]error
}

// Fetcher queries every source concurrently and merges the results.
// A failing source contributes nothing; it never fails the whole fetch.
type Fetcher struct {
	sources []Source
	log     *zap.Logger
}

// NewFetcher creates a Fetcher over sources.
func NewFetcher(log *zap.Logger, sources ...Source) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{sources: sources, log: log}
}

// FetchAll returns the union of all sources' posts, newest first.
func (f *Fetcher) FetchAll(ctx context.Context) []domain.SocialPost {
	return f.Fetch(ctx).Posts
}

// Fetch runs every source and reports posts together with per-source failures.
func (f *Fetcher) Fetch(ctx context.Context) *FetchReport {
	type outcome struct {
		posts []domain.SocialPost
		err   error
	}
	outcomes := make([]outcome, len(f.sources))

	var g errgroup.Group
	for i, src := range f.sources {
		g.Go(func() error {
			posts, err := f.fetchOne(ctx, src)
			outcomes[i] = outcome{posts: posts, err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := &FetchReport{
		Counts:   make(map[domain.Platform]int, len(f.sources)),
		Failures: make(map[domain.Platform]error),
	}
	for i, src := range f.sources {
		platform := src.Platform()
		if err := outcomes[i].err; err != nil {
			report.Failures[platform] = err
			continue
		}
		report.Counts[platform] += len(outcomes[i].posts)
		report.Posts = append(report.Posts, outcomes[i].posts...)
	}

	SortByRecency(report.Posts)
	return report
}

// fetchOne runs a single source, converting panics into errors.
func (f *Fetcher) fetchOne(ctx context.Context, src Source) (posts []domain.SocialPost, err error) {
	platform := src.Platform()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			posts, err = nil, fmt.Errorf("panic: %v", r)
		}
		observability.RecordFetch(string(platform), time.Since(start).Seconds(), len(posts), err)
		if err != nil {
			f.log.Warn("platform fetch failed",
				zap.String("platform", string(platform)),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return
		}
		f.log.Debug("platform fetched",
			zap.String("platform", string(platform)),
			zap.Int("posts", len(posts)),
			zap.Duration("elapsed", time.Since(start)))
	}()

	return src.Fetch(ctx)
}

// SortByRecency orders posts newest first. Ties are broken by platform then
// post id so that the order is deterministic.
func SortByRecency(posts []domain.SocialPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.PostID < b.PostID
	})
}
