// Package scanner runs one pass of the fetch, dedup, parse, claim and launch
// pipeline over all platforms.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/observability"
	"clawnch-scanner/internal/parser"
	"clawnch-scanner/internal/platforms"
	"clawnch-scanner/internal/solana"
	"clawnch-scanner/internal/storage"
)

// DefaultMaxLaunches caps launches per run.
const DefaultMaxLaunches = 3

// previewRunes bounds the first-post preview in debug output.
const previewRunes = 200

// persistTimeout bounds the bookkeeping writes that must land even when the
// run context is cancelled or past its deadline.
const persistTimeout = 10 * time.Second

// PostFetcher returns recent posts from every platform.
type PostFetcher interface {
	Fetch(ctx context.Context) *platforms.FetchReport
}

// Launcher launches one parsed request. It reports failures in the result.
type Launcher interface {
	Launch(ctx context.Context, req *domain.ParsedTokenRequest, signer solana.Signer) domain.ScanResult
}

// Options configures a Runner.
type Options struct {
	Fetcher  PostFetcher
	Dedup    storage.DedupStore
	Activity storage.ActivityLog
	Launcher Launcher
	Signer   solana.Signer

	// Outcomes is optional; every emitted result is appended to it.
	Outcomes storage.OutcomeStore

	MaxLaunches int // defaults to DefaultMaxLaunches
	Logger      *zap.Logger
	Now         func() time.Time
	NewRunID    func() string
}

// Runner executes scan passes. A Runner holds no per-run state and may be
// shared; concurrent passes are serialized only by the dedup claim.
type Runner struct {
	fetcher     PostFetcher
	dedup       storage.DedupStore
	activity    storage.ActivityLog
	launcher    Launcher
	signer      solana.Signer
	outcomes    storage.OutcomeStore
	maxLaunches int
	log         *zap.Logger
	now         func() time.Time
	newRunID    func() string
}

// New creates a Runner.
func New(opts Options) *Runner {
	r := &Runner{
		fetcher:     opts.Fetcher,
		dedup:       opts.Dedup,
		activity:    opts.Activity,
		launcher:    opts.Launcher,
		signer:      opts.Signer,
		outcomes:    opts.Outcomes,
		maxLaunches: opts.MaxLaunches,
		log:         opts.Logger,
		now:         opts.Now,
		newRunID:    opts.NewRunID,
	}
	if r.maxLaunches <= 0 {
		r.maxLaunches = DefaultMaxLaunches
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newRunID == nil {
		r.newRunID = uuid.NewString
	}
	return r
}

// RunOptions controls a single pass.
type RunOptions struct {
	Debug bool
}

// Report is the outcome of one pass.
type Report struct {
	RunID          string              `json:"runId"`
	Results        []domain.ScanResult `json:"results"`
	PostsScanned   int                 `json:"postsScanned"`
	TokensLaunched int                 `json:"tokensLaunched"`
	Errors         []string            `json:"errors,omitempty"`
	StartedAt      time.Time           `json:"startedAt"`
	FinishedAt     time.Time           `json:"finishedAt"`
	Debug          *DebugInfo          `json:"debug,omitempty"`
}

// DebugInfo carries diagnostics requested with RunOptions.Debug.
type DebugInfo struct {
	TotalPosts  int               `json:"totalPosts"`
	Platforms   map[string]int    `json:"platforms"`
	FirstPost   *PostPreview      `json:"firstPost"`
	FetchErrors map[string]string `json:"fetchErrors,omitempty"`
	Error       string            `json:"error,omitempty"`
	Errors      []string          `json:"errors"`
}

// PostPreview identifies the newest fetched post.
type PostPreview struct {
	Platform       domain.Platform `json:"platform"`
	PostID         string          `json:"postId"`
	ContentPreview string          `json:"contentPreview"`
}

// Run performs one pass. It never fails: systemic errors are reported in
// Report.Errors and the last-run time is always recorded.
func (r *Runner) Run(ctx context.Context, opts RunOptions) *Report {
	report := &Report{
		RunID:     r.newRunID(),
		Results:   []domain.ScanResult{},
		StartedAt: r.now().UTC(),
	}
	if opts.Debug {
		report.Debug = &DebugInfo{Platforms: map[string]int{}, Errors: []string{}}
	}

	log := r.log.With(zap.String("run_id", report.RunID))
	log.Info("scan started")
	observability.SetScanInProgress(true)

	defer func() {
		report.FinishedAt = r.now().UTC()
		report.PostsScanned = len(report.Results)

		pctx, cancel := persistContext(ctx)
		defer cancel()

		if err := r.activity.SetLastRun(pctx, report.FinishedAt); err != nil {
			log.Error("record last run failed", zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("set last run: %v", err))
		}
		r.recordOutcomes(pctx, report, log)

		if report.Debug != nil {
			report.Debug.Errors = append(report.Debug.Errors, report.Errors...)
		}

		status := "success"
		if len(report.Errors) > 0 {
			status = "partial"
		}
		elapsed := report.FinishedAt.Sub(report.StartedAt)
		observability.RecordScanRun(status, elapsed.Seconds(), report.PostsScanned)
		observability.UpdateLastScan(report.FinishedAt.Unix())
		observability.SetScanInProgress(false)

		log.Info("scan finished",
			zap.Int("results", report.PostsScanned),
			zap.Int("launched", report.TokensLaunched),
			zap.Int("errors", len(report.Errors)),
			zap.Duration("elapsed", elapsed))
	}()

	posts, err := r.fetch(ctx, report)
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		report.Errors = append(report.Errors, err.Error())
		if report.Debug != nil {
			report.Debug.Error = err.Error()
		}
		return report
	}

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			r.interrupted(err, report, log)
			break
		}
		result, stop := r.processPost(ctx, post, report, log)
		if stop {
			if err := ctx.Err(); err != nil {
				r.interrupted(err, report, log)
			} else {
				log.Info("launch cap reached", zap.Int("cap", r.maxLaunches))
			}
			break
		}
		if result == nil {
			continue
		}

		report.Results = append(report.Results, *result)
		observability.RecordScanResult(string(result.Platform), string(result.Status))
	}

	return report
}

// interrupted records a pass cut short by its context. Unvisited posts stay
// unmarked for the next run.
func (r *Runner) interrupted(err error, report *Report, log *zap.Logger) {
	log.Warn("scan interrupted", zap.Error(err))
	report.Errors = append(report.Errors, fmt.Sprintf("scan interrupted: %v", err))
}

// persistContext detaches from ctx so that post-launch bookkeeping survives
// cancellation of the run.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

// fetch collects posts, converting a panic in the fetch stage into an error.
func (r *Runner) fetch(ctx context.Context, report *Report) (posts []domain.SocialPost, err error) {
	defer func() {
		if p := recover(); p != nil {
			posts, err = nil, fmt.Errorf("fetch panic: %v", p)
		}
	}()

	fetched := r.fetcher.Fetch(ctx)
	if fetched == nil {
		return nil, errors.New("fetch returned no report")
	}

	if d := report.Debug; d != nil {
		d.TotalPosts = len(fetched.Posts)
		for platform, n := range fetched.Counts {
			d.Platforms[string(platform)] = n
		}
		if len(fetched.Failures) > 0 {
			d.FetchErrors = make(map[string]string, len(fetched.Failures))
			for platform, ferr := range fetched.Failures {
				d.FetchErrors[string(platform)] = ferr.Error()
			}
		}
		if len(fetched.Posts) > 0 {
			first := fetched.Posts[0]
			d.FirstPost = &PostPreview{
				Platform:       first.Platform,
				PostID:         first.PostID,
				ContentPreview: preview(first.Content, previewRunes),
			}
		}
	}
	return fetched.Posts, nil
}

// processPost runs the per-post state machine. A nil result means the post
// was skipped silently; stop ends the pass.
func (r *Runner) processPost(ctx context.Context, post domain.SocialPost, report *Report, log *zap.Logger) (result *domain.ScanResult, stop bool) {
	log = log.With(zap.String("platform", string(post.Platform)), zap.String("post_id", post.PostID))

	defer func() {
		if p := recover(); p != nil {
			result = r.failPost(ctx, post, fmt.Errorf("panic: %v", p), report, log)
			stop = false
		}
	}()

	processed, err := r.dedup.IsProcessed(ctx, post.Platform, post.PostID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true
		}
		return r.failPost(ctx, post, fmt.Errorf("check processed: %w", err), report, log), false
	}
	if processed {
		return nil, false
	}

	req := parser.Parse(post)
	if req == nil {
		if err := r.dedup.MarkProcessed(ctx, post.Platform, post.PostID, storage.ProcessedTTL); err != nil {
			if ctx.Err() != nil {
				return nil, true
			}
			return r.failPost(ctx, post, fmt.Errorf("mark processed: %w", err), report, log), false
		}
		log.Debug("post rejected by parser")
		return &domain.ScanResult{
			Platform:  post.Platform,
			PostID:    post.PostID,
			Status:    domain.ScanStatusInvalid,
			Timestamp: r.now().UTC(),
		}, false
	}

	// Remaining launchable posts stay unmarked for the next run.
	if report.TokensLaunched >= r.maxLaunches {
		return nil, true
	}

	claimed, err := r.dedup.Claim(ctx, post.Platform, post.PostID, storage.ClaimTTL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true
		}
		return r.failPost(ctx, post, fmt.Errorf("claim post: %w", err), report, log), false
	}
	if !claimed {
		log.Info("post claimed by another run")
		return &domain.ScanResult{
			Platform:  post.Platform,
			PostID:    post.PostID,
			Status:    domain.ScanStatusDuplicate,
			Timestamp: r.now().UTC(),
		}, false
	}

	launched := r.launcher.Launch(ctx, req, r.signer)

	// A launch may have reached the chain even when ctx expired mid-confirm.
	pctx, cancel := persistContext(ctx)
	defer cancel()

	if err := r.dedup.MarkProcessed(pctx, post.Platform, post.PostID, storage.ProcessedTTL); err != nil {
		// The claim lease still protects the post for ClaimTTL.
		log.Error("mark processed after launch failed", zap.Error(err))
		report.Errors = append(report.Errors, fmt.Sprintf("%s: mark processed: %v", post.Key(), err))
	}

	if launched.Status != domain.ScanStatusLaunched {
		log.Warn("launch failed", zap.String("error", launched.Error))
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", post.Key(), launched.Error))
		return &launched, false
	}

	report.TokensLaunched++
	if err := r.activity.Append(pctx, domain.NewActivityEntry(req, launched)); err != nil {
		log.Error("append activity failed", zap.Error(err))
		report.Errors = append(report.Errors, fmt.Sprintf("%s: append activity: %v", post.Key(), err))
	}
	log.Info("token launched", zap.String("mint", launched.TokenMint))
	return &launched, false
}

// failPost records an error result and best-effort marks the post processed
// so that it is not retried forever.
func (r *Runner) failPost(ctx context.Context, post domain.SocialPost, err error, report *Report, log *zap.Logger) *domain.ScanResult {
	log.Error("post processing failed", zap.Error(err))
	report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", post.Key(), err))

	pctx, cancel := persistContext(ctx)
	defer cancel()

	if markErr := r.markQuietly(pctx, post); markErr != nil {
		log.Warn("best-effort mark processed failed", zap.Error(markErr))
	}

	return &domain.ScanResult{
		Platform:  post.Platform,
		PostID:    post.PostID,
		Status:    domain.ScanStatusError,
		Error:     err.Error(),
		Timestamp: r.now().UTC(),
	}
}

func (r *Runner) markQuietly(ctx context.Context, post domain.SocialPost) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.dedup.MarkProcessed(ctx, post.Platform, post.PostID, storage.ProcessedTTL)
}

func (r *Runner) recordOutcomes(ctx context.Context, report *Report, log *zap.Logger) {
	if r.outcomes == nil || len(report.Results) == 0 {
		return
	}
	if err := r.outcomes.InsertBulk(ctx, report.RunID, report.Results); err != nil {
		log.Warn("record scan outcomes failed", zap.Error(err))
	}
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
