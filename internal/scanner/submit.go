package scanner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/observability"
	"clawnch-scanner/internal/storage"
)

// ErrAlreadyProcessed is returned by Submit for a post id that was already
// handled or is being launched by another invocation.
var ErrAlreadyProcessed = errors.New("post already processed")

// SubmitOptions describes a manual submission.
type SubmitOptions struct {
	// ExplicitID is true when the caller supplied the post id, enabling the
	// duplicate check. Generated ids are unique and skip it.
	ExplicitID bool
}

// Submit launches a manually submitted request. On success the post is
// marked processed and recorded in the activity log; a failed launch is
// returned as a result with status error, leaves the post unmarked and
// releases its claim.
func (r *Runner) Submit(ctx context.Context, req *domain.ParsedTokenRequest, opts SubmitOptions) (domain.ScanResult, error) {
	post := req.SourcePost
	log := r.log.With(zap.String("platform", string(post.Platform)), zap.String("post_id", post.PostID))

	if opts.ExplicitID {
		processed, err := r.dedup.IsProcessed(ctx, post.Platform, post.PostID)
		if err != nil {
			return domain.ScanResult{}, fmt.Errorf("check processed: %w", err)
		}
		if processed {
			return domain.ScanResult{}, ErrAlreadyProcessed
		}

		claimed, err := r.dedup.Claim(ctx, post.Platform, post.PostID, storage.ClaimTTL)
		if err != nil {
			return domain.ScanResult{}, fmt.Errorf("claim post: %w", err)
		}
		if !claimed {
			return domain.ScanResult{}, ErrAlreadyProcessed
		}
	}

	result := r.launcher.Launch(ctx, req, r.signer)
	observability.RecordScanResult(string(post.Platform), string(result.Status))

	pctx, cancel := persistContext(ctx)
	defer cancel()

	r.recordOutcomes(pctx, &Report{RunID: "submit-" + r.newRunID(), Results: []domain.ScanResult{result}}, log)

	if result.Status != domain.ScanStatusLaunched {
		log.Warn("manual launch failed", zap.String("error", result.Error))
		if opts.ExplicitID {
			// The post stays unmarked, so a retry must be able to claim it.
			if err := r.dedup.Release(pctx, post.Platform, post.PostID); err != nil {
				log.Warn("release claim failed", zap.Error(err))
			}
		}
		return result, nil
	}

	if err := r.dedup.MarkProcessed(pctx, post.Platform, post.PostID, storage.ProcessedTTL); err != nil {
		log.Error("mark processed failed", zap.Error(err))
	}
	if err := r.activity.Append(pctx, domain.NewActivityEntry(req, result)); err != nil {
		log.Error("append activity failed", zap.Error(err))
	}
	log.Info("manual token launched", zap.String("mint", result.TokenMint))
	return result, nil
}
