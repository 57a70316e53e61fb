package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/observability"
	"clawnch-scanner/internal/parser"
	"clawnch-scanner/internal/scanner"
	"clawnch-scanner/internal/storage"
)

const lamportsPerSOL = 1_000_000_000

// outcomeWindow is the lookback for outcome counts in /stats.
const outcomeWindow = 24 * time.Hour

// detached returns a context that survives client disconnects but is still
// bounded by timeout.
func detached(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), timeout)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleScan(c *gin.Context) {
	ctx, cancel := detached(c, ScanTimeout)
	defer cancel()

	report := s.scanner.Run(ctx, scanner.RunOptions{Debug: c.Query("debug") == "1"})

	body := gin.H{
		"success":        true,
		"runId":          report.RunID,
		"results":        report.Results,
		"postsScanned":   report.PostsScanned,
		"tokensLaunched": report.TokensLaunched,
	}
	if report.Debug != nil {
		body["debug"] = report.Debug
	}
	c.JSON(http.StatusOK, body)
}

type launchRequest struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Twitter     string `json:"twitter"`
	Website     string `json:"website"`
}

type launchResponse struct {
	TokenMint  string `json:"tokenMint"`
	Signature  string `json:"signature"`
	PumpFunURL string `json:"pumpFunUrl"`
}

func (s *Server) handleLaunch(c *gin.Context) {
	var body launchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, err := parser.FromManual(parser.ManualInput{
		Name:        body.Name,
		Symbol:      body.Symbol,
		Description: body.Description,
		ImageURL:    body.ImageURL,
		Website:     body.Website,
		Twitter:     body.Twitter,
		SourcePost:  s.manualPost(domain.PlatformManual, "api-"+uuid.NewString()),
	})
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := detached(c, LaunchTimeout)
	defer cancel()

	outcome, err := s.launcher.LaunchDirect(ctx, req, s.signer)
	if err != nil {
		s.log.Error("direct launch failed", zap.String("symbol", req.Symbol), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	ok(c, http.StatusOK, launchResponse{
		TokenMint:  outcome.TokenMint,
		Signature:  outcome.Signature,
		PumpFunURL: outcome.PumpFunURL(),
	})
}

type submitRequest struct {
	Platform    string `json:"platform"`
	PostID      string `json:"postId"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Wallet      string `json:"wallet"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Website     string `json:"website"`
	Twitter     string `json:"twitter"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	platform := domain.PlatformManual
	if p := strings.TrimSpace(body.Platform); p != "" {
		platform = domain.Platform(p)
		if !platform.IsValid() {
			fail(c, http.StatusBadRequest, fmt.Sprintf("platform: unknown value %q", p))
			return
		}
	}

	postID := strings.TrimSpace(body.PostID)
	explicit := postID != ""
	if !explicit {
		postID = "manual-" + uuid.NewString()
	}

	req, err := parser.FromManual(parser.ManualInput{
		Name:        body.Name,
		Symbol:      body.Symbol,
		Description: body.Description,
		ImageURL:    body.ImageURL,
		Website:     body.Website,
		Twitter:     body.Twitter,
		Wallet:      body.Wallet,
		SourcePost:  s.manualPost(platform, postID),
	})
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := detached(c, LaunchTimeout)
	defer cancel()

	result, err := s.scanner.Submit(ctx, req, scanner.SubmitOptions{ExplicitID: explicit})
	switch {
	case errors.Is(err, scanner.ErrAlreadyProcessed):
		fail(c, http.StatusConflict, "post already processed")
		return
	case err != nil:
		s.log.Error("submit failed", zap.String("post_id", postID), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, envelope{
		Success: result.Status == domain.ScanStatusLaunched,
		Data:    result,
	})
}

func (s *Server) manualPost(platform domain.Platform, postID string) domain.SocialPost {
	return domain.SocialPost{
		Platform:  platform,
		PostID:    postID,
		Author:    "manual",
		Timestamp: s.now().UTC(),
	}
}

type activityResponse struct {
	Activity []domain.ActivityEntry `json:"activity"`
	LastRun  *time.Time             `json:"lastRun"`
}

func (s *Server) handleActivity(c *gin.Context) {
	limit := storage.ClampActivityLimit(queryInt(c, "limit"))
	ctx := c.Request.Context()

	entries, err := s.activity.Recent(ctx, limit)
	if err != nil {
		s.log.Error("read activity failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to fetch activity")
		return
	}
	lastRun, err := s.activity.LastRun(ctx)
	if err != nil {
		s.log.Error("read last run failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to fetch activity")
		return
	}

	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	ok(c, http.StatusOK, activityResponse{Activity: entries, LastRun: lastRun})
}

type statsResponse struct {
	Wallet          string                       `json:"wallet"`
	BalanceLamports string                       `json:"balanceLamports"`
	BalanceSOL      string                       `json:"balanceSOL"`
	TokensLaunched  int64                        `json:"tokensLaunched"`
	Outcomes        map[domain.ScanStatus]uint64 `json:"outcomes,omitempty"`
}

func (s *Server) handleStats(c *gin.Context) {
	if s.signer == nil {
		fail(c, http.StatusInternalServerError, "platform wallet not configured")
		return
	}
	ctx := c.Request.Context()
	wallet := s.signer.PublicKey().String()

	// Balance and registry failures degrade to zero.
	var lamports uint64
	if s.balance != nil {
		if bal, err := s.balance.GetBalance(ctx, wallet); err != nil {
			s.log.Warn("read wallet balance failed", zap.Error(err))
		} else {
			lamports = bal
			observability.UpdateWalletBalance(bal)
		}
	}

	var launched int64
	if n, err := s.registry.Count(ctx); err != nil {
		s.log.Warn("count launched tokens failed", zap.Error(err))
	} else {
		launched = n
	}

	resp := statsResponse{
		Wallet:          wallet,
		BalanceLamports: strconv.FormatUint(lamports, 10),
		BalanceSOL:      fmt.Sprintf("%.6f", float64(lamports)/lamportsPerSOL),
		TokensLaunched:  launched,
	}

	if s.outcomes != nil {
		counts, err := s.outcomes.CountByStatus(ctx, s.now().Add(-outcomeWindow))
		if err != nil {
			s.log.Warn("count scan outcomes failed", zap.Error(err))
		} else {
			resp.Outcomes = counts
		}
	}

	ok(c, http.StatusOK, resp)
}

func (s *Server) handleListLaunches(c *gin.Context) {
	if s.archive == nil {
		fail(c, http.StatusServiceUnavailable, "launch archive not configured")
		return
	}
	ctx := c.Request.Context()

	limit := storage.ClampActivityLimit(queryInt(c, "limit"))
	records, err := s.archive.ListRecent(ctx, limit)
	if err != nil {
		s.log.Error("list launches failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to list launches")
		return
	}

	// ?registered=1 keeps only mints in the platform token set. An
	// unreadable registry yields an empty list, never the unfiltered one.
	if c.Query("registered") == "1" {
		records = s.registeredOnly(ctx, records)
	}
	if records == nil {
		records = []*domain.LaunchRecord{}
	}
	ok(c, http.StatusOK, records)
}

func (s *Server) registeredOnly(ctx context.Context, records []*domain.LaunchRecord) []*domain.LaunchRecord {
	out := make([]*domain.LaunchRecord, 0, len(records))
	for _, r := range records {
		found, err := s.registry.Contains(ctx, r.TokenMint)
		if err != nil {
			s.log.Warn("registry lookup failed", zap.Error(err))
			return []*domain.LaunchRecord{}
		}
		if found {
			out = append(out, r)
		}
	}
	return out
}

type tokensResponse struct {
	Tokens []string `json:"tokens"`
	Count  int      `json:"count"`
}

func (s *Server) handleTokens(c *gin.Context) {
	mints, err := s.registry.List(c.Request.Context())
	if err != nil {
		s.log.Error("list platform tokens failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to list tokens")
		return
	}
	if mints == nil {
		mints = []string{}
	}
	sort.Strings(mints)
	ok(c, http.StatusOK, tokensResponse{Tokens: mints, Count: len(mints)})
}

type sendTxRequest struct {
	Transaction string `json:"transaction"`
}

func (s *Server) handleSendTx(c *gin.Context) {
	if s.sender == nil {
		fail(c, http.StatusServiceUnavailable, "rpc not configured")
		return
	}

	var body sendTxRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Transaction == "" {
		fail(c, http.StatusBadRequest, "transaction required")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(body.Transaction)
	if err != nil || len(raw) == 0 {
		fail(c, http.StatusBadRequest, "transaction must be base64")
		return
	}

	ctx, cancel := detached(c, LaunchTimeout)
	defer cancel()

	sig, err := s.sender.SendTransaction(ctx, raw)
	if err != nil {
		s.log.Error("relay transaction failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, http.StatusOK, sig)
}

func (s *Server) handleScanRun(c *gin.Context) {
	if s.outcomes == nil {
		fail(c, http.StatusServiceUnavailable, "outcome log not configured")
		return
	}

	results, err := s.outcomes.ListByRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.log.Error("list run outcomes failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to list run outcomes")
		return
	}
	if len(results) == 0 {
		fail(c, http.StatusNotFound, "run not found")
		return
	}
	ok(c, http.StatusOK, results)
}

func (s *Server) handleGetLaunch(c *gin.Context) {
	if s.archive == nil {
		fail(c, http.StatusServiceUnavailable, "launch archive not configured")
		return
	}

	record, err := s.archive.GetByMint(c.Request.Context(), c.Param("mint"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fail(c, http.StatusNotFound, "launch not found")
		return
	case err != nil:
		s.log.Error("get launch failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to get launch")
		return
	}
	ok(c, http.StatusOK, record)
}

// queryInt parses a query parameter, returning 0 when absent or malformed.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
