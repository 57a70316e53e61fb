// Package api exposes the scanner over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/launch"
	"clawnch-scanner/internal/observability"
	"clawnch-scanner/internal/scanner"
	"clawnch-scanner/internal/solana"
	"clawnch-scanner/internal/storage"
)

// Request deadlines. Work continues after a client disconnects so that an
// in-flight launch is not abandoned halfway.
const (
	ScanTimeout   = 5 * time.Minute
	LaunchTimeout = 2 * time.Minute
	ReadTimeout   = 5 * time.Minute

	shutdownTimeout = 15 * time.Second
)

// ScanService runs scan passes and manual submissions.
type ScanService interface {
	Run(ctx context.Context, opts scanner.RunOptions) *scanner.Report
	Submit(ctx context.Context, req *domain.ParsedTokenRequest, opts scanner.SubmitOptions) (domain.ScanResult, error)
}

// DirectLauncher launches a request and reports failures as errors.
type DirectLauncher interface {
	LaunchDirect(ctx context.Context, req *domain.ParsedTokenRequest, signer solana.Signer) (*launch.Outcome, error)
}

// TxSender relays a signed wire transaction to the cluster.
type TxSender interface {
	SendTransaction(ctx context.Context, raw []byte) (string, error)
}

// BalanceReader reads an account balance in lamports.
type BalanceReader interface {
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

// Options configures a Server.
type Options struct {
	Scanner  ScanService
	Launcher DirectLauncher
	Signer   solana.Signer
	Balance  BalanceReader
	Sender   TxSender
	Activity storage.ActivityLog
	Registry storage.TokenRegistry

	// Optional stores.
	Archive  storage.LaunchArchive
	Outcomes storage.OutcomeStore

	// CronSecret protects /scan. Empty leaves it open.
	CronSecret string

	// Per-client limits for /launch and /submit.
	RateLimit rate.Limit
	Burst     int

	Logger *zap.Logger
	Now    func() time.Time
}

// Server is the HTTP front end.
type Server struct {
	scanner  ScanService
	launcher DirectLauncher
	signer   solana.Signer
	balance  BalanceReader
	sender   TxSender
	activity storage.ActivityLog
	registry storage.TokenRegistry
	archive  storage.LaunchArchive
	outcomes storage.OutcomeStore

	cronSecret string
	limiter    *clientLimiter
	log        *zap.Logger
	now        func() time.Time
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		scanner:    opts.Scanner,
		launcher:   opts.Launcher,
		signer:     opts.Signer,
		balance:    opts.Balance,
		sender:     opts.Sender,
		activity:   opts.Activity,
		registry:   opts.Registry,
		archive:    opts.Archive,
		outcomes:   opts.Outcomes,
		cronSecret: opts.CronSecret,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	limit, burst := opts.RateLimit, opts.Burst
	if limit <= 0 {
		limit = rate.Every(10 * time.Second)
	}
	if burst <= 0 {
		burst = 2
	}
	s.limiter = newClientLimiter(limit, burst)
	return s
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog(), s.instrument())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	r.GET("/scan", s.requireSecret(), s.handleScan)
	r.GET("/scan/runs/:id", s.handleScanRun)
	r.POST("/launch", s.rateLimit(), s.handleLaunch)
	r.POST("/submit", s.rateLimit(), s.handleSubmit)
	r.POST("/send-tx", s.rateLimit(), s.handleSendTx)

	r.GET("/activity", s.handleActivity)
	r.GET("/stats", s.handleStats)
	r.GET("/launches", s.handleListLaunches)
	r.GET("/launches/:mint", s.handleGetLaunch)
	r.GET("/tokens", s.handleTokens)

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
