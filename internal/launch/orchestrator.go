package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/observability"
	"clawnch-scanner/internal/solana"
	"clawnch-scanner/internal/storage"
)

// Launch steps, used as StepError.Step and as metric labels.
const (
	StepValidate = "validate"
	StepUpload   = "upload metadata"
	StepMint     = "generate mint"
	StepBuild    = "build transaction"
	StepSign     = "sign transaction"
	StepSend     = "send transaction"
	StepConfirm  = "confirm transaction"
	StepRegister = "register token"
)

// StepError identifies which launch step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Confirmer waits for a submitted signature to be confirmed.
type Confirmer interface {
	Confirm(ctx context.Context, signature string) error
}

// Outcome describes a confirmed launch.
type Outcome struct {
	TokenMint   string
	Signature   string
	MetadataURI string
	LaunchedAt  time.Time
}

// PumpFunURL returns the token's pump.fun page.
func (o *Outcome) PumpFunURL() string {
	return "https://pump.fun/coin/" + o.TokenMint
}

// Options configures an Orchestrator.
type Options struct {
	Metadata  MetadataStore
	Builder   TxBuilder
	RPC       solana.RPCClient
	Confirmer Confirmer
	Registry  storage.TokenRegistry

	// Archive is optional; when set, confirmed launches are archived.
	Archive storage.LaunchArchive

	Logger *zap.Logger

	// NewMint generates the mint keypair; defaults to solana.NewKeypair.
	NewMint func() (*solana.Keypair, error)
	Now     func() time.Time
}

// Orchestrator runs the launch steps for one request at a time.
type Orchestrator struct {
	metadata  MetadataStore
	builder   TxBuilder
	rpc       solana.RPCClient
	confirmer Confirmer
	registry  storage.TokenRegistry
	archive   storage.LaunchArchive
	log       *zap.Logger
	newMint   func() (*solana.Keypair, error)
	now       func() time.Time
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		metadata:  opts.Metadata,
		builder:   opts.Builder,
		rpc:       opts.RPC,
		confirmer: opts.Confirmer,
		registry:  opts.Registry,
		archive:   opts.Archive,
		log:       opts.Logger,
		newMint:   opts.NewMint,
		now:       opts.Now,
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.newMint == nil {
		o.newMint = solana.NewKeypair
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.confirmer == nil && o.rpc != nil {
		o.confirmer = solana.NewConfirmer(solana.ConfirmerOptions{RPC: o.rpc, Logger: o.log})
	}
	return o
}

// Launch runs the full launch and never returns an error: failures become a
// result with status error whose message names the failing step.
func (o *Orchestrator) Launch(ctx context.Context, req *domain.ParsedTokenRequest, signer solana.Signer) domain.ScanResult {
	var post domain.SocialPost
	if req != nil {
		post = req.SourcePost
	}

	outcome, err := o.LaunchDirect(ctx, req, signer)
	if err != nil {
		return domain.ScanResult{
			Platform:  post.Platform,
			PostID:    post.PostID,
			Status:    domain.ScanStatusError,
			Error:     err.Error(),
			Timestamp: o.now().UTC(),
		}
	}

	return domain.ScanResult{
		Platform:  post.Platform,
		PostID:    post.PostID,
		Status:    domain.ScanStatusLaunched,
		TokenMint: outcome.TokenMint,
		Signature: outcome.Signature,
		Timestamp: outcome.LaunchedAt,
	}
}

// LaunchDirect runs the launch and returns a *StepError on failure.
// The mint is registered only after the transaction is confirmed.
func (o *Orchestrator) LaunchDirect(ctx context.Context, req *domain.ParsedTokenRequest, signer solana.Signer) (outcome *Outcome, err error) {
	defer func() {
		if err != nil {
			observability.RecordLaunch(string(domain.ScanStatusError))
			return
		}
		observability.RecordLaunch(string(domain.ScanStatusLaunched))
	}()

	if req == nil {
		return nil, &StepError{Step: StepValidate, Err: errors.New("nil request")}
	}
	if signer == nil {
		return nil, &StepError{Step: StepValidate, Err: errors.New("no signer configured")}
	}
	if req.ImageURL == "" {
		return nil, &StepError{Step: StepValidate, Err: errors.New("image url is required")}
	}
	creator := signer.PublicKey()

	log := o.log.With(
		zap.String("platform", string(req.SourcePost.Platform)),
		zap.String("post_id", req.SourcePost.PostID),
		zap.String("symbol", req.Symbol))

	var uploaded *UploadResult
	err = o.step(StepUpload, func() error {
		var err error
		uploaded, err = o.metadata.Upload(ctx, TokenMetadata{
			Name:        req.Name,
			Symbol:      req.Symbol,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			Twitter:     req.Twitter,
			Website:     req.Website,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	mint, err := o.newMint()
	if err != nil {
		return nil, &StepError{Step: StepMint, Err: err}
	}
	log = log.With(zap.String("mint", mint.PublicKey().String()))

	var raw []byte
	err = o.step(StepBuild, func() error {
		var err error
		raw, err = o.builder.CreateTransaction(ctx, CreateParams{
			Creator:     creator,
			Mint:        mint.PublicKey(),
			Name:        uploaded.Name,
			Symbol:      uploaded.Symbol,
			MetadataURI: uploaded.MetadataURI,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var signed []byte
	err = o.step(StepSign, func() error {
		tx, err := solana.DecodeTransaction(raw)
		if err != nil {
			return err
		}
		if err := tx.Sign(mint, signer); err != nil {
			return err
		}
		if !tx.IsFullySigned() {
			return errors.New("transaction requires signers other than the mint and creator")
		}
		signed = tx.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	var signature string
	err = o.step(StepSend, func() error {
		var err error
		signature, err = o.rpc.SendTransaction(ctx, signed)
		return err
	})
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("signature", signature))
	log.Info("launch transaction submitted")

	if err := o.step(StepConfirm, func() error {
		return o.confirmer.Confirm(ctx, signature)
	}); err != nil {
		return nil, err
	}

	mintAddr := mint.PublicKey().String()
	if err := o.step(StepRegister, func() error {
		return o.registry.Add(ctx, mintAddr)
	}); err != nil {
		// The token exists on chain; surface the failure so the caller can
		// reconcile the registry.
		log.Error("token confirmed but not registered", zap.Error(err))
		return nil, err
	}

	outcome = &Outcome{
		TokenMint:   mintAddr,
		Signature:   signature,
		MetadataURI: uploaded.MetadataURI,
		LaunchedAt:  o.now().UTC(),
	}
	o.archiveLaunch(ctx, req, outcome, log)

	log.Info("token launched")
	return outcome, nil
}

// step times fn under name and wraps its error in a StepError.
func (o *Orchestrator) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	observability.RecordLaunchStep(name, time.Since(start).Seconds())
	if err != nil {
		return &StepError{Step: name, Err: err}
	}
	return nil
}

// archiveLaunch writes the durable record. Failures are logged only since the
// launch is already committed on chain.
func (o *Orchestrator) archiveLaunch(ctx context.Context, req *domain.ParsedTokenRequest, outcome *Outcome, log *zap.Logger) {
	if o.archive == nil {
		return
	}

	post := req.SourcePost
	record := &domain.LaunchRecord{
		TokenMint:     outcome.TokenMint,
		Signature:     outcome.Signature,
		Platform:      post.Platform,
		PostID:        post.PostID,
		PostURL:       post.URL,
		Author:        post.Author,
		Name:          req.Name,
		Symbol:        req.Symbol,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		MetadataURI:   outcome.MetadataURI,
		CreatorWallet: req.CreatorWallet,
		LaunchedAt:    outcome.LaunchedAt,
	}
	if err := o.archive.Insert(ctx, record); err != nil {
		log.Warn("archive launch failed", zap.Error(fmt.Errorf("insert %s: %w", outcome.TokenMint, err)))
	}
}
