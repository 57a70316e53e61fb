package launch_test

import (
	"context"
	"crypto/ed25519"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/launch"
	launchstub "clawnch-scanner/internal/launch/stub"
	"clawnch-scanner/internal/solana"
	solanastub "clawnch-scanner/internal/solana/stub"
	"clawnch-scanner/internal/storage/memory"
)

type fixture struct {
	metadata  *launchstub.MetadataStore
	builder   *launchstub.TxBuilder
	rpc       *solanastub.RPCClient
	confirmer *launchstub.Confirmer
	registry  *memory.TokenRegistry
	archive   *memory.LaunchArchive
	wallet    *solana.Keypair
	mint      *solana.Keypair
	orch      *launch.Orchestrator
}

var launchTime = time.Date(2026, 2, 2, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	wallet, err := solana.NewKeypair()
	require.NoError(t, err)
	mint, err := solana.NewKeypair()
	require.NoError(t, err)

	f := &fixture{
		metadata:  launchstub.NewMetadataStore("https://ipfs.io/ipfs/QmTest"),
		builder:   launchstub.NewTxBuilder(),
		rpc:       solanastub.NewRPCClient(),
		confirmer: &launchstub.Confirmer{},
		registry:  memory.NewTokenRegistry(),
		archive:   memory.NewLaunchArchive(),
		wallet:    wallet,
		mint:      mint,
	}
	f.orch = launch.New(launch.Options{
		Metadata:  f.metadata,
		Builder:   f.builder,
		RPC:       f.rpc,
		Confirmer: f.confirmer,
		Registry:  f.registry,
		Archive:   f.archive,
		NewMint:   func() (*solana.Keypair, error) { return mint, nil },
		Now:       func() time.Time { return launchTime },
	})
	return f
}

func testRequest() *domain.ParsedTokenRequest {
	return &domain.ParsedTokenRequest{
		Name:        "Lobster",
		Symbol:      "LOB",
		Description: "claws up",
		ImageURL:    "https://i.imgur.com/lob.png",
		Website:     "https://lob.example",
		SourcePost: domain.SocialPost{
			Platform: domain.PlatformMoltbook,
			PostID:   "post-1",
			Author:   "alice",
			URL:      "https://www.moltbook.com/post/post-1",
		},
	}
}

func TestLaunch_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result := f.orch.Launch(ctx, testRequest(), f.wallet)

	require.Equal(t, domain.ScanStatusLaunched, result.Status, result.Error)
	assert.Equal(t, domain.PlatformMoltbook, result.Platform)
	assert.Equal(t, "post-1", result.PostID)
	assert.Equal(t, f.mint.PublicKey().String(), result.TokenMint)
	assert.NotEmpty(t, result.Signature)
	assert.Equal(t, launchTime, result.Timestamp)

	// Metadata upload received the request fields
	require.Len(t, f.metadata.Uploads, 1)
	assert.Equal(t, "Lobster", f.metadata.Uploads[0].Name)
	assert.Equal(t, "https://lob.example", f.metadata.Uploads[0].Website)

	// Builder got the creator, mint and uploaded URI
	require.Len(t, f.builder.Calls, 1)
	assert.Equal(t, f.wallet.PublicKey(), f.builder.Calls[0].Creator)
	assert.Equal(t, f.mint.PublicKey(), f.builder.Calls[0].Mint)
	assert.Equal(t, "https://ipfs.io/ipfs/QmTest", f.builder.Calls[0].MetadataURI)

	// The submitted transaction carries valid signatures from both signers
	require.Equal(t, 1, f.rpc.SentCount())
	tx, err := solana.DecodeTransaction(f.rpc.Sent[0])
	require.NoError(t, err)
	require.True(t, tx.IsFullySigned())
	walletPub := f.wallet.PublicKey()
	mintPub := f.mint.PublicKey()
	assert.True(t, ed25519.Verify(walletPub[:], tx.Message, tx.Signatures[0][:]))
	assert.True(t, ed25519.Verify(mintPub[:], tx.Message, tx.Signatures[1][:]))
	assert.Equal(t, tx.Signature(), result.Signature)

	// Confirmed, registered and archived
	assert.Equal(t, []string{result.Signature}, f.confirmer.Confirmed)

	ok, err := f.registry.Contains(ctx, result.TokenMint)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := f.archive.GetByMint(ctx, result.TokenMint)
	require.NoError(t, err)
	assert.Equal(t, "post-1", rec.PostID)
	assert.Equal(t, "https://ipfs.io/ipfs/QmTest", rec.MetadataURI)
	assert.Equal(t, launchTime, rec.LaunchedAt)
}

func TestLaunchDirect_PumpFunURL(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.orch.LaunchDirect(context.Background(), testRequest(), f.wallet)
	require.NoError(t, err)
	assert.Equal(t, "https://pump.fun/coin/"+f.mint.PublicKey().String(), outcome.PumpFunURL())
}

func TestLaunch_StepFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture)
		wantStep string
		sent     int
	}{
		{
			name:     "upload",
			setup:    func(f *fixture) { f.metadata.Err = errors.New("ipfs down") },
			wantStep: launch.StepUpload,
		},
		{
			name:     "build",
			setup:    func(f *fixture) { f.builder.Err = errors.New("pumpportal 500") },
			wantStep: launch.StepBuild,
		},
		{
			name: "sign with unexpected signer",
			setup: func(f *fixture) {
				other, _ := solana.NewKeypair()
				f.builder.Extras = []solana.PublicKey{other.PublicKey()}
			},
			wantStep: launch.StepSign,
		},
		{
			name:     "send",
			setup:    func(f *fixture) { f.rpc.SendErr = errors.New("blockhash not found") },
			wantStep: launch.StepSend,
		},
		{
			name:     "confirm",
			setup:    func(f *fixture) { f.confirmer.Err = solana.ErrConfirmTimeout },
			wantStep: launch.StepConfirm,
			sent:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			ctx := context.Background()

			result := f.orch.Launch(ctx, testRequest(), f.wallet)

			assert.Equal(t, domain.ScanStatusError, result.Status)
			assert.True(t, strings.HasPrefix(result.Error, tt.wantStep+": "), "error %q should name step %q", result.Error, tt.wantStep)
			assert.Empty(t, result.TokenMint)
			assert.Equal(t, "post-1", result.PostID)
			assert.Equal(t, tt.sent, f.rpc.SentCount())

			count, err := f.registry.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count, "mint must not be registered before confirmation")
		})
	}
}

func TestLaunchDirect_StepErrorUnwraps(t *testing.T) {
	f := newFixture(t)
	f.confirmer.Err = solana.ErrConfirmTimeout

	_, err := f.orch.LaunchDirect(context.Background(), testRequest(), f.wallet)

	var stepErr *launch.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, launch.StepConfirm, stepErr.Step)
	assert.ErrorIs(t, err, solana.ErrConfirmTimeout)
}

func TestLaunch_NilSigner(t *testing.T) {
	f := newFixture(t)

	result := f.orch.Launch(context.Background(), testRequest(), nil)

	assert.Equal(t, domain.ScanStatusError, result.Status)
	assert.Contains(t, result.Error, launch.StepValidate)
	assert.Empty(t, f.metadata.Uploads)
}

func TestLaunch_ArchiveFailureDoesNotFailLaunch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Pre-insert the mint so the archive insert hits a duplicate
	require.NoError(t, f.archive.Insert(ctx, &domain.LaunchRecord{TokenMint: f.mint.PublicKey().String()}))

	result := f.orch.Launch(ctx, testRequest(), f.wallet)
	assert.Equal(t, domain.ScanStatusLaunched, result.Status)
}

func TestLaunch_WithoutArchive(t *testing.T) {
	f := newFixture(t)
	orch := launch.New(launch.Options{
		Metadata:  f.metadata,
		Builder:   f.builder,
		RPC:       f.rpc,
		Confirmer: f.confirmer,
		Registry:  f.registry,
		NewMint:   func() (*solana.Keypair, error) { return f.mint, nil },
	})

	result := orch.Launch(context.Background(), testRequest(), f.wallet)
	assert.Equal(t, domain.ScanStatusLaunched, result.Status)
}

func TestLaunch_PollingConfirmerByDefault(t *testing.T) {
	f := newFixture(t)
	orch := launch.New(launch.Options{
		Metadata: f.metadata,
		Builder:  f.builder,
		RPC:      f.rpc,
		Registry: f.registry,
		NewMint:  func() (*solana.Keypair, error) { return f.mint, nil },
	})

	// The stub RPC reports every sent transaction as confirmed
	result := orch.Launch(context.Background(), testRequest(), f.wallet)
	assert.Equal(t, domain.ScanStatusLaunched, result.Status, result.Error)
}
