// Package stub provides in-memory launch dependencies for tests.
package stub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clawnch-scanner/internal/domain"
	"clawnch-scanner/internal/launch"
	"clawnch-scanner/internal/solana"
	solanastub "clawnch-scanner/internal/solana/stub"
)

// MetadataStore records uploads and returns a fixed URI.
type MetadataStore struct {
	mu      sync.Mutex
	URI     string
	Err     error
	Uploads []launch.TokenMetadata
}

// NewMetadataStore creates a MetadataStore returning uri.
func NewMetadataStore(uri string) *MetadataStore {
	return &MetadataStore{URI: uri}
}

// Upload records meta.
func (s *MetadataStore) Upload(_ context.Context, meta launch.TokenMetadata) (*launch.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Uploads = append(s.Uploads, meta)
	if s.Err != nil {
		return nil, s.Err
	}
	return &launch.UploadResult{MetadataURI: s.URI, Name: meta.Name, Symbol: meta.Symbol}, nil
}

// TxBuilder returns unsigned transactions requiring the creator and mint.
type TxBuilder struct {
	mu     sync.Mutex
	Err    error
	Calls  []launch.CreateParams
	Extras []solana.PublicKey // additional required signers
}

// NewTxBuilder creates a TxBuilder.
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{}
}

// CreateTransaction records params and returns a wire transaction whose
// required signers are creator, mint, then Extras.
func (b *TxBuilder) CreateTransaction(_ context.Context, params launch.CreateParams) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Calls = append(b.Calls, params)
	if b.Err != nil {
		return nil, b.Err
	}
	signers := append([]solana.PublicKey{params.Creator, params.Mint}, b.Extras...)
	return solanastub.UnsignedTransaction(signers...), nil
}

// Confirmer confirms every signature unless Err is set.
type Confirmer struct {
	mu        sync.Mutex
	Err       error
	Confirmed []string
}

// Confirm records signature.
func (c *Confirmer) Confirm(_ context.Context, signature string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return c.Err
	}
	c.Confirmed = append(c.Confirmed, signature)
	return nil
}

// Launcher returns launched results without touching the network.
// Posts whose id is in Fail get an error result instead.
type Launcher struct {
	mu       sync.Mutex
	Fail     map[string]string
	Requests []*domain.ParsedTokenRequest
	Now      func() time.Time
}

// NewLauncher creates a Launcher.
func NewLauncher() *Launcher {
	return &Launcher{Fail: make(map[string]string)}
}

// Launch records req and returns a scripted result.
func (l *Launcher) Launch(_ context.Context, req *domain.ParsedTokenRequest, _ solana.Signer) domain.ScanResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Requests = append(l.Requests, req)
	now := time.Now().UTC()
	if l.Now != nil {
		now = l.Now()
	}

	post := req.SourcePost
	if msg, ok := l.Fail[post.PostID]; ok {
		return domain.ScanResult{
			Platform:  post.Platform,
			PostID:    post.PostID,
			Status:    domain.ScanStatusError,
			Error:     msg,
			Timestamp: now,
		}
	}

	n := len(l.Requests)
	return domain.ScanResult{
		Platform:  post.Platform,
		PostID:    post.PostID,
		Status:    domain.ScanStatusLaunched,
		TokenMint: fmt.Sprintf("mint-%d", n),
		Signature: fmt.Sprintf("sig-%d", n),
		Timestamp: now,
	}
}

// Launched returns the number of Launch calls.
func (l *Launcher) Launched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Requests)
}
