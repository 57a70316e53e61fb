package platforms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"clawnch-scanner/internal/domain"
)

// DefaultFetchTimeout bounds a single platform fetch.
const DefaultFetchTimeout = 4 * time.Second

// maxBodyBytes caps how much of a platform response is read.
const maxBodyBytes = 4 << 20

// Source provides recent posts from one platform.
type Source interface {
	// Platform returns the platform this source fetches from.
	Platform() domain.Platform

	// Fetch returns the platform's recent posts.
	Fetch(ctx context.Context) ([]domain.SocialPost, error)
}

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	Endpoint     string
	Token        string
	RequireToken bool          // disable the adapter when Token is empty
	Timeout      time.Duration // defaults to DefaultFetchTimeout
	HTTPClient   *http.Client
	Logger       *zap.Logger
	Now          func() time.Time
}

// Adapter fetches one platform's endpoint and decodes it with a Mapping.
type Adapter struct {
	mapping      Mapping
	endpoint     string
	token        string
	requireToken bool
	timeout      time.Duration
	client       *http.Client
	log          *zap.Logger
	now          func() time.Time
}

// NewAdapter creates an Adapter for mapping.
func NewAdapter(mapping Mapping, cfg AdapterConfig) *Adapter {
	a := &Adapter{
		mapping:      mapping,
		endpoint:     cfg.Endpoint,
		token:        cfg.Token,
		requireToken: cfg.RequireToken,
		timeout:      cfg.Timeout,
		client:       cfg.HTTPClient,
		log:          cfg.Logger,
		now:          cfg.Now,
	}
	if a.timeout <= 0 {
		a.timeout = DefaultFetchTimeout
	}
	if a.client == nil {
		a.client = &http.Client{}
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Compile-time interface check.
var _ Source = (*Adapter)(nil)

// Platform returns the platform this adapter serves.
func (a *Adapter) Platform() domain.Platform {
	return a.mapping.Platform
}

// Enabled reports whether the adapter has the credentials it needs.
func (a *Adapter) Enabled() bool {
	return !a.requireToken || a.token != ""
}

// Fetch performs one GET bounded by the adapter timeout. A disabled adapter
// returns no posts and no error.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.SocialPost, error) {
	if !a.Enabled() {
		a.log.Debug("adapter disabled, no token configured")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	posts, err := a.mapping.Decode(body, a.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", a.mapping.Platform, err)
	}
	return posts, nil
}
