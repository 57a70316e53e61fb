// Package launch creates tokens on pump.fun: metadata upload, transaction
// construction through PumpPortal, signing, submission and confirmation.
package launch

import (
	"net/http"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultImageTimeout = 10 * time.Second
	MaxImageBytes       = 15 << 20

	DefaultIPFSGateway    = "https://ipfs.io/ipfs/"
	DefaultArweaveGateway = "https://arweave.net/"
)

type clientConfig struct {
	httpClient     *http.Client
	imageTimeout   time.Duration
	ipfsGateway    string
	arweaveGateway string
}

// ClientOption configures the pump.fun and PumpPortal clients.
type ClientOption func(*clientConfig)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithImageTimeout bounds the image download that precedes metadata upload.
func WithImageTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.imageTimeout = timeout
	}
}

// WithGateways sets the HTTP gateways used to fetch ipfs:// and ar:// images.
// Each base must end with a slash.
func WithGateways(ipfs, arweave string) ClientOption {
	return func(c *clientConfig) {
		c.ipfsGateway = ipfs
		c.arweaveGateway = arweave
	}
}

func newClientConfig(opts []ClientOption) clientConfig {
	cfg := clientConfig{
		httpClient:     &http.Client{Timeout: DefaultHTTPTimeout},
		imageTimeout:   DefaultImageTimeout,
		ipfsGateway:    DefaultIPFSGateway,
		arweaveGateway: DefaultArweaveGateway,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// gatewayURL rewrites content-addressed image URLs to their HTTP gateway.
// Other URLs are returned unchanged.
func (c clientConfig) gatewayURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "ipfs://"):
		path := strings.TrimPrefix(strings.TrimPrefix(raw, "ipfs://"), "ipfs/")
		return c.ipfsGateway + path
	case strings.HasPrefix(raw, "ar://"):
		return c.arweaveGateway + strings.TrimPrefix(raw, "ar://")
	}
	return raw
}
