package launch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"clawnch-scanner/internal/solana"
)

// PumpPortalEndpoint builds unsigned pump.fun transactions.
const PumpPortalEndpoint = "https://pumpportal.fun/api/trade-local"

// Create transaction parameters sent to PumpPortal.
const (
	createSlippage    = 10
	createPriorityFee = 0.0005
	createPool        = "pump"
)

// ErrEmptyTransaction is returned when the builder responds with no bytes.
var ErrEmptyTransaction = errors.New("empty transaction")

// CreateParams identifies the token a create transaction should mint.
type CreateParams struct {
	Creator     solana.PublicKey // fee payer and token creator
	Mint        solana.PublicKey // fresh mint account
	Name        string
	Symbol      string
	MetadataURI string
}

// TxBuilder returns an unsigned create transaction in wire format.
type TxBuilder interface {
	CreateTransaction(ctx context.Context, params CreateParams) ([]byte, error)
}

// PumpPortalBuilder implements TxBuilder against PumpPortal's trade-local API.
type PumpPortalBuilder struct {
	endpoint string
	cfg      clientConfig
}

// NewPumpPortalBuilder creates a PumpPortalBuilder. An empty endpoint selects
// PumpPortalEndpoint.
func NewPumpPortalBuilder(endpoint string, opts ...ClientOption) *PumpPortalBuilder {
	if endpoint == "" {
		endpoint = PumpPortalEndpoint
	}
	return &PumpPortalBuilder{endpoint: endpoint, cfg: newClientConfig(opts)}
}

// Compile-time interface check.
var _ TxBuilder = (*PumpPortalBuilder)(nil)

type tokenMetadataRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

type createRequest struct {
	PublicKey        string               `json:"publicKey"`
	Action           string               `json:"action"`
	TokenMetadata    tokenMetadataRequest `json:"tokenMetadata"`
	Mint             string               `json:"mint"`
	DenominatedInSol string               `json:"denominatedInSol"`
	Amount           float64              `json:"amount"`
	Slippage         int                  `json:"slippage"`
	PriorityFee      float64              `json:"priorityFee"`
	Pool             string               `json:"pool"`
}

// CreateTransaction requests a create transaction with no initial buy.
func (b *PumpPortalBuilder) CreateTransaction(ctx context.Context, params CreateParams) ([]byte, error) {
	body, err := json.Marshal(createRequest{
		PublicKey: params.Creator.String(),
		Action:    "create",
		TokenMetadata: tokenMetadataRequest{
			Name:   params.Name,
			Symbol: params.Symbol,
			URI:    params.MetadataURI,
		},
		Mint:             params.Mint.String(),
		DenominatedInSol: "true",
		Amount:           0,
		Slippage:         createSlippage,
		PriorityFee:      createPriorityFee,
		Pool:             createPool,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.cfg.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pumpportal create failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if len(respBody) == 0 {
		return nil, ErrEmptyTransaction
	}
	return respBody, nil
}
