package launch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// PumpIPFSEndpoint is pump.fun's metadata upload endpoint.
const PumpIPFSEndpoint = "https://pump.fun/api/ipfs"

// ErrNoMetadataURI is returned when the upload response lacks metadataUri.
var ErrNoMetadataURI = errors.New("upload response has no metadataUri")

// TokenMetadata is the content uploaded for a new token.
type TokenMetadata struct {
	Name        string
	Symbol      string
	Description string
	ImageURL    string
	Twitter     string
	Website     string
}

// UploadResult is the stored metadata location plus the name and symbol the
// store accepted, which may differ from the request.
type UploadResult struct {
	MetadataURI string
	Name        string
	Symbol      string
}

// MetadataStore stores token metadata and returns its content URI.
type MetadataStore interface {
	Upload(ctx context.Context, meta TokenMetadata) (*UploadResult, error)
}

// PumpMetadataStore uploads metadata to pump.fun's IPFS endpoint.
type PumpMetadataStore struct {
	endpoint string
	cfg      clientConfig
}

// NewPumpMetadataStore creates a PumpMetadataStore. An empty endpoint selects
// PumpIPFSEndpoint.
func NewPumpMetadataStore(endpoint string, opts ...ClientOption) *PumpMetadataStore {
	if endpoint == "" {
		endpoint = PumpIPFSEndpoint
	}
	return &PumpMetadataStore{endpoint: endpoint, cfg: newClientConfig(opts)}
}

// Compile-time interface check.
var _ MetadataStore = (*PumpMetadataStore)(nil)

type uploadResponse struct {
	MetadataURI string `json:"metadataUri"`
	Metadata    *struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"metadata"`
}

// Upload downloads the image, then posts it with the token fields as a
// multipart form.
func (s *PumpMetadataStore) Upload(ctx context.Context, meta TokenMetadata) (*UploadResult, error) {
	image, err := s.downloadImage(ctx, meta.ImageURL)
	if err != nil {
		return nil, err
	}

	body, contentType, err := buildUploadForm(meta, image)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.cfg.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipfs upload failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out uploadResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if out.MetadataURI == "" {
		return nil, ErrNoMetadataURI
	}

	result := &UploadResult{MetadataURI: out.MetadataURI, Name: meta.Name, Symbol: meta.Symbol}
	if out.Metadata != nil {
		if out.Metadata.Name != "" {
			result.Name = out.Metadata.Name
		}
		if out.Metadata.Symbol != "" {
			result.Symbol = out.Metadata.Symbol
		}
	}
	return result, nil
}

type imageFile struct {
	data        []byte
	contentType string
	filename    string
}

func (s *PumpMetadataStore) downloadImage(ctx context.Context, url string) (*imageFile, error) {
	if url == "" {
		return nil, errors.New("image url is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.gatewayURL(url), nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}

	resp, err := s.cfg.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return &imageFile{
		data:        data,
		contentType: contentType,
		filename:    "token." + imageExtension(contentType),
	}, nil
}

// imageExtension maps a content type to the file extension pump.fun expects.
// Unknown types are sent as png.
func imageExtension(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	case strings.Contains(ct, "gif"):
		return "gif"
	case strings.Contains(ct, "webp"):
		return "webp"
	default:
		return "png"
	}
}

func buildUploadForm(meta TokenMetadata, image *imageFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, image.filename))
	header.Set("Content-Type", image.contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image.data); err != nil {
		return nil, "", err
	}

	fields := []struct{ key, value string }{
		{"name", meta.Name},
		{"symbol", meta.Symbol},
		{"description", meta.Description},
		{"twitter", meta.Twitter},
		{"website", meta.Website},
		{"showName", "true"},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.key, f.value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
