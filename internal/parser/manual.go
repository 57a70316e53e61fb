package parser

import (
	"fmt"
	"strings"

	"clawnch-scanner/internal/domain"
)

// ValidationError reports a field-level validation failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ManualInput is a launch request submitted directly rather than parsed from a post.
type ManualInput struct {
	Name        string
	Symbol      string
	Description string
	ImageURL    string
	Website     string
	Twitter     string
	Wallet      string
	SourcePost  domain.SocialPost
}

// FromManual validates a manual submission and builds a launch request with the
// same normalization rules Parse applies.
func FromManual(in ManualInput) (*domain.ParsedTokenRequest, error) {
	name := strings.TrimSpace(in.Name)
	symbol := NormalizeSymbol(in.Symbol)
	description := strings.TrimSpace(in.Description)
	image := strings.TrimSpace(in.ImageURL)

	switch {
	case name == "":
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	case symbol == "":
		return nil, &ValidationError{Field: "symbol", Reason: "is required"}
	case description == "":
		return nil, &ValidationError{Field: "description", Reason: "is required"}
	case image == "":
		return nil, &ValidationError{Field: "imageUrl", Reason: "is required"}
	case !IsValidImageURL(image):
		return nil, &ValidationError{Field: "imageUrl", Reason: "must be a direct image link"}
	}

	return &domain.ParsedTokenRequest{
		Name:          truncate(name, domain.MaxNameLength),
		Symbol:        symbol,
		Description:   truncate(description, domain.MaxDescriptionLength),
		ImageURL:      image,
		Website:       strings.TrimSpace(in.Website),
		Twitter:       strings.TrimSpace(in.Twitter),
		CreatorWallet: ValidWallet(strings.TrimSpace(in.Wallet)),
		SourcePost:    in.SourcePost,
	}, nil
}
