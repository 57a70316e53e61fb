package domain

// Length limits enforced on launch requests.
const (
	MaxNameLength        = 32
	MaxSymbolLength      = 10
	MaxDescriptionLength = 1000
)

// ParsedTokenRequest is a validated token-launch request.
// Name, Symbol, Description and ImageURL are always non-empty and within
// length limits; CreatorWallet is empty or a syntactically valid address.
type ParsedTokenRequest struct {
	Name          string
	Symbol        string
	Description   string
	ImageURL      string
	Website       string // optional
	Twitter       string // optional
	CreatorWallet string // optional, base58 address
	SourcePost    SocialPost
}
