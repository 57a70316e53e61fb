package parser

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"clawnch-scanner/internal/domain"
)

// walletPattern matches the base58 shape of a Solana address.
var walletPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// contentAddressedSchemes are accepted without further checks.
var contentAddressedSchemes = []string{"ipfs://", "ar://"}

// knownImageHosts serve images without a file extension in the path.
var knownImageHosts = []string{"imgur.com", "i.imgur.com", "arweave.net"}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// IsValidImageURL reports whether raw points at a direct image.
func IsValidImageURL(raw string) bool {
	if raw == "" {
		return false
	}

	for _, scheme := range contentAddressedSchemes {
		if strings.HasPrefix(raw, scheme) {
			return true
		}
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range knownImageHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}

	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

// IsValidWallet reports whether w has the base58 address shape.
func IsValidWallet(w string) bool {
	return walletPattern.MatchString(w)
}

// ValidWallet returns w when it is a valid address, otherwise "".
// Invalid wallets are dropped rather than rejected; fees then go to the
// platform wallet.
func ValidWallet(w string) string {
	if IsValidWallet(w) {
		return w
	}
	return ""
}

// NormalizeSymbol uppercases and truncates a ticker to MaxSymbolLength runes.
func NormalizeSymbol(s string) string {
	return truncate(strings.ToUpper(strings.TrimSpace(s)), domain.MaxSymbolLength)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
