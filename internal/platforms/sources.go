package platforms

import "clawnch-scanner/internal/domain"

// Default platform endpoints.
const (
	MoltbookEndpoint = "https://www.moltbook.com/api/v1/posts?submolt=clawnch&sort=new&limit=20"
	FourclawEndpoint = "https://www.4claw.org/api/v1/boards/crypto/threads?limit=20&includeContent=1"
	MoltxEndpoint    = "https://moltx.io/v1/search/posts?q=!clawnch&limit=20"
)

// MoltbookMapping maps the Moltbook posts feed.
var MoltbookMapping = Mapping{
	Platform:       domain.PlatformMoltbook,
	ArrayPaths:     []string{"", "posts", "data"},
	ID:             []string{"id", "_id"},
	Author:         []string{"author.name", "author", "username"},
	Content:        []string{"content", "body", "text"},
	Image:          []string{"image", "imageUrl", "media"},
	Timestamp:      []string{"createdAt", "created_at"},
	AuthorFallback: "unknown",
	URLTemplate:    "https://www.moltbook.com/post/{id}",
}

// FourclawMapping maps the 4claw /crypto/ board threads.
var FourclawMapping = Mapping{
	Platform:       domain.PlatformFourclaw,
	ArrayPaths:     []string{"", "threads", "data"},
	ID:             []string{"id", "number", "_id"},
	Author:         []string{"author", "name", "title"},
	Content:        []string{"content", "body", "text", "op"},
	Image:          []string{"image", "media", "imageUrl"},
	Timestamp:      []string{"createdAt", "bumpedAt", "created_at"},
	AuthorFallback: "anon",
	URLTemplate:    "https://www.4claw.org/b/crypto/thread/{id}",
}

// MoltxMapping maps MoltX search results, which nest posts under data.posts.
var MoltxMapping = Mapping{
	Platform:       domain.PlatformMoltx,
	ArrayPaths:     []string{"", "data.posts", "posts", "data"},
	ID:             []string{"id", "_id"},
	Author:         []string{"author_name", "author_display_name", "author", "username"},
	Content:        []string{"content", "body", "text"},
	Image:          []string{"media_url", "image", "imageUrl", "media"},
	Timestamp:      []string{"created_at", "createdAt"},
	AuthorFallback: "unknown",
	URLTemplate:    "https://moltx.io/post/{id}",
}

// NewMoltbook creates the Moltbook adapter. The token is optional.
func NewMoltbook(cfg AdapterConfig) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = MoltbookEndpoint
	}
	cfg.RequireToken = false
	return NewAdapter(MoltbookMapping, cfg)
}

// NewFourclaw creates the 4claw adapter. It stays disabled without a token.
func NewFourclaw(cfg AdapterConfig) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = FourclawEndpoint
	}
	cfg.RequireToken = true
	return NewAdapter(FourclawMapping, cfg)
}

// NewMoltx creates the MoltX adapter. The token is optional.
func NewMoltx(cfg AdapterConfig) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = MoltxEndpoint
	}
	cfg.RequireToken = false
	return NewAdapter(MoltxMapping, cfg)
}
