// Package parser extracts token-launch requests from free-text social posts.
//
// A post is a launch request when it contains the trigger literal. Fields are
// resolved per field: a JSON object (fenced code block, or the brace span that
// follows the trigger) is consulted first and any field it does not supply is
// filled from "key: value" lines anywhere in the content.
package parser

import (
	"regexp"

	"clawnch-scanner/internal/domain"
)

// Trigger is the literal that marks a post as a launch request.
const Trigger = "!clawnch"

var triggerPattern = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(Trigger))

// ContainsTrigger reports whether content carries the trigger, case-insensitively.
func ContainsTrigger(content string) bool {
	return triggerPattern.MatchString(content)
}

// Parse extracts a launch request from a post.
// Returns nil when the post has no trigger, lacks a required field, or
// carries an image URL that is not a direct image link.
func Parse(post domain.SocialPost) *domain.ParsedTokenRequest {
	content := post.Content
	if !ContainsTrigger(content) {
		return nil
	}

	f := resolveFields(content)

	// Required fields
	if f.name == "" || f.symbol == "" || f.description == "" || f.image == "" {
		return nil
	}

	if !IsValidImageURL(f.image) {
		return nil
	}

	symbol := NormalizeSymbol(f.symbol)
	if symbol == "" {
		return nil
	}

	return &domain.ParsedTokenRequest{
		Name:          truncate(f.name, domain.MaxNameLength),
		Symbol:        symbol,
		Description:   truncate(f.description, domain.MaxDescriptionLength),
		ImageURL:      f.image,
		Website:       f.website,
		Twitter:       f.twitter,
		CreatorWallet: ValidWallet(f.wallet),
		SourcePost:    post,
	}
}
