package platforms

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"clawnch-scanner/internal/domain"
)

// ErrMalformedPayload is returned when a response body is not valid JSON.
var ErrMalformedPayload = errors.New("malformed payload")

// ErrNoPostArray is returned when none of the mapping's array paths resolve
// to a JSON array.
var ErrNoPostArray = errors.New("payload has no post array")

// Mapping describes how one platform's payload maps onto domain.SocialPost.
// Each field lists gjson paths tried in order; the first non-empty string or
// number wins.
type Mapping struct {
	Platform domain.Platform

	// ArrayPaths are candidate locations of the post array. "" is the root.
	ArrayPaths []string

	ID        []string
	Author    []string
	Content   []string
	Image     []string
	Timestamp []string

	// AuthorFallback is used when no author path resolves.
	AuthorFallback string

	// URLTemplate builds the post link; "{id}" is replaced with the post id.
	URLTemplate string
}

// Decode maps a response body into posts. Items without an id are dropped;
// items without a parsable timestamp get now.
func (m Mapping) Decode(body []byte, now time.Time) ([]domain.SocialPost, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedPayload
	}

	items, ok := m.postArray(gjson.ParseBytes(body))
	if !ok {
		return nil, ErrNoPostArray
	}

	posts := make([]domain.SocialPost, 0, len(items))
	for _, item := range items {
		id := firstString(item, m.ID)
		if id == "" {
			continue
		}

		author := firstString(item, m.Author)
		if author == "" {
			author = m.AuthorFallback
		}

		posts = append(posts, domain.SocialPost{
			Platform:  m.Platform,
			PostID:    id,
			Author:    author,
			Content:   firstString(item, m.Content),
			ImageURL:  firstString(item, m.Image),
			Timestamp: firstTime(item, m.Timestamp, now),
			URL:       strings.ReplaceAll(m.URLTemplate, "{id}", id),
		})
	}
	return posts, nil
}

func (m Mapping) postArray(root gjson.Result) ([]gjson.Result, bool) {
	for _, path := range m.ArrayPaths {
		r := root
		if path != "" {
			r = root.Get(path)
		}
		if r.IsArray() {
			return r.Array(), true
		}
	}
	return nil, false
}

// firstString returns the first path holding a non-empty string or a number.
// Objects, arrays and booleans are skipped so that an object-valued "author"
// falls through to the next candidate.
func firstString(item gjson.Result, paths []string) string {
	for _, path := range paths {
		r := item.Get(path)
		switch r.Type {
		case gjson.String:
			if s := strings.TrimSpace(r.Str); s != "" {
				return s
			}
		case gjson.Number:
			return r.Raw
		}
	}
	return ""
}

func firstTime(item gjson.Result, paths []string, now time.Time) time.Time {
	for _, path := range paths {
		r := item.Get(path)
		if t, ok := parseTimestamp(r); ok {
			return t
		}
	}
	return now
}

// parseTimestamp accepts RFC3339 strings and unix seconds or milliseconds,
// either as numbers or numeric strings.
func parseTimestamp(r gjson.Result) (time.Time, bool) {
	switch r.Type {
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC(), true
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return unixTime(n)
		}
	case gjson.Number:
		return unixTime(r.Num)
	}
	return time.Time{}, false
}

// unixTime treats values above 1e12 as milliseconds.
func unixTime(n float64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n > 1e12 {
		return time.UnixMilli(int64(n)).UTC(), true
	}
	return time.Unix(int64(n), 0).UTC(), true
}
