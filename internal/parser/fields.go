package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// fencedJSONPattern matches ```json { ... } ``` and ``` { ... } ``` blocks.
var fencedJSONPattern = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// fieldAliases lists the accepted keys per field in precedence order.
// The same table drives JSON lookup and the key-value scan.
var fieldAliases = struct {
	name, symbol, wallet, description, image, website, twitter []string
}{
	name:        []string{"name"},
	symbol:      []string{"symbol"},
	wallet:      []string{"wallet"},
	description: []string{"description"},
	image:       []string{"image", "imageUrl"},
	website:     []string{"website", "site", "url", "link", "homepage"},
	twitter:     []string{"twitter", "x", "social"},
}

// kvPatterns caches one compiled pattern per key-value alias.
var kvPatterns = buildKVPatterns()

func buildKVPatterns() map[string]*regexp.Regexp {
	all := [][]string{
		fieldAliases.name, fieldAliases.symbol, fieldAliases.wallet,
		fieldAliases.description, fieldAliases.image, fieldAliases.website,
		fieldAliases.twitter,
	}
	patterns := make(map[string]*regexp.Regexp)
	for _, aliases := range all {
		for _, key := range aliases {
			// A key starts a line or follows whitespace, so "x" never matches
			// inside "max:" and "symbol" never matches a "?symbol=" query.
			patterns[key] = regexp.MustCompile(`(?im)(?:^|\s)` + regexp.QuoteMeta(key) + `\s*[:=]\s*(.+)`)
		}
	}
	return patterns
}

// fields holds raw resolved values before validation.
type fields struct {
	name        string
	symbol      string
	wallet      string
	description string
	image       string
	website     string
	twitter     string
}

// resolveFields applies field-level precedence: JSON first, then key-value lines.
func resolveFields(content string) fields {
	obj := extractJSON(content)

	resolve := func(aliases []string) string {
		if v := jsonField(obj, aliases); v != "" {
			return v
		}
		return kvField(content, aliases)
	}

	return fields{
		name:        resolve(fieldAliases.name),
		symbol:      resolve(fieldAliases.symbol),
		wallet:      resolve(fieldAliases.wallet),
		description: resolve(fieldAliases.description),
		image:       resolve(fieldAliases.image),
		website:     resolve(fieldAliases.website),
		twitter:     resolve(fieldAliases.twitter),
	}
}

// extractJSON returns the structured object embedded in content, or nil.
// A fenced code block wins; otherwise the span from the first '{' after the
// trigger to the last '}' of the content is tried.
func extractJSON(content string) map[string]any {
	if m := fencedJSONPattern.FindStringSubmatch(content); m != nil {
		if obj, ok := decodeObject(m[1]); ok {
			return obj
		}
	}

	loc := triggerPattern.FindStringIndex(content)
	if loc == nil {
		return nil
	}
	rest := content[loc[1]:]
	start := strings.Index(rest, "{")
	end := strings.LastIndex(rest, "}")
	if start < 0 || end <= start {
		return nil
	}
	obj, _ := decodeObject(rest[start : end+1])
	return obj
}

func decodeObject(raw string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// jsonField returns the first non-empty value among aliases.
// Non-string scalars are stringified; objects, arrays and null are ignored.
func jsonField(obj map[string]any, aliases []string) string {
	if obj == nil {
		return ""
	}
	for _, key := range aliases {
		var v string
		switch val := obj[key].(type) {
		case string:
			v = strings.TrimSpace(val)
		case float64:
			v = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			v = strconv.FormatBool(val)
		}
		if v != "" {
			return v
		}
	}
	return ""
}

// kvField scans content for "key: value" or "key= value"; first match wins.
func kvField(content string, aliases []string) string {
	for _, key := range aliases {
		m := kvPatterns[key].FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if v := cleanValue(m[1]); v != "" {
			return v
		}
	}
	return ""
}

// cleanValue trims, drops one trailing comma and one layer of matching quotes.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, ",") {
		v = strings.TrimSpace(strings.TrimSuffix(v, ","))
	}
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			v = v[1 : len(v)-1]
		}
	}
	return strings.TrimSpace(v)
}
