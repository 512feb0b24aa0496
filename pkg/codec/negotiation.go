package codec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MediaTypeJSON is the default body encoding.
const MediaTypeJSON = "application/json"

// mediaPredicates are tried in priority order; the first predicate matching
// any candidate wins, independent of the candidates' own ordering.
var mediaPredicates = []func(string) bool{
	func(m string) bool { return m == MediaTypeJSON },
	isJSONLike,
	isTextLike,
	func(m string) bool { return m == "application/octet-stream" },
	func(m string) bool { return m == "application/x-www-form-urlencoded" },
}

// isJSONLike matches structured-syntax JSON subtypes such as
// application/problem+json or application/merge-patch+json.
func isJSONLike(m string) bool {
	return strings.HasPrefix(m, "application/") && strings.HasSuffix(m, "+json")
}

func isTextLike(m string) bool {
	return strings.HasPrefix(m, "text/")
}

// normalizeMediaType strips ;-delimited parameters and lower-cases the bare
// type for predicate matching.
func normalizeMediaType(mediaType string) string {
	bare, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(bare))
}

// GetPreferredMediaType selects the media type the client should use from an
// ordered candidate list. An empty list defaults to application/json; a
// non-empty list with no supported candidate is a configuration mismatch and
// fails.
func GetPreferredMediaType(candidates []string) (string, error) {
	if len(candidates) == 0 {
		return MediaTypeJSON, nil
	}
	normalized := make([]string, len(candidates))
	for i, c := range candidates {
		normalized[i] = normalizeMediaType(c)
	}
	for _, matches := range mediaPredicates {
		for _, c := range normalized {
			if matches(c) {
				return c, nil
			}
		}
	}
	return "", fmt.Errorf("no supported media type among %v", candidates)
}

// Stringify encodes a wire value into a request body for the given media
// type. Text bodies must already be strings.
func Stringify(data any, mediaType string) (string, error) {
	m := normalizeMediaType(mediaType)
	switch {
	case m == MediaTypeJSON || isJSONLike(m):
		body, err := json.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("encode %s body: %w", m, err)
		}
		return string(body), nil
	case isTextLike(m):
		s, ok := data.(string)
		if !ok {
			return "", fmt.Errorf("media type %s requires a string body, got %T", m, data)
		}
		return s, nil
	default:
		return "", fmt.Errorf("unsupported media type for stringify: %q", mediaType)
	}
}

// Parse decodes a response body for the given media type into a wire value.
func Parse(raw string, mediaType string) (any, error) {
	if strings.TrimSpace(mediaType) == "" {
		return nil, fmt.Errorf("cannot parse body: no Content-Type")
	}
	m := normalizeMediaType(mediaType)
	switch {
	case m == MediaTypeJSON || isJSONLike(m):
		var out any
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("decode %s body: %w", m, err)
		}
		return out, nil
	case isTextLike(m):
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported media type for parse: %q", mediaType)
	}
}
