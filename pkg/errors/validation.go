package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxIDLength    = 128
	maxQueryLength = 100
)

// ValidateID validates an item id received from a client.
//
// Ids are opaque to the layout engine, but they end up in URLs, store keys
// and channel payloads, so the rules are conservative:
//   - No empty ids
//   - No whitespace or control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 bytes
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "id too long (max %d characters)", maxIDLength)
	}
	if !utf8.ValidString(id) {
		return New(ErrCodeInvalidID, "id is not valid UTF-8")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidID, "id contains invalid characters")
		}
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return New(ErrCodeInvalidID, "id contains invalid characters: %q", id)
	}
	return nil
}

// ValidateQuery validates and trims a search query. An empty query is
// allowed; callers treat it as "no results".
func ValidateQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if len(query) > maxQueryLength {
		return "", New(ErrCodeInvalidInput, "query too long (max %d characters)", maxQueryLength)
	}
	for _, r := range query {
		if unicode.IsControl(r) {
			return "", New(ErrCodeInvalidInput, "query contains invalid control characters")
		}
	}
	return query, nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
