// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes all HTML tags from a string, making it safe for text-only
// display. Frontend escaping still applies on output.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	// Decode common HTML entities, then re-strip to catch encoded tags.
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a string for safe text storage. Use for user-provided fields
// like pet descriptions, contact messages, and rating comments.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr is a helper for optional string pointers.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}
