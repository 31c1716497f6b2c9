package errors

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNodeNameLength bounds display names accepted by rename requests.
const MaxNodeNameLength = 64

// ValidateNodeName validates a node display name coming from a rename request.
//
// Validation rules:
//   - Name cannot be empty or whitespace only
//   - Maximum length of 64 characters
//   - No control characters (the name ends up in title bars and DOT labels)
func ValidateNodeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "node name cannot be empty")
	}

	if utf8.RuneCountInString(name) > MaxNodeNameLength {
		return New(ErrCodeInvalidName, "node name too long (max %d characters)", MaxNodeNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "node name contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL parses, has a safe scheme (http or https) and names a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidURL, "URL must name a host")
	}

	return nil
}
