package errors

import (
	"strings"
	"unicode"
)

// ValidateScreenName validates a screen name as it appears in a screen marker.
// It rejects names that are empty, unreasonably long, or contain characters
// that would break id derivation or the composed document.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Must contain at least one alphanumeric character (the id would
//     otherwise collapse to the bare namespace prefix)
//   - Maximum length of 128 characters
func ValidateScreenName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "screen name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidName, "screen name too long (max 128 characters)")
	}

	hasAlnum := false
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "screen name contains invalid control characters")
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasAlnum = true
		}
	}
	if !hasAlnum {
		return New(ErrCodeInvalidName, "screen name must contain at least one letter or digit: %q", name)
	}

	return nil
}

// ValidateProjectName validates a user-supplied project name.
// Project names appear in document titles and publish paths, so the rules
// mirror ValidateScreenName with a longer limit.
func ValidateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "project name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "project name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "project name contains invalid control characters")
		}
	}

	return nil
}

// ValidatePublishPath validates a relative path used when publishing artifacts.
// It prevents path traversal out of the publish directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePublishPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "publish path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "publish path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "publish path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "publish path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "publish path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "publish path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
