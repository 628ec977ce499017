package errors

import (
	"strings"
	"unicode"
)

// ValidateOutputPath validates a user-supplied output path for safety.
// It prevents path traversal and rejects unreasonably long paths.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || (unicode.IsControl(r) && r != '\t') {
			return New(ErrCodeInvalidInput, "output path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "output path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateFormat checks an output format name against the supported set.
// The supported set is supplied by the caller so that render sinks can be
// added without touching this package.
func ValidateFormat(format string, supported map[string]bool) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !supported[strings.ToLower(format)] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q", format)
	}
	return nil
}

// ValidateHalfOpenRange checks that [lo, hi) is a well-formed half-open
// range within a sequence of length n.
func ValidateHalfOpenRange(lo, hi, n int) error {
	if lo < 0 || hi > n || lo >= hi {
		return New(ErrCodeInvalidRange, "invalid range [%d, %d) over %d elements", lo, hi, n)
	}
	return nil
}
