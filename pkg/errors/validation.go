package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDocumentName validates a flow document name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 256 characters
func ValidateDocumentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidDocument, "document name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidDocument, "document name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidDocument, "document name contains invalid control characters")
		}
	}

	return nil
}

// documentIDRegex matches the IDs the store assigns (UUIDs) plus simple
// user-chosen slugs.
var documentIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateDocumentID validates a document identifier used in URLs and
// cache keys. It rejects anything that could be used for path traversal or
// key injection.
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDocument, "document id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidDocument, "document id too long (max 128 characters)")
	}

	if !documentIDRegex.MatchString(id) {
		return New(ErrCodeInvalidDocument, "invalid document id: %q", id)
	}

	return nil
}

// nodeIDRegex matches node identifiers: type slugs with numeric suffixes
// plus the fixed terminal IDs.
var nodeIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateNodeID validates a graph node identifier.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "node id too long (max 128 characters)")
	}

	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid node id: %q", id)
	}

	return nil
}

// renderFormats are the artifact formats the render layer produces.
var renderFormats = map[string]bool{
	"svg":  true,
	"png":  true,
	"dot":  true,
	"json": true,
}

// ValidateFormat validates a render output format.
func ValidateFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !renderFormats[format] {
		return New(ErrCodeInvalidFormat, "unsupported format: %q (expected svg, png, dot, or json)", format)
	}
	return nil
}

// renderThemes are the color schemes the render layer supports.
var renderThemes = map[string]bool{
	"light": true,
	"dark":  true,
}

// ValidateTheme validates a render color theme.
func ValidateTheme(theme string) error {
	if theme == "" {
		return nil // empty selects the default theme
	}
	if !renderThemes[theme] {
		return New(ErrCodeInvalidTheme, "unsupported theme: %q (expected light or dark)", theme)
	}
	return nil
}

// ValidatePath validates a file path within a workspace for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
