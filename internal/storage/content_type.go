package storage

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// =============================================================================
// Content Type Detection
// =============================================================================

// DetectContentType determines the MIME type of a file.
//
// Detection priority:
// 1. Sniff content from the first 512 bytes of data (if available)
// 2. Try to detect from file extension using mime.TypeByExtension
// 3. If providedType is non-empty, use it
// 4. Fall back to "application/octet-stream"
//
// Content sniffing comes first because the upload pipeline must never trust
// the client-supplied Content-Type header for validation decisions.
func DetectContentType(providedType, filename string, data io.Reader) string {
	// 1. Sniff from content when a reader is available
	if data != nil {
		buffer := make([]byte, 512)
		n, err := io.ReadFull(data, buffer)
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			if ct := http.DetectContentType(buffer[:n]); ct != "application/octet-stream" {
				return ct
			}
		}
	}

	// 2. Extension-based detection
	ext := strings.ToLower(filepath.Ext(filename))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	// 3. Caller-provided type
	if providedType != "" {
		return providedType
	}

	// 4. Generic binary type
	return "application/octet-stream"
}

// NormalizeContentType strips parameters (e.g. charset) and lowercases
// a MIME type, and folds the legacy image/jpg spelling into image/jpeg.
func NormalizeContentType(contentType string) string {
	baseType := strings.Split(contentType, ";")[0]
	baseType = strings.TrimSpace(strings.ToLower(baseType))
	if baseType == "image/jpg" {
		baseType = "image/jpeg"
	}
	return baseType
}

// IsImage returns true if the content type is any image format.
func IsImage(contentType string) bool {
	return strings.HasPrefix(NormalizeContentType(contentType), "image/")
}

// =============================================================================
// File Extension Helpers
// =============================================================================

// ExtensionForContentType returns a common file extension for a MIME type.
// Used when generating storage keys from sniffed content types.
func ExtensionForContentType(contentType string) string {
	switch NormalizeContentType(contentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}

	// Fall back to the mime package's reverse lookup
	exts, err := mime.ExtensionsByType(contentType)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}

	return ".bin"
}
