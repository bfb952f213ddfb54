// Package storage provides blob storage abstraction for the Fotoden application.
//
// This package defines a Storage interface with implementations for:
// - LocalStorage: File system storage for development
// - S3Storage: S3-compatible object storage (AWS S3, Cloudflare R2, MinIO)
//
// Uploaded originals live under the photos/ namespace and generated
// thumbnails under photos/thumbnails/, with content type detection and
// size enforcement handled here.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for blob storage operations.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key with the given options.
	// Returns an error if the operation fails or if the key already exists
	// (unless overwrite is enabled in opts).
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key.
	// Returns the data as an io.ReadCloser (caller must close), object metadata,
	// and an error. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key.
	// This operation is idempotent - no error is returned if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object at the specified key.
	// For public objects, this is a permanent URL.
	// For private objects, this is a presigned URL valid for the specified duration.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType specifies the MIME type of the object.
	// If empty, it will be auto-detected from the file extension or content.
	ContentType string

	// MaxSize specifies the maximum allowed size in bytes.
	// If the data exceeds this size, ErrTooLarge is returned.
	// A value of 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	// If false and the key exists, ErrKeyExists is returned.
	Overwrite bool

	// Public determines if the object should be publicly accessible.
	// For S3, this sets the ACL to public-read.
	// For local storage, this is informational only.
	Public bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string    // Object key/path
	Size         int64     // Size in bytes
	ContentType  string    // MIME type
	LastModified time.Time // Last modification time
	ETag         string    // Entity tag (if available)
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	// Example: "./storage" or "/var/lib/fotoden/files"
	BasePath string

	// BaseURL is the public URL prefix for accessing files.
	// Example: "http://localhost:8080/files"
	BaseURL string
}

// S3Config holds configuration for S3-compatible object storage.
type S3Config struct {
	// Endpoint is the storage endpoint URL. Leave empty for AWS S3;
	// set for R2 ("https://{account}.r2.cloudflarestorage.com") or MinIO.
	Endpoint string

	// AccessKeyID and SecretAccessKey are the API credentials.
	AccessKeyID     string
	SecretAccessKey string

	// BucketName is the bucket holding all photo blobs.
	BucketName string

	// PublicURL is the public URL for the bucket (if using a custom domain).
	// Example: "https://files.fotoden.app"
	// If empty, presigned URLs will be used for all access.
	PublicURL string

	// Region is the AWS region to use (required by AWS SDK).
	// For R2 this can be "auto" as R2 is globally distributed.
	Region string
}

// =============================================================================
// Provider Constants
// =============================================================================

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderS3 identifies the S3-compatible storage provider.
	ProviderS3 = "s3"
)

// =============================================================================
// Key Generation Helpers
// =============================================================================

const (
	// photoPrefix is the namespace for uploaded originals.
	photoPrefix = "photos"

	// thumbnailPrefix is the namespace for generated thumbnails.
	thumbnailPrefix = "photos/thumbnails"
)

// PhotoKey generates a storage key for an uploaded original.
// Format: photos/{token}{ext}
//
// The token is an opaque random filename generated at upload time; the
// extension is derived from the sniffed content type, never from the
// client-supplied filename.
//
// Example: "photos/k2j4h5g6f7d8s9a0k2j4h5g6f7d8s9a0k2j4h5g6.jpg"
func PhotoKey(token, contentType string) string {
	return fmt.Sprintf("%s/%s%s", photoPrefix, token, ExtensionForContentType(contentType))
}

// ThumbnailKeyFor generates the thumbnail key paired with an original's key.
// Format: photos/thumbnails/thumb_{base}.jpg
//
// Thumbnails are always encoded as JPEG regardless of the original format,
// so the extension is fixed.
//
// Example: "photos/thumbnails/thumb_k2j4h5g6f7d8s9a0.jpg"
func ThumbnailKeyFor(originalKey string) string {
	base := path.Base(originalKey)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return fmt.Sprintf("%s/thumb_%s.jpg", thumbnailPrefix, base)
}
