// Package storage provides a domain-agnostic capability for S3-compatible
// object storage. The interface is intentionally narrow so that an in-memory
// implementation can stand in for tests.
package storage

import (
	"context"
	"time"
)

// PutOptions carries per-object metadata for uploads.
type PutOptions struct {
	ContentType  string
	CacheControl string
	// PublicRead marks the object for anonymous read access.
	PublicRead bool
	// Metadata is attached to the object as user metadata.
	Metadata map[string]string
}

// ObjectInfo describes a stored object as reported by a listing.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	CreatedAt   time.Time
}

// ObjectStore is the object store client contract consumed by the media core.
//
// Implementations must make Delete idempotent: deleting a key that does not
// exist is not an error.
type ObjectStore interface {
	// Put stores data under key. The object exists once Put returns nil;
	// on error the object state is unknown to the caller.
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error

	// Delete removes the object under key. Missing keys are ignored.
	Delete(ctx context.Context, key string) error

	// List returns up to limit objects whose keys start with prefix.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)

	// SignURL returns a presigned read URL valid for ttl.
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Exists is a bucket-level health probe.
	Exists(ctx context.Context) (bool, error)

	// PublicURL derives the anonymous-read URL for key. Pure.
	PublicURL(key string) string

	// StoreURI derives the store-native URI (s3://bucket/key) for key. Pure.
	StoreURI(key string) string

	// Bucket returns the bucket name this store is bound to.
	Bucket() string
}
