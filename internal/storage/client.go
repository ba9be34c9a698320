package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"furbabies_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client implements ObjectStore using MinIO.
type Client struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewClient creates a new MinIO-backed object store bound to bucket.
func NewClient(cfg config.StorageConfig, bucket string) (*Client, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	mc, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	publicBase := strings.TrimRight(cfg.GetMinIOPublicBaseURL(), "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.GetMinIOUseSSL() {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s", scheme, cfg.GetMinIOEndpoint())
	}

	return &Client{
		client:        mc,
		bucket:        bucket,
		publicBaseURL: publicBase,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist and applies an
// anonymous-download policy so public URLs resolve.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
		}
	}

	policy := fmt.Sprintf(`{
  "Version": "2012-10-17",
  "Statement": [{
    "Effect": "Allow",
    "Principal": {"AWS": ["*"]},
    "Action": ["s3:GetObject"],
    "Resource": ["arn:aws:s3:::%s/*"]
  }]
}`, c.bucket)

	if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy on %s: %w", c.bucket, err)
	}

	return nil
}

// Put stores data under key.
func (c *Client) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	putOpts := minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: opts.CacheControl,
		UserMetadata: opts.Metadata,
	}

	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), putOpts)
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// Delete removes the object under key. MinIO's RemoveObject already succeeds
// for missing keys, which gives us the idempotency the contract requires.
func (c *Client) Delete(ctx context.Context, key string) error {
	err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// List returns up to limit objects under prefix.
func (c *Client) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make([]ObjectInfo, 0, limit)
	for obj := range c.client.ListObjects(listCtx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:         obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			CreatedAt:   obj.LastModified,
		})
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}

// SignURL returns a presigned read URL for key.
func (c *Client) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	signed, err := c.client.PresignedGetObject(ctx, c.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return signed.String(), nil
}

// Exists probes the bucket.
func (c *Client) Exists(ctx context.Context) (bool, error) {
	return c.client.BucketExists(ctx, c.bucket)
}

// PublicURL derives the anonymous-read URL for key.
func (c *Client) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, key)
}

// StoreURI derives the store-native URI for key.
func (c *Client) StoreURI(key string) string {
	return fmt.Sprintf("s3://%s/%s", c.bucket, key)
}

// Bucket returns the bound bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

var _ ObjectStore = (*Client)(nil)
