// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage reads and writes objects on S3 compatible storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Scheme is the URL scheme of object locations (s3://bucket/key).
const Scheme = "s3"

// Config holds the connection settings of the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// ConfigFromEnv reads MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY,
// MINIO_USE_SSL and MINIO_REGION.
func ConfigFromEnv() Config {
	return Config{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Region:    os.Getenv("MINIO_REGION"),
	}
}

// Validate checks that the required settings are present.
func (c Config) Validate() error {
	var missing []string

	if c.Endpoint == "" {
		missing = append(missing, "MINIO_ENDPOINT")
	}

	if c.AccessKey == "" {
		missing = append(missing, "MINIO_ACCESS_KEY")
	}

	if c.SecretKey == "" {
		missing = append(missing, "MINIO_SECRET_KEY")
	}

	if missing != nil {
		return fmt.Errorf("missing object storage settings: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Location is a parsed s3://bucket/key reference.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", Scheme, l.Bucket, l.Key)
}

// IsLocation reports whether s looks like an s3:// reference.
func IsLocation(s string) bool {
	return strings.HasPrefix(s, Scheme+"://")
}

// ParseLocation parses an s3://bucket/key reference.
func ParseLocation(s string) (Location, error) {
	u, err := url.Parse(s)
	if err != nil {
		return Location{}, fmt.Errorf("parsing object location %q: %w", s, err)
	}

	if u.Scheme != Scheme {
		return Location{}, fmt.Errorf("object location %q: scheme must be %s", s, Scheme)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, fmt.Errorf("object location %q: expected %s://bucket/key", s, Scheme)
	}

	return Location{Bucket: u.Host, Key: key}, nil
}

// Client is a thin wrapper over a minio client.
type Client struct {
	client *minio.Client
	region string
}

// NewClient connects to the object store described by cfg.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}

	return &Client{client: mc, region: cfg.Region}, nil
}

// Open returns a reader for the object at loc. The object is checked for
// existence before returning so a missing key is reported here and not on
// the first read.
func (c *Client) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	obj, err := c.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", loc, err)
	}

	if _, err := obj.Stat(); err != nil {
		err = fmt.Errorf("stat %s: %w", loc, err)
		if cerr := obj.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing %s: %w", loc, cerr))
		}

		return nil, err
	}

	return obj, nil
}

// Put stores size bytes from r at loc, creating the bucket when needed.
func (c *Client) Put(ctx context.Context, loc Location, r io.Reader, size int64, contentType string) error {
	exists, err := c.client.BucketExists(ctx, loc.Bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", loc.Bucket, err)
	}

	if !exists {
		if err := c.client.MakeBucket(ctx, loc.Bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", loc.Bucket, err)
		}
	}

	info, err := c.client.PutObject(ctx, loc.Bucket, loc.Key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("putting %s: %w", loc, err)
	}

	log.Printf("Stored %s (%d bytes, etag %s)", loc, info.Size, info.ETag)

	return nil
}

// IsNotFound reports whether err, or any error it wraps, is a missing bucket
// or key.
func IsNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}

	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
