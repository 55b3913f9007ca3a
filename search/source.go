// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/liftfinder/liftfinder/storage"
	"github.com/liftfinder/liftfinder/utils/httputils"
)

// DefaultLocation is where the site generator writes the search index.
const DefaultLocation = "output/assets/data/search-data.json"

// Source is somewhere a search index can be read from.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// SourceOptions configures NewSource.
type SourceOptions struct {
	// HTTPClient used by HTTP sources. Defaults to httputils.NewClient with
	// no options.
	HTTPClient *http.Client

	// Storage settings used by s3:// sources. Defaults to
	// storage.ConfigFromEnv().
	Storage *storage.Config
}

// NewSource picks the Source implementation for location: s3://bucket/key,
// http(s):// URLs or a local path.
func NewSource(location string, opts SourceOptions) (Source, error) {
	location = strings.TrimSpace(location)

	switch {
	case location == "":
		return nil, errors.New("search index location is empty")
	case storage.IsLocation(location):
		loc, err := storage.ParseLocation(location)
		if err != nil {
			return nil, err
		}

		cfg := storage.ConfigFromEnv()
		if opts.Storage != nil {
			cfg = *opts.Storage
		}

		return &S3Source{Location: loc, Config: cfg}, nil
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		client := opts.HTTPClient
		if client == nil {
			client = httputils.NewClient(httputils.ClientOptions{})
		}

		return &HTTPSource{URL: location, Client: client}, nil
	default:
		return FileSource(location), nil
	}
}

// FileSource reads the index from the local filesystem.
type FileSource string

func (f FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(string(f))
}

func (f FileSource) String() string {
	return string(f)
}

// HTTPSource downloads the index with a GET request.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			return nil, &FetchError{Source: h.URL, StatusCode: resp.StatusCode, Err: cerr}
		}

		return nil, &FetchError{Source: h.URL, StatusCode: resp.StatusCode}
	}

	return resp.Body, nil
}

func (h *HTTPSource) String() string {
	return h.URL
}

// S3Source reads the index from an S3 compatible bucket.
type S3Source struct {
	Location storage.Location
	Config   storage.Config
}

func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	client, err := storage.NewClient(s.Config)
	if err != nil {
		return nil, err
	}

	return client.Open(ctx, s.Location)
}

func (s *S3Source) String() string {
	return s.Location.String()
}

// Load reads and decodes the index from src. It makes a single attempt and
// every failure is returned as a *FetchError.
func Load(ctx context.Context, src Source) (ds *Dataset, err error) {
	rc, err := src.Open(ctx)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, err
		}

		return nil, &FetchError{Source: src.String(), Err: err}
	}

	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = &FetchError{Source: src.String(), Err: fmt.Errorf("closing: %w", cerr)}
			ds = nil
		}
	}()

	ds, err = Decode(rc)
	if err != nil {
		return nil, &FetchError{Source: src.String(), Err: err}
	}

	return ds, nil
}

// Result is the terminal state of a fetch: either Dataset or Err is set.
type Result struct {
	Dataset *Dataset
	Err     error
}

// Fetch starts loading src in the background. The returned channel yields
// exactly one Result and is then closed.
func Fetch(ctx context.Context, src Source) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		defer close(ch)

		ds, err := Load(ctx, src)
		ch <- Result{Dataset: ds, Err: err}
	}()

	return ch
}
