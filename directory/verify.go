// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/liftfinder/liftfinder/search"
	"github.com/liftfinder/liftfinder/utils/htmlutils"
	"golang.org/x/net/html"
)

// BrokenLink is an index URL whose page is missing or unusable.
type BrokenLink struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// VerifyOptions configures VerifySite.
type VerifyOptions struct {
	// HTTPClient used when the site is an http(s) base URL.
	HTTPClient *http.Client
}

// VerifySite checks that every distinct URL of ds resolves to an HTML page
// with a non-empty title. site is either a directory holding the generated
// site (pages are <site>/<url>/index.html) or the base URL it is served from.
// The returned error is only set when the check itself could not run.
func VerifySite(ctx context.Context, site string, ds *search.Dataset, opts VerifyOptions) ([]BrokenLink, error) {
	open, err := pageOpener(site, opts)
	if err != nil {
		return nil, err
	}

	var broken []BrokenLink

	seen := map[string]bool{}

	for _, p := range ds.Places() {
		if seen[p.URL] {
			continue
		}

		seen[p.URL] = true

		if err := ctx.Err(); err != nil {
			return broken, err
		}

		if reason := checkPage(ctx, open, p.URL); reason != "" {
			broken = append(broken, BrokenLink{URL: p.URL, Reason: reason})
		}
	}

	return broken, nil
}

type openFunc func(ctx context.Context, url string) (io.ReadCloser, error)

func pageOpener(site string, opts VerifyOptions) (openFunc, error) {
	if strings.HasPrefix(site, "http://") || strings.HasPrefix(site, "https://") {
		client := opts.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}

		base := strings.TrimSuffix(site, "/") + "/"

		return func(ctx context.Context, url string) (io.ReadCloser, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+strings.TrimPrefix(url, "/"), nil)
			if err != nil {
				return nil, err
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}

			r, err := htmlutils.AsReader(resp)
			if err != nil {
				return nil, errors.Join(err, resp.Body.Close())
			}

			return struct {
				io.Reader
				io.Closer
			}{r, resp.Body}, nil
		}, nil
	}

	info, err := os.Stat(site)
	if err != nil {
		return nil, fmt.Errorf("site directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("site directory: %s is not a directory", site)
	}

	return func(_ context.Context, url string) (io.ReadCloser, error) {
		path := filepath.Join(site, filepath.FromSlash(strings.Trim(url, "/")), "index.html")

		return os.Open(path)
	}, nil
}

func checkPage(ctx context.Context, open openFunc, url string) string {
	if strings.Contains(url, "..") {
		return "url escapes the site root"
	}

	rc, err := open(ctx, url)
	if err != nil {
		return err.Error()
	}

	var n *html.Node

	n, err = htmlutils.AsNode(rc)
	if cerr := rc.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}

	if err != nil {
		return err.Error()
	}

	if htmlutils.Title(n) == "" {
		return "page has no title"
	}

	return ""
}
