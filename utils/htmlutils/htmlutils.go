// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package htmlutils provides utility functions for working with HTML.
package htmlutils

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// NodeText appends the text content of n to sb, words separated by a single
// space.
func NodeText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		for _, field := range strings.Fields(n.Data) {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(field)
		}

		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		NodeText(child, sb)
	}
}

// Validates that response seems to be an HTML response.
func hasHTMLContentType(media string) bool {
	const expectedMedia = "text/html"

	return strings.EqualFold(
		expectedMedia,
		media[0:min(len(media), len(expectedMedia))],
	)
}

// AsReader converts an HTTP response body to an io.Reader with the correct charset.
func AsReader(resp *http.Response) (io.Reader, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	media := resp.Header.Get("Content-Type")
	if !hasHTMLContentType(media) {
		return nil, fmt.Errorf("media type is %s", media)
	}

	rr, err := charset.NewReader(resp.Body, media)
	if err != nil {
		return nil, err
	}

	return rr, nil
}

// AsNode parses an io.Reader as an HTML node.
func AsNode(r io.Reader) (*html.Node, error) {
	n, err := html.Parse(r)
	if nil != err {
		return nil, fmt.Errorf("parsing body as HTML: %w", err)
	}

	return n, nil
}

// Title returns the text of the first <title> element found before <body>.
func Title(n *html.Node) string {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}

		switch {
		case strings.EqualFold("title", child.Data):
			sb := strings.Builder{}
			NodeText(child, &sb)

			return sb.String()
		case strings.EqualFold("body", child.Data):
			// we're done
			return ""
		default:
			if title := Title(child); title != "" {
				return title
			}
		}
	}

	return ""
}
