// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package htmlutils

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func asHTMLNode(resp *http.Response) (*html.Node, error) {
	r, err := AsReader(resp)
	if err != nil {
		return nil, err
	}

	return AsNode(r)
}

func TestNodeText(t *testing.T) {
	tests := []struct {
		expected string
		input    string
	}{
		{"foo bar", "<div><pre>foo</pre><span>bar</span>"},
		{"Scissor Lift Rentals in Austin, TX", "<h1>\n  Scissor Lift Rentals\n  in Austin, TX\n</h1>"},
		{"", "<div></div>"},
	}

	for _, test := range tests {
		n, err := html.Parse(strings.NewReader(test.input))
		if err != nil {
			t.Fatalf("parsing HTML `%s': %s", test.input, err)
		}

		sb := strings.Builder{}
		NodeText(n, &sb)

		if got := sb.String(); got != test.expected {
			t.Errorf("`%s': expected `%v' but got `%v'", test.input, test.expected, got)
		}
	}
}

func TestAsHTMLReader_WithNonOKStatus(t *testing.T) {
	const msg = "status 404"

	resp := &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("")),
	}

	r, err := asHTMLNode(resp)
	if r != nil {
		t.Errorf("Expected nil reader")
	} else if err == nil || !strings.Contains(err.Error(), msg) {
		t.Errorf("Expected error containing '%s', got %v", msg, err)
	}
}

func TestAsHTMLReader_WithWrongMediaType(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("plain text")),
	}
	resp.Header.Set("Content-Type", "text/plain")

	r, err := asHTMLNode(resp)
	if r != nil {
		t.Errorf("Expected nil reader")
	} else if err == nil || !strings.Contains(err.Error(), "text/plain") {
		t.Errorf("Expected error mentioning media type, got %v", err)
	}
}

func TestAsHTMLReader_HappyPathTranscoding(t *testing.T) {
	htmlData := "<html>hola</html>"
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(htmlData)),
	}
	// Include charset information to test that the reader is correctly created.
	resp.Header.Set("Content-Type", "text/html; charset=iso-8859-1")

	n, err := asHTMLNode(resp)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	sb := strings.Builder{}
	NodeText(n, &sb)

	if sb.String() != "hola" {
		t.Errorf("Expected content")
	}
}

func TestHasHtmlContentType(t *testing.T) {
	tests := []struct {
		expected bool
		input    string
	}{
		{false, ""},
		{false, "text/plain"},
		{true, "text/html"},
		{true, "text/HTml"},
		{true, "text/html; charset=ISO-8859-1"},
	}

	for _, test := range tests {
		if got := hasHTMLContentType(test.input); got != test.expected {
			t.Errorf("`%s': expected %v but got %v", test.input, test.expected, got)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "title in head",
			input: `<!DOCTYPE html>
<html lang="en">
  <head>
    <title>Scissor Lift Rentals in Austin, Texas</title>
  </head>
</html>`,
			expected: "Scissor Lift Rentals in Austin, Texas",
		},
		{
			name:     "no title",
			input:    `<html><head></head><body><title>late</title></body></html>`,
			expected: "",
		},
		{
			name:     "empty title",
			input:    `<html><head><title>  </title></head></html>`,
			expected: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			n, err := html.Parse(strings.NewReader(test.input))
			if err != nil {
				t.Fatal(err)
			}

			if got := Title(n); got != test.expected {
				t.Errorf("expected %q got %q", test.expected, got)
			}
		})
	}
}
