// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIndex = `{
  "cities": [
    {"name": "Birmingham", "state": "Alabama", "url": "al/birmingham/"},
    {"name": "Phoenix", "state": "Arizona", "url": "az/phoenix/"}
  ],
  "zips": [
    {"code": "35203", "city": "Birmingham", "state": "Alabama", "url": "al/birmingham/"}
  ]
}`

func TestDecode(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleIndex))
	require.NoError(t, err)

	want := &Dataset{
		Cities: []City{
			{Name: "Birmingham", State: "Alabama", URL: "al/birmingham/"},
			{Name: "Phoenix", State: "Arizona", URL: "az/phoenix/"},
		},
		Zips: []Zip{
			{Code: "35203", City: "Birmingham", State: "Alabama", URL: "al/birmingham/"},
		},
	}

	if diff := cmp.Diff(want, ds); diff != "" {
		t.Errorf("decode mismatch (-expected +got):\n%s", diff)
	}

	assert.Equal(t, 3, ds.Len())
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"cities": [`))
	assert.Error(t, err)
}

func TestPlaces(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleIndex))
	require.NoError(t, err)

	want := []Place{
		{Kind: KindCity, Name: "Birmingham", State: "Alabama", URL: "al/birmingham/"},
		{Kind: KindCity, Name: "Phoenix", State: "Arizona", URL: "az/phoenix/"},
		{Kind: KindZip, Name: "Birmingham", State: "Alabama", URL: "al/birmingham/", Code: "35203"},
	}

	if diff := cmp.Diff(want, ds.Places()); diff != "" {
		t.Errorf("places mismatch (-expected +got):\n%s", diff)
	}

	var empty *Dataset
	assert.Empty(t, empty.Places())
	assert.Zero(t, empty.Len())
}

func TestEncodeEmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Dataset{}).Encode(&buf))
	assert.JSONEq(t, `{"cities":[],"zips":[]}`, buf.String())
}
