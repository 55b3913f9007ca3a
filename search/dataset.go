// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package search resolves free-text location queries against the site's
// pre-built search index.
package search

import (
	"encoding/json"
	"fmt"
	"io"
)

// Kind tells a city record from a zip code record.
type Kind string

const (
	KindCity Kind = "city"
	KindZip  Kind = "zip"
)

// City is a city page entry of the search index.
type City struct {
	Name  string `json:"name"`  // Springfield
	State string `json:"state"` // Illinois
	URL   string `json:"url"`   // il/springfield/
}

// Zip is a postal code entry of the search index. It points to the page of
// the city the code belongs to.
type Zip struct {
	Code  string `json:"code"`  // 62701
	City  string `json:"city"`  // Springfield
	State string `json:"state"` // Illinois
	URL   string `json:"url"`   // il/springfield/
}

// Place is the flattened view of a City or a Zip record.
type Place struct {
	Kind  Kind
	Name  string
	State string
	URL   string
	Code  string // only set for KindZip
}

// Dataset is the search index. It is loaded once and never mutated
// afterwards, so it can be shared between goroutines.
type Dataset struct {
	Cities []City `json:"cities"`
	Zips   []Zip  `json:"zips"`
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}

	return len(d.Cities) + len(d.Zips)
}

// Places returns every record, cities first, in dataset order.
func (d *Dataset) Places() []Place {
	ret := make([]Place, 0, d.Len())
	if d == nil {
		return ret
	}

	for _, c := range d.Cities {
		ret = append(ret, Place{Kind: KindCity, Name: c.Name, State: c.State, URL: c.URL})
	}

	for _, z := range d.Zips {
		ret = append(ret, Place{Kind: KindZip, Name: z.City, State: z.State, URL: z.URL, Code: z.Code})
	}

	return ret
}

// Decode parses a search index document.
func Decode(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decoding search index: %w", err)
	}

	return &ds, nil
}

// Encode writes the dataset in the format understood by Decode.
func (d *Dataset) Encode(w io.Writer) error {
	out := Dataset{Cities: d.Cities, Zips: d.Zips}
	if out.Cities == nil {
		out.Cities = []City{}
	}

	if out.Zips == nil {
		out.Zips = []Zip{}
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("encoding search index: %w", err)
	}

	return nil
}
