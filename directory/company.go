// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory holds the rental company directory: spreadsheet import,
// the DuckDB store and everything derived from it (search index, map
// payloads and proximity lookups).
package directory

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/liftfinder/liftfinder/spatial"
)

// H3Resolution is the resolution of the cell stored for each company.
// Resolution 7 hexagons are about 5 km² which is the scale of a city
// neighbourhood.
const H3Resolution = 7

// Company is one row of the company spreadsheet.
type Company struct {
	ID          int            `json:"id,omitempty"`
	Name        string         `json:"name"`
	Site        string         `json:"site,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	FullAddress string         `json:"full_address,omitempty"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	PostalCode  string         `json:"postal_code,omitempty"`
	Reviews     string         `json:"reviews,omitempty"`
	ReviewsNum  float64        `json:"reviews_num"`
	Point       *spatial.Point `json:"point,omitempty"`
	StateSlug   string         `json:"state_slug"`
	CitySlug    string         `json:"city_slug"`
	H3Cell      int64          `json:"-"`
}

// URL is the path of the company's city page relative to the site root.
func (c *Company) URL() string {
	return CityURL(c.StateSlug, c.CitySlug)
}

// CityURL builds the relative URL of a city page.
func CityURL(stateSlug, citySlug string) string {
	return stateSlug + "/" + citySlug + "/"
}

// normalize trims the free text fields and fills the derived ones.
func (c *Company) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Site = CleanURL(c.Site)
	c.Phone = strings.TrimSpace(c.Phone)
	c.FullAddress = strings.TrimSpace(c.FullAddress)
	c.City = strings.TrimSpace(c.City)
	c.State = strings.TrimSpace(c.State)
	c.PostalCode = normalizePostalCode(c.PostalCode)
	c.Reviews = strings.TrimSpace(c.Reviews)
	c.ReviewsNum = ParseReviews(c.Reviews)
	c.StateSlug = StateSlug(c.State)
	c.CitySlug = Slug(c.City)
	c.H3Cell = 0

	if c.Point != nil {
		cell, err := c.Point.Cell(H3Resolution)
		if err != nil {
			return err
		}

		c.H3Cell = int64(cell)
	}

	return nil
}

var utmRe = regexp.MustCompile(`[?&]utm_.*$`)

// CleanURL strips utm_* tracking parameters (and everything after them)
// from a company site.
func CleanURL(u string) string {
	return utmRe.ReplaceAllString(strings.TrimSpace(u), "")
}

// ParseReviews returns the numeric value of a reviews cell, 0 when it is
// not a number.
func ParseReviews(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}

	return v
}

// Spreadsheets store zip codes as numbers, so "35203" may come back as
// "35203.0".
func normalizePostalCode(s string) string {
	s = strings.TrimSpace(s)
	if trimmed, ok := strings.CutSuffix(s, ".0"); ok {
		if _, err := strconv.Atoi(trimmed); err == nil {
			return trimmed
		}
	}

	return s
}
