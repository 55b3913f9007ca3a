// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stateAbbreviations = map[string]string{
	"Alabama":              "al",
	"Alaska":               "ak",
	"Arizona":              "az",
	"Arkansas":             "ar",
	"California":           "ca",
	"Colorado":             "co",
	"Connecticut":          "ct",
	"Delaware":             "de",
	"District of Columbia": "dc",
	"Florida":              "fl",
	"Georgia":              "ga",
	"Hawaii":               "hi",
	"Idaho":                "id",
	"Illinois":             "il",
	"Indiana":              "in",
	"Iowa":                 "ia",
	"Kansas":               "ks",
	"Kentucky":             "ky",
	"Louisiana":            "la",
	"Maine":                "me",
	"Maryland":             "md",
	"Massachusetts":        "ma",
	"Michigan":             "mi",
	"Minnesota":            "mn",
	"Mississippi":          "ms",
	"Missouri":             "mo",
	"Montana":              "mt",
	"Nebraska":             "ne",
	"Nevada":               "nv",
	"New Hampshire":        "nh",
	"New Jersey":           "nj",
	"New Mexico":           "nm",
	"New York":             "ny",
	"North Carolina":       "nc",
	"North Dakota":         "nd",
	"Ohio":                 "oh",
	"Oklahoma":             "ok",
	"Oregon":               "or",
	"Pennsylvania":         "pa",
	"Rhode Island":         "ri",
	"South Carolina":       "sc",
	"South Dakota":         "sd",
	"Tennessee":            "tn",
	"Texas":                "tx",
	"Utah":                 "ut",
	"Vermont":              "vt",
	"Virginia":             "va",
	"Washington":           "wa",
	"West Virginia":        "wv",
	"Wisconsin":            "wi",
	"Wyoming":              "wy",
}

var (
	slugDropRe  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
)

// lowerASCIIFolding removes accents, lowercases and trims spaces.
func lowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// Slug turns a name into a URL path segment: "San José" -> "san-jose".
func Slug(s string) string {
	s = lowerASCIIFolding(s)
	s = slugDropRe.ReplaceAllString(s, "")

	return slugSpaceRe.ReplaceAllString(s, "-")
}

// StateSlug returns the two letter abbreviation of a US state, or its Slug
// for anything not in the table.
func StateSlug(state string) string {
	if abbr, ok := stateAbbreviations[strings.TrimSpace(state)]; ok {
		return abbr
	}

	return Slug(state)
}
