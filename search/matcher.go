// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"slices"
	"strings"
)

// MaxResults is the length of the shortlist returned for partial matches.
const MaxResults = 5

// Relevance scores of a partial match.
const (
	RelevanceStateOnly    = 0 // only the state matched
	RelevanceQueryHasName = 1 // the query contains the city name
	RelevanceNameHasQuery = 2 // the city name contains the query
	RelevancePrefix       = 3 // the city name starts with the query
)

// Match is a place selected by a query.
type Match struct {
	Kind      Kind   `json:"type"`
	URL       string `json:"url"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Relevance int    `json:"relevance"`
}

// Label is the text shown for the match in a result list.
func (m Match) Label() string {
	return m.Name + ", " + m.State
}

// OutcomeKind enumerates the results of a search.
type OutcomeKind int

const (
	// OutcomeEmptyQuery the query was blank; matching did not run.
	OutcomeEmptyQuery OutcomeKind = iota
	// OutcomeRedirect an exact match was found.
	OutcomeRedirect
	// OutcomeResults partial matches were found.
	OutcomeResults
	// OutcomeNoMatch nothing matched.
	OutcomeNoMatch
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeEmptyQuery: "empty_query",
	OutcomeRedirect:   "redirect",
	OutcomeResults:    "results",
	OutcomeNoMatch:    "no_match",
}

func (k OutcomeKind) String() string {
	if s, ok := outcomeNames[k]; ok {
		return s
	}

	return "unknown"
}

// Outcome is the value produced by Match. Exactly one of Redirect and
// Results is set, and only for OutcomeRedirect and OutcomeResults.
type Outcome struct {
	Kind     OutcomeKind
	Redirect *Match
	Results  []Match
}

// URL returns the navigation target of a redirect outcome.
func (o Outcome) URL() string {
	if o.Redirect == nil {
		return ""
	}

	return o.Redirect.URL
}

// Err maps the failure outcomes to ErrEmptyQuery and ErrNoMatch.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeEmptyQuery:
		return ErrEmptyQuery
	case OutcomeNoMatch:
		return ErrNoMatch
	default:
		return nil
	}
}

// NormalizeQuery trims and lowercases a raw query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Resolve resolves query against ds. It has no side effects: the same
// arguments always produce the same Outcome.
//
// Exact matches win over partial ones and the first exact match in dataset
// order (cities before zips) is selected without any scoring.
func Resolve(query string, ds *Dataset) Outcome {
	q := NormalizeQuery(query)
	if q == "" {
		return Outcome{Kind: OutcomeEmptyQuery}
	}

	if ds == nil {
		return Outcome{Kind: OutcomeNoMatch}
	}

	if m, ok := exactMatch(q, ds); ok {
		return Outcome{Kind: OutcomeRedirect, Redirect: &m}
	}

	results := partialMatches(q, ds)
	if len(results) == 0 {
		return Outcome{Kind: OutcomeNoMatch}
	}

	return Outcome{Kind: OutcomeResults, Results: results}
}

func exactMatch(q string, ds *Dataset) (Match, bool) {
	for _, c := range ds.Cities {
		name := strings.ToLower(c.Name)
		if name == q || name+", "+strings.ToLower(c.State) == q {
			return Match{Kind: KindCity, URL: c.URL, Name: c.Name, State: c.State}, true
		}
	}

	// zip codes are numeric, so the lowercased query is compared verbatim
	for _, z := range ds.Zips {
		if z.Code == q {
			return Match{Kind: KindZip, URL: z.URL, Name: z.City, State: z.State}, true
		}
	}

	return Match{}, false
}

func partialMatches(q string, ds *Dataset) []Match {
	var ret []Match

	for _, c := range ds.Cities {
		name := strings.ToLower(c.Name)
		state := strings.ToLower(c.State)

		if !strings.Contains(name, q) && !strings.Contains(q, name) &&
			!strings.Contains(state, q) && !strings.Contains(q, state) {
			continue
		}

		ret = append(ret, Match{
			Kind:      KindCity,
			URL:       c.URL,
			Name:      c.Name,
			State:     c.State,
			Relevance: relevance(q, name),
		})
	}

	slices.SortStableFunc(ret, func(a, b Match) int {
		return b.Relevance - a.Relevance
	})

	if len(ret) > MaxResults {
		ret = ret[:MaxResults]
	}

	return ret
}

func relevance(q, name string) int {
	switch {
	case strings.HasPrefix(name, q):
		return RelevancePrefix
	case strings.Contains(name, q):
		return RelevanceNameHasQuery
	case strings.Contains(q, name):
		return RelevanceQueryHasName
	default:
		return RelevanceStateOnly
	}
}
