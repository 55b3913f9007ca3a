// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"errors"
	"fmt"
)

// User facing failures. None of them is fatal: the caller shows the message
// and lets the user try again.
var (
	ErrEmptyQuery = errors.New("empty query")
	ErrNoMatch    = errors.New("no match")
)

// Messages shown to users for each failure.
const (
	MessageEmptyQuery   = "Please enter a city, state, or zip code"
	MessageNoMatch      = "No matches found. Please try a different search term."
	MessageFetchFailure = "An error occurred while searching. Please try again."
)

// FetchError reports that the search index could not be loaded.
type FetchError struct {
	Source     string // where the index was read from
	StatusCode int    // HTTP status, zero when not applicable
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching search index from %s: status %d", e.Source, e.StatusCode)
	}

	return fmt.Sprintf("fetching search index from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err, or any error it wraps, is a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError

	return errors.As(err, &fe)
}

// UserMessage returns the text to show for a search failure, or "" when err
// is nil.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery):
		return MessageEmptyQuery
	case errors.Is(err, ErrNoMatch):
		return MessageNoMatch
	default:
		return MessageFetchFailure
	}
}
