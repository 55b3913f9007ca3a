// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/liftfinder/liftfinder/search"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	JSON bool
}

var searchOpts = &searchOptions{}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Resolve a city, state or zip code query against the search index",
	Long: `Resolves the query given as arguments, or one query per line read from
stdin, and prints where it leads.

$ liftfinder search Austin
redirect	tx/austin/
$ echo spring | liftfinder search
results	spring
  3	Springfield, Illinois	il/springfield/
  3	Spring Valley, Nevada	nv/spring-valley/
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newDataSource()
		if err != nil {
			return err
		}

		// the index is loaded once; every query of the session reuses it
		res := <-search.Fetch(cmd.Context(), src)
		if res.Err != nil {
			fmt.Fprintln(os.Stderr, search.UserMessage(res.Err))

			return res.Err
		}

		if len(args) > 0 {
			return printOutcome(os.Stdout, strings.Join(args, " "), search.Resolve(strings.Join(args, " "), res.Dataset), searchOpts.JSON)
		}

		return searchLines(cmd.Context(), os.Stdin, os.Stdout, res.Dataset)
	},
}

func searchLines(ctx context.Context, in *os.File, out io.Writer, ds *search.Dataset) error {
	if isatty.IsTerminal(in.Fd()) {
		fmt.Fprintln(os.Stderr, "Enter a city, state or zip code per line…")
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		query := scanner.Text()
		if err := printOutcome(out, query, search.Resolve(query, ds), searchOpts.JSON); err != nil {
			return err
		}
	}

	return scanner.Err()
}

type outcomeJSON struct {
	Query   string         `json:"query"`
	Outcome string         `json:"outcome"`
	URL     string         `json:"url,omitempty"`
	Results []search.Match `json:"results,omitempty"`
	Message string         `json:"message,omitempty"`
}

func printOutcome(w io.Writer, query string, out search.Outcome, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(outcomeJSON{
			Query:   query,
			Outcome: out.Kind.String(),
			URL:     out.URL(),
			Results: out.Results,
			Message: search.UserMessage(out.Err()),
		})
	}

	var err error

	switch out.Kind {
	case search.OutcomeRedirect:
		_, err = fmt.Fprintf(w, "redirect\t%s\n", out.URL())
	case search.OutcomeResults:
		_, err = fmt.Fprintf(w, "results\t%s\n", strings.TrimSpace(query))
		for _, m := range out.Results {
			if err != nil {
				break
			}

			_, err = fmt.Fprintf(w, "  %d\t%s\t%s\n", m.Relevance, m.Label(), m.URL)
		}
	default:
		_, err = fmt.Fprintf(w, "%s\t%s\n", out.Kind, search.UserMessage(out.Err()))
	}

	return err
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(
		&searchOpts.JSON,
		"json",
		false,
		"Print one JSON object per query",
	)
}
