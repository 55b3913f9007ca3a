// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/liftfinder/liftfinder/search"
	"github.com/liftfinder/liftfinder/utils/httputils"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

type globalOptions struct {
	// EnvFile is loaded before running any command when it exists.
	EnvFile string

	// Data is the search index location: a path, an http(s) URL or
	// s3://bucket/key.
	Data string

	// HTTPTrace dumps dataset requests and responses to stderr.
	HTTPTrace bool
}

var rootOptions = &globalOptions{}

var rootCmd = &cobra.Command{
	Use:   "liftfinder",
	Short: "scissor lift rental directory tooling",
	Long: `
liftfinder resolves free text city, state or zip code queries against the
directory search index, builds that index from the company spreadsheet and
serves the search over HTTP.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadEnvFile(rootOptions.EnvFile)
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

func userAgent() string {
	return fmt.Sprintf("liftfinder/%s", Version)
}

func newHTTPClientOptions() httputils.ClientOptions {
	opts := httputils.ClientOptions{UserAgent: userAgent()}
	if rootOptions.HTTPTrace {
		opts.TraceWriter = os.Stderr
	}

	return opts
}

// newDataSource builds the search index source from the --data flag.
func newDataSource() (search.Source, error) {
	return search.NewSource(rootOptions.Data, search.SourceOptions{
		HTTPClient: httputils.NewClient(newHTTPClientOptions()),
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.EnvFile,
		"env-file",
		".env",
		"File with environment variables (MINIO_*) loaded on start",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.Data,
		"data",
		search.DefaultLocation,
		"Search index location: file path, http(s) URL or s3://bucket/key",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.HTTPTrace,
		"http-trace",
		false,
		"Dump HTTP requests and responses to stderr",
	)
}
