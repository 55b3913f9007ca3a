// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/liftfinder/liftfinder/directory"
	"github.com/liftfinder/liftfinder/search"
	"github.com/liftfinder/liftfinder/storage"
	"github.com/liftfinder/liftfinder/utils/httputils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const importBatchSize = 100

type indexOptions struct {
	// DbPath is the directory holding the DuckDB file.
	DbPath string

	// Sheet name of the spreadsheet to import, the first one when empty.
	Sheet string

	// Append keeps the companies already imported.
	Append bool

	// Out is where build writes the search index.
	Out string

	// Publish is an optional s3://bucket/key the index is uploaded to.
	Publish string

	// Site is the generated site directory or base URL to verify.
	Site string
}

var indexOpts = &indexOptions{}

// openRepository opens the directory database. With mustExist it fails
// instead of creating an empty database.
func openRepository(dbPath string, mustExist bool) (directory.CompanyRepository, func() error, error) {
	if err := os.MkdirAll(dbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	path := filepath.Join(dbPath, directory.DatabaseFile)

	if _, err := os.Stat(path); mustExist && errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("database not found at %s - run 'index import' first", path)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := directory.NewCompanyRepository(db)
	if err := repo.CreateSchema(); err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}

	return repo, db.Close, nil
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the company directory and the search index built from it",
}

var indexImportCmd = &cobra.Command{
	Use:   "import <companies.xlsx>",
	Short: "Import the company spreadsheet into the directory database",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) (err error) {
		companies, err := directory.ReadCompaniesXLSX(args[0], directory.XLSXOptions{SheetName: indexOpts.Sheet})
		if err != nil {
			return err
		}

		repo, closeDB, err := openRepository(indexOpts.DbPath, false)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, closeDB())
		}()

		if !indexOpts.Append {
			if err := repo.DeleteAll(); err != nil {
				return fmt.Errorf("clearing companies: %w", err)
			}
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(companies),
				progressbar.OptionSetDescription("Importing "+filepath.Base(args[0])),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		for start := 0; start < len(companies); start += importBatchSize {
			batch := companies[start:min(start+importBatchSize, len(companies))]
			if err := repo.SaveCompanies(batch); err != nil {
				return fmt.Errorf("saving companies: %w", err)
			}

			if bar == nil {
				log.Printf("Imported %d/%d companies", start+len(batch), len(companies))
			} else {
				_ = bar.Add(len(batch))
			}
		}

		if bar != nil {
			_ = bar.Finish()
		}

		count, err := repo.CountCompanies()
		if err != nil {
			return err
		}

		log.Printf("✅ %d companies imported, %d in the directory", len(companies), count)

		return nil
	},
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Write the search index derived from the directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		repo, closeDB, err := openRepository(indexOpts.DbPath, true)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, closeDB())
		}()

		ds, err := directory.BuildIndex(repo)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := ds.Encode(&buf); err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(indexOpts.Out), 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		if err := os.WriteFile(indexOpts.Out, buf.Bytes(), 0o600); err != nil {
			return fmt.Errorf("writing search index: %w", err)
		}

		log.Printf("Search index generated with %d cities and %d zip codes at %s", len(ds.Cities), len(ds.Zips), indexOpts.Out)

		if indexOpts.Publish != "" {
			return publishIndex(cmd.Context(), indexOpts.Publish, buf.Bytes())
		}

		return nil
	},
}

func publishIndex(ctx context.Context, location string, data []byte) error {
	loc, err := storage.ParseLocation(location)
	if err != nil {
		return err
	}

	client, err := storage.NewClient(storage.ConfigFromEnv())
	if err != nil {
		return err
	}

	return client.Put(ctx, loc, bytes.NewReader(data), int64(len(data)), "application/json")
}

var indexVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every search index URL points to an existing page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		src, err := newDataSource()
		if err != nil {
			return err
		}

		ds, err := search.Load(cmd.Context(), src)
		if err != nil {
			return err
		}

		broken, err := directory.VerifySite(cmd.Context(), indexOpts.Site, ds, directory.VerifyOptions{
			HTTPClient: httputils.NewClient(newHTTPClientOptions()),
		})
		if err != nil {
			return err
		}

		for _, b := range broken {
			fmt.Printf("%s\t%s\n", b.URL, b.Reason)
		}

		if len(broken) > 0 {
			return fmt.Errorf("%d broken links in the search index", len(broken))
		}

		log.Printf("✅ %d cities and %d zips resolve to pages in %s", len(ds.Cities), len(ds.Zips), indexOpts.Site)

		return nil
	},
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count companies, cities and zip codes in the directory",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) (err error) {
		repo, closeDB, err := openRepository(indexOpts.DbPath, true)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, closeDB())
		}()

		companies, err := repo.CountCompanies()
		if err != nil {
			return err
		}

		cities, err := repo.ListCities()
		if err != nil {
			return err
		}

		zips, err := repo.ListZips()
		if err != nil {
			return err
		}

		fmt.Printf("companies\t%d\ncities\t%d\nzips\t%d\n", companies, len(cities), len(zips))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexImportCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexVerifyCmd)
	indexCmd.AddCommand(indexStatsCmd)

	indexCmd.PersistentFlags().StringVar(
		&indexOpts.DbPath,
		"db-path",
		"db",
		"Directory holding the directory database",
	)
	indexImportCmd.Flags().StringVar(
		&indexOpts.Sheet,
		"sheet",
		"",
		"Spreadsheet sheet to import (default: the first one)",
	)
	indexImportCmd.Flags().BoolVar(
		&indexOpts.Append,
		"append",
		false,
		"Keep the companies already imported",
	)
	indexBuildCmd.Flags().StringVar(
		&indexOpts.Out,
		"out",
		search.DefaultLocation,
		"Where to write the search index",
	)
	indexBuildCmd.Flags().StringVar(
		&indexOpts.Publish,
		"publish",
		"",
		"Also upload the index to s3://bucket/key (uses MINIO_* settings)",
	)
	indexVerifyCmd.Flags().StringVar(
		&indexOpts.Site,
		"site",
		"output",
		"Generated site directory or the base URL it is served from",
	)
}
