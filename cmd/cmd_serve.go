// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/liftfinder/liftfinder/directory"
	"github.com/liftfinder/liftfinder/server"
	"github.com/liftfinder/liftfinder/storage"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	server.Options

	DbPath string
}

var serveOpts = &serveOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the search server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) (err error) {
		src, err := newDataSource()
		if err != nil {
			return err
		}

		serveOpts.DataSource = src

		var repo directory.CompanyRepository

		if _, statErr := os.Stat(filepath.Join(serveOpts.DbPath, directory.DatabaseFile)); statErr == nil {
			var closeDB func() error

			repo, closeDB, err = openRepository(serveOpts.DbPath, true)
			if err != nil {
				return err
			}

			defer func() {
				err = errors.Join(err, closeDB())
			}()
		} else {
			log.Printf("⚠️ no directory database in %s, map and nearby endpoints are disabled", serveOpts.DbPath)
		}

		s := server.New(serveOpts.Options, repo)

		// a failed load keeps the server up; searches answer with the
		// fetch failure message
		if err := s.Bootstrap(cmd.Context()); err != nil && storage.IsNotFound(err) {
			log.Printf("⚠️ %s does not exist, publish it with 'index build --publish'", src)
		}

		return s.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.Addr, "addr", "localhost:8080", "Listen address")
	serveCmd.Flags().StringVar(&serveOpts.SiteDir, "site", "output", "Generated site served for every other path (empty to disable)")
	serveCmd.Flags().StringVar(&serveOpts.DbPath, "db-path", "db", "Directory holding the directory database")
	serveCmd.Flags().StringSliceVar(&serveOpts.AllowedOrigins, "cors-origin", nil, "Origins allowed to call /api (default: any)")
}
