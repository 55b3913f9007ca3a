// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/liftfinder/liftfinder/directory"
	"github.com/liftfinder/liftfinder/spatial"
	"github.com/spf13/cobra"
)

type directoryOptions struct {
	Lat   float64
	Lng   float64
	Rings int
	Limit int
}

var directoryOpts = &directoryOptions{}

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Query the company directory",
}

var directoryMapCmd = &cobra.Command{
	Use:   "map <state-slug> <city-slug>",
	Short: "Print the map payload of a city page",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) (err error) {
		repo, closeDB, err := openRepository(indexOpts.DbPath, true)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, closeDB())
		}()

		companies, err := repo.CompaniesInCity(args[0], args[1])
		if err != nil {
			return err
		}

		md := directory.BuildMapData(companies)
		if md == nil {
			return fmt.Errorf("no company with coordinates in %s", directory.CityURL(args[0], args[1]))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(md)
	},
}

var directoryNearCmd = &cobra.Command{
	Use:   "near",
	Short: "List the companies closest to a point",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) (err error) {
		p := spatial.Point{Lat: directoryOpts.Lat, Lng: directoryOpts.Lng}
		if !p.Valid() {
			return fmt.Errorf("invalid coordinates %s", p)
		}

		repo, closeDB, err := openRepository(indexOpts.DbPath, true)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, closeDB())
		}()

		nearby, err := repo.CompaniesNear(p, directoryOpts.Rings, directoryOpts.Limit)
		if err != nil {
			return err
		}

		for _, c := range nearby {
			fmt.Printf("%8.0fm\t%s\t%s\t%s\n", c.Distance, c.Name, c.FullAddress, c.URL())
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(directoryCmd)
	directoryCmd.AddCommand(directoryMapCmd)
	directoryCmd.AddCommand(directoryNearCmd)

	directoryCmd.PersistentFlags().StringVar(
		&indexOpts.DbPath,
		"db-path",
		"db",
		"Directory holding the directory database",
	)
	directoryNearCmd.Flags().Float64Var(&directoryOpts.Lat, "lat", 0, "Latitude")
	directoryNearCmd.Flags().Float64Var(&directoryOpts.Lng, "lng", 0, "Longitude")
	directoryNearCmd.Flags().IntVar(&directoryOpts.Rings, "rings", 2, "H3 rings around the point to search")
	directoryNearCmd.Flags().IntVar(&directoryOpts.Limit, "limit", 10, "Maximum number of companies")

	_ = directoryNearCmd.MarkFlagRequired("lat")
	_ = directoryNearCmd.MarkFlagRequired("lng")
}
