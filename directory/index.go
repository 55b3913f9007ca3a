// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"fmt"

	"github.com/liftfinder/liftfinder/search"
)

// BuildIndex derives the search index from the directory. Cities come
// ordered by state name and then city name; zips are grouped after the same
// ordering and keep their first-seen order within a city.
func BuildIndex(repo CompanyRepository) (*search.Dataset, error) {
	cities, err := repo.ListCities()
	if err != nil {
		return nil, fmt.Errorf("listing cities: %w", err)
	}

	zips, err := repo.ListZips()
	if err != nil {
		return nil, fmt.Errorf("listing zips: %w", err)
	}

	type cityKey struct {
		name, state, stateSlug, citySlug string
	}

	zipsByCity := map[cityKey][]*ZipRecord{}
	for _, z := range zips {
		k := cityKey{z.City, z.State, z.StateSlug, z.CitySlug}
		zipsByCity[k] = append(zipsByCity[k], z)
	}

	ds := &search.Dataset{
		Cities: make([]search.City, 0, len(cities)),
		Zips:   make([]search.Zip, 0, len(zips)),
	}

	for _, c := range cities {
		url := CityURL(c.StateSlug, c.CitySlug)

		ds.Cities = append(ds.Cities, search.City{Name: c.Name, State: c.State, URL: url})

		for _, z := range zipsByCity[cityKey{c.Name, c.State, c.StateSlug, c.CitySlug}] {
			ds.Zips = append(ds.Zips, search.Zip{Code: z.Code, City: c.Name, State: c.State, URL: url})
		}
	}

	return ds, nil
}
