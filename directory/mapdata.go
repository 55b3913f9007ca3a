// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import "github.com/liftfinder/liftfinder/spatial"

// DefaultZoom is the zoom level of city maps.
const DefaultZoom = 12

// MapLocation is one marker of a city map.
type MapLocation struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   string  `json:"phone,omitempty"`
	Reviews string  `json:"reviews,omitempty"`
	Website string  `json:"website,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// MapData is the payload consumed by the city page map.
type MapData struct {
	Center    spatial.Point `json:"center"`
	Zoom      int           `json:"zoom"`
	Locations []MapLocation `json:"locations"`
}

// BuildMapData returns the map payload for companies, keeping their order.
// Companies without coordinates are left out; the result is nil when none
// has them.
func BuildMapData(companies []*Company) *MapData {
	var (
		points    []spatial.Point
		locations []MapLocation
	)

	for _, c := range companies {
		if c.Point == nil {
			continue
		}

		points = append(points, *c.Point)
		locations = append(locations, MapLocation{
			Name:    c.Name,
			Address: c.FullAddress,
			Phone:   c.Phone,
			Reviews: c.Reviews,
			Website: c.Site,
			Lat:     c.Point.Lat,
			Lng:     c.Point.Lng,
		})
	}

	center, ok := spatial.Centroid(points)
	if !ok {
		return nil
	}

	return &MapData{Center: center, Zoom: DefaultZoom, Locations: locations}
}
