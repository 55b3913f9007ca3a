// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/liftfinder/liftfinder/spatial"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures ReadCompaniesXLSX.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// Spreadsheet column names.
const (
	ColumnName        = "name"
	ColumnSite        = "site"
	ColumnPhone       = "phone"
	ColumnFullAddress = "full_address"
	ColumnCity        = "city"
	ColumnState       = "us_state"
	ColumnPostalCode  = "postal_code"
	ColumnReviews     = "reviews"
	ColumnLatitude    = "latitude"
	ColumnLongitude   = "longitude"
)

// ReadCompaniesXLSX reads the company spreadsheet. The first row is the
// header and columns are matched by name, so their order does not matter and
// missing columns leave the field empty. Rows without a name are skipped.
func ReadCompaniesXLSX(path string, opts XLSXOptions) ([]*Company, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet %s: %w", path, err)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	columns := map[string]int{}
	for i, cell := range sheet.Rows[0].Cells {
		columns[strings.ToLower(strings.TrimSpace(cell.String()))] = i
	}

	if _, ok := columns[ColumnName]; !ok {
		return nil, fmt.Errorf("sheet %q: missing %q column", sheet.Name, ColumnName)
	}

	var companies []*Company

	for i, row := range sheet.Rows[1:] {
		get := func(column string) string {
			idx, ok := columns[column]
			if !ok || idx >= len(row.Cells) {
				return ""
			}

			return strings.TrimSpace(row.Cells[idx].String())
		}

		c := &Company{
			Name:        get(ColumnName),
			Site:        get(ColumnSite),
			Phone:       get(ColumnPhone),
			FullAddress: get(ColumnFullAddress),
			City:        get(ColumnCity),
			State:       get(ColumnState),
			PostalCode:  get(ColumnPostalCode),
			Reviews:     get(ColumnReviews),
		}

		if c.Name == "" {
			continue
		}

		point, err := parsePoint(get(ColumnLatitude), get(ColumnLongitude))
		if err != nil {
			// +2: one for the header and one because rows are 1-based
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		c.Point = point

		if err := c.normalize(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		companies = append(companies, c)
	}

	return companies, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, fmt.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}

		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, fmt.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

// parsePoint returns nil when either coordinate is missing.
func parsePoint(lat, lng string) (*spatial.Point, error) {
	if lat == "" || lng == "" {
		return nil, nil
	}

	latV, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}

	lngV, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", lng, err)
	}

	p := &spatial.Point{Lat: latV, Lng: lngV}
	if !p.Valid() {
		return nil, fmt.Errorf("coordinates out of range: %s", p)
	}

	return p, nil
}
