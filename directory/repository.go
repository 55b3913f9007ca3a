// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/liftfinder/liftfinder/spatial"
)

// DatabaseFile is the name of the DuckDB file inside the db directory.
const DatabaseFile = "liftfinder.duckdb"

// CityRecord is a city with at least one company.
type CityRecord struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	StateSlug string `json:"state_slug"`
	CitySlug  string `json:"city_slug"`
	Companies int    `json:"companies"`
}

// ZipRecord is a postal code seen in a city.
type ZipRecord struct {
	Code      string `json:"code"`
	City      string `json:"city"`
	State     string `json:"state"`
	StateSlug string `json:"state_slug"`
	CitySlug  string `json:"city_slug"`
}

// NearbyCompany is a company with its distance to the point of a
// CompaniesNear lookup.
type NearbyCompany struct {
	*Company
	Distance float64 `json:"distance_m"`
}

// CompanyRepository handles persistence of the company directory.
type CompanyRepository interface {
	// CreateSchema creates the companies table
	CreateSchema() error

	// SaveCompanies inserts companies, filling their derived fields
	SaveCompanies(companies []*Company) error

	// DeleteAll removes every company
	DeleteAll() error

	// CountCompanies returns the total number of companies
	CountCompanies() (int, error)

	// ListCities returns the cities ordered by state name and city name
	ListCities() ([]*CityRecord, error)

	// ListZips returns the postal codes ordered by state name, city name and
	// first appearance
	ListZips() ([]*ZipRecord, error)

	// CompaniesInCity returns the companies of a city, most reviewed first
	CompaniesInCity(stateSlug, citySlug string) ([]*Company, error)

	// CompaniesNear returns the companies within rings H3 rings of p,
	// closest first
	CompaniesNear(p spatial.Point, rings, limit int) ([]*NearbyCompany, error)
}

type sqlCompanyRepository struct {
	db *sql.DB
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db *sql.DB) CompanyRepository {
	return &sqlCompanyRepository{db: db}
}

func (r *sqlCompanyRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS companies_seq START 1;

		CREATE TABLE IF NOT EXISTS companies (
			id INTEGER PRIMARY KEY DEFAULT nextval('companies_seq'),
			name VARCHAR NOT NULL,
			site VARCHAR NOT NULL DEFAULT '',
			phone VARCHAR NOT NULL DEFAULT '',
			full_address VARCHAR NOT NULL DEFAULT '',
			city VARCHAR NOT NULL DEFAULT '',
			state VARCHAR NOT NULL DEFAULT '',
			postal_code VARCHAR NOT NULL DEFAULT '',
			reviews VARCHAR NOT NULL DEFAULT '',
			reviews_num DOUBLE NOT NULL DEFAULT 0,
			lat DOUBLE,
			lng DOUBLE,
			state_slug VARCHAR NOT NULL DEFAULT '',
			city_slug VARCHAR NOT NULL DEFAULT '',
			h3_res7 BIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating companies schema: %w", err)
	}

	return nil
}

func (r *sqlCompanyRepository) SaveCompanies(companies []*Company) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO companies(
			name,
			site,
			phone,
			full_address,
			city,
			state,
			postal_code,
			reviews,
			reviews_num,
			lat,
			lng,
			state_slug,
			city_slug,
			h3_res7
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	for _, c := range companies {
		if err = c.normalize(); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("company %q: %w", c.Name, err)
		}

		var lat, lng, cell any
		if c.Point != nil {
			lat, lng, cell = c.Point.Lat, c.Point.Lng, c.H3Cell
		}

		_, err = stmt.Exec(
			c.Name,
			c.Site,
			c.Phone,
			c.FullAddress,
			c.City,
			c.State,
			c.PostalCode,
			c.Reviews,
			c.ReviewsNum,
			lat,
			lng,
			c.StateSlug,
			c.CitySlug,
			cell,
		)
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return fmt.Errorf("inserting company %q: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

func (r *sqlCompanyRepository) DeleteAll() error {
	_, err := r.db.Exec(`DELETE FROM companies`)

	return err
}

func (r *sqlCompanyRepository) CountCompanies() (int, error) {
	var count int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM companies`).Scan(&count)

	return count, err
}

func (r *sqlCompanyRepository) ListCities() ([]*CityRecord, error) {
	rows, err := r.db.Query(`
		SELECT city, state, state_slug, city_slug, COUNT(*)
		FROM companies
		WHERE state_slug <> '' AND city_slug <> ''
		GROUP BY city, state, state_slug, city_slug
		ORDER BY state, city
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []*CityRecord

	for rows.Next() {
		c := &CityRecord{}
		if err := rows.Scan(&c.Name, &c.State, &c.StateSlug, &c.CitySlug, &c.Companies); err != nil {
			return nil, err
		}

		cities = append(cities, c)
	}

	return cities, rows.Err()
}

func (r *sqlCompanyRepository) ListZips() ([]*ZipRecord, error) {
	rows, err := r.db.Query(`
		SELECT postal_code, city, state, state_slug, city_slug
		FROM companies
		WHERE postal_code <> '' AND state_slug <> '' AND city_slug <> ''
		GROUP BY postal_code, city, state, state_slug, city_slug
		ORDER BY state, city, MIN(id)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zips []*ZipRecord

	for rows.Next() {
		z := &ZipRecord{}
		if err := rows.Scan(&z.Code, &z.City, &z.State, &z.StateSlug, &z.CitySlug); err != nil {
			return nil, err
		}

		zips = append(zips, z)
	}

	return zips, rows.Err()
}

const companyColumns = `id, name, site, phone, full_address, city, state, postal_code,
	reviews, reviews_num, lat, lng, state_slug, city_slug, h3_res7`

func (r *sqlCompanyRepository) CompaniesInCity(stateSlug, citySlug string) ([]*Company, error) {
	return r.list(`
		SELECT `+companyColumns+`
		FROM companies
		WHERE state_slug = ? AND city_slug = ?
		ORDER BY reviews_num DESC, id
	`, []any{stateSlug, citySlug})
}

func (r *sqlCompanyRepository) CompaniesNear(p spatial.Point, rings, limit int) ([]*NearbyCompany, error) {
	if rings < 0 {
		return nil, fmt.Errorf("rings must be positive, got %d", rings)
	}

	cells, err := p.Disk(H3Resolution, rings)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(cells))
	args := make([]any, len(cells))

	for i, cell := range cells {
		placeholders[i] = "?"
		args[i] = int64(cell)
	}

	companies, err := r.list(`
		SELECT `+companyColumns+`
		FROM companies
		WHERE h3_res7 IN (`+strings.Join(placeholders, ", ")+`)
	`, args)
	if err != nil {
		return nil, err
	}

	nearby := make([]*NearbyCompany, 0, len(companies))
	for _, c := range companies {
		nearby = append(nearby, &NearbyCompany{Company: c, Distance: p.HaversineDistance(c.Point)})
	}

	slices.SortStableFunc(nearby, func(a, b *NearbyCompany) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return a.ID - b.ID
		}
	})

	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}

	return nearby, nil
}

func (r *sqlCompanyRepository) list(query string, args []any) ([]*Company, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*Company

	for rows.Next() {
		c := &Company{}

		var lat, lng sql.NullFloat64

		var cell sql.NullInt64

		err := rows.Scan(
			&c.ID, &c.Name, &c.Site, &c.Phone, &c.FullAddress,
			&c.City, &c.State, &c.PostalCode,
			&c.Reviews, &c.ReviewsNum, &lat, &lng,
			&c.StateSlug, &c.CitySlug, &cell,
		)
		if err != nil {
			return nil, err
		}

		if lat.Valid && lng.Valid {
			c.Point = &spatial.Point{Lat: lat.Float64, Lng: lng.Float64}
		}

		if cell.Valid {
			c.H3Cell = cell.Int64
		}

		companies = append(companies, c)
	}

	return companies, rows.Err()
}
