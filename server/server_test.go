// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/liftfinder/liftfinder/directory"
	"github.com/liftfinder/liftfinder/search"
	"github.com/liftfinder/liftfinder/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIndex = `{
  "cities": [
    {"name": "Springfield", "state": "Illinois", "url": "il/springfield/"},
    {"name": "Spring Valley", "state": "Nevada", "url": "nv/spring-valley/"},
    {"name": "Austin", "state": "Texas", "url": "tx/austin/"}
  ],
  "zips": [
    {"code": "73301", "city": "Austin", "state": "Texas", "url": "tx/austin/"}
  ]
}`

func writeIndex(t *testing.T) search.Source {
	t.Helper()

	path := filepath.Join(t.TempDir(), "search-data.json")
	require.NoError(t, os.WriteFile(path, []byte(testIndex), 0o600))

	return search.FileSource(path)
}

func setupRepo(t *testing.T) directory.CompanyRepository {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := directory.NewCompanyRepository(db)
	require.NoError(t, repo.CreateSchema())
	require.NoError(t, repo.SaveCompanies([]*directory.Company{
		{Name: "Capitol Lifts", City: "Austin", State: "Texas", Reviews: "120", Point: &spatial.Point{Lat: 30.27, Lng: -97.74}},
		{Name: "Lone Star Lifts", City: "Austin", State: "Texas", Reviews: "5", Point: &spatial.Point{Lat: 30.25, Lng: -97.76}},
		{Name: "Hill Country Aerial", City: "Dripping Springs", State: "Texas"},
	}))

	return repo
}

func setupServerTest(t *testing.T, opts Options, repo directory.CompanyRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := New(opts, repo)
	_ = s.Bootstrap(context.Background())

	return s.Router()
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())

	return body
}

func TestAPISearch(t *testing.T) {
	router := setupServerTest(t, Options{DataSource: writeIndex(t)}, nil)

	tests := []struct {
		name    string
		query   string
		status  int
		outcome string
		check   func(t *testing.T, body map[string]any)
	}{
		{
			name:    "exact city",
			query:   "austin",
			status:  http.StatusOK,
			outcome: "redirect",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "/tx/austin/", body["url"])
			},
		},
		{
			name:    "zip",
			query:   "73301",
			status:  http.StatusOK,
			outcome: "redirect",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "/tx/austin/", body["url"])
				match := body["match"].(map[string]any)
				assert.Equal(t, "zip", match["type"])
			},
		},
		{
			name:    "partial",
			query:   "spring",
			status:  http.StatusOK,
			outcome: "results",
			check: func(t *testing.T, body map[string]any) {
				results := body["results"].([]any)
				require.Len(t, results, 2)
				first := results[0].(map[string]any)
				assert.Equal(t, "Springfield, Illinois", first["label"])
				assert.Equal(t, "il/springfield/", first["url"])
				assert.InDelta(t, 3, first["relevance"], 0)
			},
		},
		{
			name:    "empty",
			query:   "  ",
			status:  http.StatusBadRequest,
			outcome: "empty_query",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, search.MessageEmptyQuery, body["error"])
			},
		},
		{
			name:    "no match",
			query:   "zzzzz",
			status:  http.StatusNotFound,
			outcome: "no_match",
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, search.MessageNoMatch, body["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, router, "/api/search?q="+strings.ReplaceAll(tt.query, " ", "+"))
			assert.Equal(t, tt.status, w.Code)

			body := decode(t, w)
			assert.Equal(t, tt.outcome, body["outcome"])
			tt.check(t, body)
		})
	}
}

func TestAPISearchFetchFailure(t *testing.T) {
	missing := search.FileSource(filepath.Join(t.TempDir(), "missing.json"))
	router := setupServerTest(t, Options{DataSource: missing}, nil)

	w := get(t, router, "/api/search?q=austin")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	body := decode(t, w)
	assert.Equal(t, "fetch_failure", body["outcome"])
	assert.Equal(t, search.MessageFetchFailure, body["error"])

	// empty queries are still validated first
	w = get(t, router, "/api/search?q=")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DEGRADED", decode(t, w)["status"])
}

func TestBootstrapRunsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search-data.json")
	require.NoError(t, os.WriteFile(path, []byte(testIndex), 0o600))

	s := New(Options{DataSource: search.FileSource(path)}, nil)
	require.NoError(t, s.Bootstrap(context.Background()))

	require.NoError(t, os.Remove(path))
	require.NoError(t, s.Bootstrap(context.Background()))
	assert.Equal(t, 4, s.dataset.Len())

	assert.Error(t, New(Options{}, nil).Bootstrap(context.Background()))
}

func TestSearchPage(t *testing.T) {
	router := setupServerTest(t, Options{DataSource: writeIndex(t)}, nil)

	w := get(t, router, "/search?q=Austin")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/tx/austin/", w.Header().Get("Location"))

	w = get(t, router, "/search?q=spring")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<a href="/il/springfield/">Springfield, Illinois</a>`)
	assert.Contains(t, w.Body.String(), `<a href="/nv/spring-valley/">Spring Valley, Nevada</a>`)

	w = get(t, router, "/search?q=zzzzz")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), search.MessageNoMatch)

	w = get(t, router, "/search")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), search.MessageEmptyQuery)
}

func TestAPIMap(t *testing.T) {
	router := setupServerTest(t, Options{DataSource: writeIndex(t)}, setupRepo(t))

	w := get(t, router, "/api/map/tx/austin")
	require.Equal(t, http.StatusOK, w.Code)

	var md directory.MapData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &md))
	assert.Equal(t, directory.DefaultZoom, md.Zoom)
	assert.InDelta(t, 30.26, md.Center.Lat, 1e-9)
	assert.InDelta(t, -97.75, md.Center.Lng, 1e-9)
	require.Len(t, md.Locations, 2)
	assert.Equal(t, "Capitol Lifts", md.Locations[0].Name)

	w = get(t, router, "/api/map/tx/dripping-springs")
	assert.Equal(t, http.StatusNotFound, w.Code)

	router = setupServerTest(t, Options{DataSource: writeIndex(t)}, nil)
	w = get(t, router, "/api/map/tx/austin")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPINearby(t *testing.T) {
	router := setupServerTest(t, Options{DataSource: writeIndex(t)}, setupRepo(t))

	w := get(t, router, "/api/nearby?lat=30.27&lng=-97.74&rings=3")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	companies := body["companies"].([]any)
	require.NotEmpty(t, companies)
	assert.Equal(t, "Capitol Lifts", companies[0].(map[string]any)["name"])

	for _, target := range []string{
		"/api/nearby?lat=abc&lng=-97.74",
		"/api/nearby?lat=95&lng=-97.74",
		"/api/nearby?lat=30.27&lng=-97.74&rings=99",
		"/api/nearby?lat=30.27&lng=-97.74&limit=-1",
	} {
		w = get(t, router, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}

	w = get(t, router, "/api/nearby?lat=0&lng=0")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["companies"])
}

func TestHealth(t *testing.T) {
	router := setupServerTest(t, Options{DataSource: writeIndex(t)}, nil)

	w := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "OK", body["status"])
	assert.InDelta(t, 4, body["places"], 0)
}

func TestStaticSite(t *testing.T) {
	site := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(site, "tx", "austin"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(site, "tx", "austin", "index.html"), []byte("<title>Austin</title>"), 0o600))

	router := setupServerTest(t, Options{DataSource: writeIndex(t), SiteDir: site}, nil)

	w := get(t, router, "/tx/austin/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Austin</title>")

	w = get(t, router, "/tx/dallas/")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	router := setupServerTest(t, Options{DataSource: writeIndex(t), AllowedOrigins: []string{"https://lifts.example.com"}}, nil)

	req, err := http.NewRequest(http.MethodGet, "/api/search?q=austin", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://lifts.example.com")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://lifts.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
