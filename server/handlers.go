// Copyright 2025 The Liftfinder Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liftfinder/liftfinder/directory"
	"github.com/liftfinder/liftfinder/search"
	"github.com/liftfinder/liftfinder/spatial"
)

const (
	defaultNearbyRings = 2
	defaultNearbyLimit = 10
	maxNearbyRings     = 10
	maxNearbyLimit     = 100
)

// outcomeFetchFailure is reported when the index could not be loaded.
const outcomeFetchFailure = "fetch_failure"

var errNotLoaded = errors.New("search index not loaded")

type resultItem struct {
	Label string `json:"label"`
	search.Match
}

type resultsPage struct {
	Query   string
	Message string
	Results []resultItem
}

// match runs the matcher and maps the outcome to an HTTP status. err is set
// for every outcome without a navigation target or result list.
func (s *Server) match(query string) (search.Outcome, int, error) {
	if s.fetchErr != nil || s.dataset == nil {
		// an empty query is still rejected before the index is needed
		if search.NormalizeQuery(query) == "" {
			return search.Outcome{Kind: search.OutcomeEmptyQuery}, http.StatusBadRequest, search.ErrEmptyQuery
		}

		err := s.fetchErr
		if err == nil {
			err = &search.FetchError{Source: "<not loaded>", Err: errNotLoaded}
		}

		return search.Outcome{}, http.StatusServiceUnavailable, err
	}

	out := search.Resolve(query, s.dataset)

	switch out.Kind {
	case search.OutcomeEmptyQuery:
		return out, http.StatusBadRequest, out.Err()
	case search.OutcomeNoMatch:
		return out, http.StatusNotFound, out.Err()
	default:
		return out, http.StatusOK, nil
	}
}

func outcomeName(out search.Outcome, err error) string {
	if search.IsFetchError(err) {
		return outcomeFetchFailure
	}

	return out.Kind.String()
}

func toResultItems(matches []search.Match) []resultItem {
	items := make([]resultItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, resultItem{Label: m.Label(), Match: m})
	}

	return items
}

// sitePath makes an index URL root relative: "tx/austin/" -> "/tx/austin/".
func sitePath(url string) string {
	if strings.HasPrefix(url, "/") || strings.Contains(url, "://") {
		return url
	}

	return "/" + url
}

func (s *Server) apiSearch(ctx *gin.Context) {
	out, status, err := s.match(ctx.Query("q"))
	if err != nil {
		ctx.JSON(status, gin.H{"outcome": outcomeName(out, err), "error": search.UserMessage(err)})

		return
	}

	switch out.Kind {
	case search.OutcomeRedirect:
		ctx.JSON(status, gin.H{"outcome": out.Kind.String(), "url": sitePath(out.URL()), "match": out.Redirect})
	default:
		ctx.JSON(status, gin.H{"outcome": out.Kind.String(), "results": toResultItems(out.Results)})
	}
}

func (s *Server) searchPage(ctx *gin.Context) {
	query := ctx.Query("q")

	out, status, err := s.match(query)
	if err != nil {
		ctx.HTML(status, "search.html", resultsPage{Query: query, Message: search.UserMessage(err)})

		return
	}

	if out.Kind == search.OutcomeRedirect {
		ctx.Redirect(http.StatusFound, sitePath(out.URL()))

		return
	}

	items := toResultItems(out.Results)
	for i := range items {
		items[i].URL = sitePath(items[i].URL)
	}

	ctx.HTML(status, "search.html", resultsPage{Query: query, Results: items})
}

func (s *Server) apiMap(ctx *gin.Context) {
	if s.repo == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "directory database not configured"})

		return
	}

	companies, err := s.repo.CompaniesInCity(ctx.Param("state"), ctx.Param("city"))
	if err != nil {
		log.Printf("listing companies: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list companies"})

		return
	}

	md := directory.BuildMapData(companies)
	if md == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no mapped companies in this city"})

		return
	}

	ctx.JSON(http.StatusOK, md)
}

func (s *Server) apiNearby(ctx *gin.Context) {
	if s.repo == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "directory database not configured"})

		return
	}

	lat, errLat := strconv.ParseFloat(ctx.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(ctx.Query("lng"), 64)

	point := spatial.Point{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !point.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters must be valid coordinates"})

		return
	}

	rings, ok := intQuery(ctx, "rings", defaultNearbyRings, maxNearbyRings)
	if !ok {
		return
	}

	limit, ok := intQuery(ctx, "limit", defaultNearbyLimit, maxNearbyLimit)
	if !ok {
		return
	}

	nearby, err := s.repo.CompaniesNear(point, rings, limit)
	if err != nil {
		log.Printf("finding nearby companies: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to find nearby companies"})

		return
	}

	if nearby == nil {
		nearby = []*directory.NearbyCompany{}
	}

	ctx.JSON(http.StatusOK, gin.H{"center": point, "companies": nearby})
}

// intQuery reads an optional integer parameter in [0, upper]. It writes the
// error response itself and returns false when the value is invalid.
func intQuery(ctx *gin.Context, name string, def, upper int) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > upper {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer between 0 and " + strconv.Itoa(upper)})

		return 0, false
	}

	return v, true
}

func (s *Server) health(ctx *gin.Context) {
	resp := gin.H{
		"status": "OK",
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"places": s.dataset.Len(),
	}

	switch {
	case s.fetchErr != nil:
		resp["status"] = "DEGRADED"
		resp["error"] = s.fetchErr.Error()
	case s.dataset == nil:
		resp["status"] = "STARTING"
	}

	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) static() gin.HandlerFunc {
	fs := http.FileServer(http.Dir(s.opts.SiteDir))

	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet && ctx.Request.Method != http.MethodHead {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})

			return
		}

		fs.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
