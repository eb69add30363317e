// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api implements the exonedge HTTP API.
//
// Edge queries are served at /edges?coordinate=chr1:1000-2000_+&filter=...
// and abundance queries at /abundance?coordinate=...&track=gs://bucket/object.
// Errors are returned as JSON objects with "error" and "message" fields.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/googlegenomics/exonedge/internal/analysis"
	"github.com/googlegenomics/exonedge/internal/coverage"
	"github.com/googlegenomics/exonedge/internal/filter"
	"github.com/googlegenomics/exonedge/internal/format"
	"github.com/googlegenomics/exonedge/internal/genomics"
	"github.com/googlegenomics/exonedge/internal/metrics"
	"github.com/googlegenomics/exonedge/internal/storage"
	"github.com/googlegenomics/exonedge/internal/track"
)

const (
	edgesPath     = "/edges"
	abundancePath = "/abundance"

	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

var (
	errMissingCoordinate = errors.New("no coordinate specified")
	errMissingTrack      = errors.New("no track specified")
)

// NewTrackOpenerFunc is the type of function that constructs the track opener
// used to satisfy the incoming request.
type NewTrackOpenerFunc func(*http.Request) (analysis.TrackOpener, error)

// StorageTracks returns a NewTrackOpenerFunc that resolves gs:// tracks with
// the client returned by newStorageClient for each request, and other tracks
// with opener.
func StorageTracks(opener track.Opener, newStorageClient storage.NewClientFunc) NewTrackOpenerFunc {
	return func(req *http.Request) (analysis.TrackOpener, error) {
		gcs, err := newStorageClient(req)
		if err != nil {
			return nil, err
		}
		o := opener
		o.GCS = gcs
		return o, nil
	}
}

// Server provides the exonedge HTTP API.  Must be created with NewServer.
type Server struct {
	junctions analysis.JunctionSource
	newTracks NewTrackOpenerFunc
	allowed   map[string]bool
	logger    *slog.Logger
}

// NewServer returns a new Server that fetches junctions from junctions and
// calls newTracks on each abundance request to open coverage tracks.
func NewServer(junctions analysis.JunctionSource, newTracks NewTrackOpenerFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{junctions, newTracks, make(map[string]bool), logger}
}

// AllowBuckets adds buckets to the set of buckets which the server is allowed
// to read tracks from.  If AllowBuckets is never called for a given Server
// then reads from any bucket are allowed.
func (server *Server) AllowBuckets(buckets []string) {
	for _, bucket := range buckets {
		if bucket != "" {
			server.allowed[bucket] = true
		}
	}
}

// Export registers the API endpoints and middleware with router.
func (server *Server) Export(router *gin.Engine) {
	router.Use(requestID(), forwardOrigin(), metrics.Middleware(), server.logRequests())
	router.GET(edgesPath, server.serveEdges)
	router.GET(abundancePath, server.serveAbundance)
	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

func (server *Server) serveEdges(c *gin.Context) {
	coordinate := c.Query("coordinate")
	if coordinate == "" {
		server.fail(c, "edges", newInvalidInputError("parsing query", errMissingCoordinate))
		return
	}

	analyzer := analysis.Analyzer{Junctions: server.junctions}
	report, err := analyzer.Edges(c.Request.Context(), coordinate, c.Query("filter"))
	if err != nil {
		server.fail(c, "edges", err)
		return
	}

	metrics.JunctionsFetched.Add(float64(report.Fetched))
	metrics.QueriesTotal.WithLabelValues("edges", "ok").Inc()
	c.JSON(http.StatusOK, report.Record())
}

func (server *Server) serveAbundance(c *gin.Context) {
	coordinate, location := c.Query("coordinate"), c.Query("track")
	if coordinate == "" {
		server.fail(c, "abundance", newInvalidInputError("parsing query", errMissingCoordinate))
		return
	}
	if location == "" {
		server.fail(c, "abundance", newInvalidInputError("parsing query", errMissingTrack))
		return
	}

	parsed, err := track.ParseLocation(location)
	if err != nil {
		server.fail(c, "abundance", newInvalidInputError("parsing track", err))
		return
	}
	if err := server.checkAllowed(parsed); err != nil {
		server.fail(c, "abundance", newPermissionDeniedError("checking allowed buckets", err))
		return
	}

	tracks, err := server.newTracks(c.Request)
	if err != nil {
		server.fail(c, "abundance", newStorageError("creating client", err))
		return
	}

	analyzer := analysis.Analyzer{Tracks: tracks}
	result, err := analyzer.Abundance(c.Request.Context(), coordinate, location)
	if err != nil {
		server.fail(c, "abundance", err)
		return
	}

	metrics.QueriesTotal.WithLabelValues("abundance", "ok").Inc()
	c.JSON(http.StatusOK, format.NewAbundanceRecord(result))
}

func (server *Server) checkAllowed(location track.Location) error {
	if location.Scheme == track.File || len(server.allowed) == 0 || server.allowed[location.Bucket] {
		return nil
	}
	return fmt.Errorf("access to bucket %s is not allowed", location.Bucket)
}

func (server *Server) fail(c *gin.Context, kind string, err error) {
	err = classify(err)
	outcome := "InternalError"
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		outcome = apiErr.name
	} else {
		server.logger.Error("query failed", "kind", kind, "error", err, requestIDKey, c.GetString(requestIDKey))
	}
	metrics.QueriesTotal.WithLabelValues(kind, outcome).Inc()
	writeError(c, err)
}

// classify maps errors returned by queries to API errors.  Errors with no
// API equivalent are returned unchanged.
func classify(err error) error {
	var apiErr *apiError
	var empty *coverage.EmptyRegionError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, genomics.ErrMalformedCoordinate):
		return &apiError{"MalformedCoordinate", http.StatusBadRequest, err}
	case errors.Is(err, filter.ErrInvalidFilter):
		return &apiError{"InvalidFilter", http.StatusBadRequest, err}
	case errors.As(err, &empty):
		return &apiError{"EmptyRegion", http.StatusNotFound, errors.New(format.Error(err))}
	case errors.Is(err, track.ErrInvalidLocation):
		return newInvalidInputError("opening track", err)
	}
	return newStorageError("reading track", err)
}

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *apiError) Unwrap() error {
	return err.cause
}

func newApiError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %w", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newApiError("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newInvalidInputError(context string, err error) error {
	return newApiError("InvalidInput", http.StatusBadRequest, context, err)
}

func newPermissionDeniedError(context string, err error) error {
	return newApiError("PermissionDenied", http.StatusForbidden, context, err)
}

func newNotFoundError(context string, err error) error {
	return newApiError("NotFound", http.StatusNotFound, context, err)
}

// newStorageError classifies storage failures.  Errors that are not storage
// errors are returned unchanged.
func newStorageError(context string, err error) error {
	switch {
	case errors.Is(err, storage.ErrMissingOrInvalidToken):
		return newInvalidAuthenticationError(context, err)
	case storage.IsPermissionDenied(err):
		return newPermissionDeniedError(context, err)
	case storage.IsNotExist(err):
		return newNotFoundError(context, err)
	}
	return err
}

// writeError writes either a JSON object or bare HTTP error describing err.
// A JSON object is written only when the error has a name and code defined by
// the API.
func writeError(c *gin.Context, err error) {
	if err, ok := err.(*apiError); ok {
		c.JSON(err.code, gin.H{
			"error":   err.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(err.code), err.cause),
		})
		return
	}
	c.String(http.StatusInternalServerError, "%s: %v", http.StatusText(http.StatusInternalServerError), err)
}

// requestID tags each request with an ID, reusing the one supplied by the
// client if any.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func forwardOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Next()
	}
}

func (server *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		server.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			requestIDKey, c.GetString(requestIDKey))
	}
}
