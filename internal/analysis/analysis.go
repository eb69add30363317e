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

// Package analysis runs exon edge and abundance queries against junction and
// coverage sources.
package analysis

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/googlegenomics/exonedge/internal/coverage"
	"github.com/googlegenomics/exonedge/internal/exon"
	"github.com/googlegenomics/exonedge/internal/filter"
	"github.com/googlegenomics/exonedge/internal/format"
	"github.com/googlegenomics/exonedge/internal/genomics"
	"github.com/googlegenomics/exonedge/internal/junction"
)

// JunctionSource returns the splice junctions overlapping a region.  The
// records may be in any order.
type JunctionSource interface {
	Junctions(ctx context.Context, region genomics.Region) ([]junction.Record, error)
}

// RawSource is implemented by junction sources that can return their
// response for a region unparsed.
type RawSource interface {
	Raw(ctx context.Context, region genomics.Region) ([]byte, error)
}

// ErrRawUnsupported is returned by RawJunctions when the junction source is
// not a RawSource.
var ErrRawUnsupported = errors.New("junction source has no raw output")

// TrackOpener opens the coverage track at location for reading the samples
// inside region.
type TrackOpener interface {
	Open(ctx context.Context, location string, region genomics.Region) (coverage.ReadCloser, error)
}

// Analyzer answers queries given as user text.  Core errors (malformed
// coordinates, invalid filters, empty regions) are returned as is, as are
// errors from the sources.
type Analyzer struct {
	Junctions JunctionSource
	Tracks    TrackOpener
}

// EdgeReport is the outcome of an edge query.
type EdgeReport struct {
	Region   genomics.Region
	Filter   filter.Expression
	Fetched  int
	Retained int
	Edges    []exon.Edge
}

// Record returns the JSON form of the report.
func (r EdgeReport) Record() format.EdgeReportRecord {
	return format.EdgeReportRecord{
		Region:   format.NewRegionRecord(r.Region),
		Filter:   r.Filter.String(),
		Fetched:  r.Fetched,
		Retained: r.Retained,
		Edges:    format.EdgeRecords(r.Edges),
	}
}

// Edges finds the exon edges implied by the junctions in coordinate that
// satisfy filterText.  An empty filter keeps every junction.
func (a Analyzer) Edges(ctx context.Context, coordinate, filterText string) (EdgeReport, error) {
	region, err := genomics.ParseRegion(coordinate)
	if err != nil {
		return EdgeReport{}, err
	}
	expr, err := filter.Compile(filterText)
	if err != nil {
		return EdgeReport{}, err
	}
	if a.Junctions == nil {
		return EdgeReport{}, errors.New("no junction source configured")
	}

	records, err := a.Junctions.Junctions(ctx, region)
	if err != nil {
		return EdgeReport{}, err
	}
	retained := exon.Retain(region, records, expr)
	return EdgeReport{
		Region:   region,
		Filter:   expr,
		Fetched:  len(records),
		Retained: len(retained),
		Edges:    exon.EdgesOf(retained),
	}, nil
}

// RawJunctions returns the junction source's unparsed response for
// coordinate.
func (a Analyzer) RawJunctions(ctx context.Context, coordinate string) ([]byte, error) {
	region, err := genomics.ParseRegion(coordinate)
	if err != nil {
		return nil, err
	}
	source, ok := a.Junctions.(RawSource)
	if !ok {
		return nil, ErrRawUnsupported
	}
	return source.Raw(ctx, region)
}

// Abundance summarizes the coverage track at location over coordinate.
func (a Analyzer) Abundance(ctx context.Context, coordinate, location string) (coverage.Result, error) {
	region, err := genomics.ParseRegion(coordinate)
	if err != nil {
		return coverage.Result{}, err
	}
	if a.Tracks == nil {
		return coverage.Result{}, errors.New("no track opener configured")
	}

	r, err := a.Tracks.Open(ctx, location, region)
	if err != nil {
		return coverage.Result{}, err
	}
	defer r.Close()

	return coverage.Analyze(region, r)
}

// Columns of a coordinate file.
var coordinateColumns = []string{"chromosome", "start", "end", "strand"}

// ReadCoordinates reads a CSV file whose header names chromosome, start, end
// and strand columns, and returns one coordinate string per row.  Rows are
// not validated; each coordinate is checked when it is queried.
func ReadCoordinates(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("coordinate file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index := make(map[string]int)
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	columns := make([]int, len(coordinateColumns))
	for i, name := range coordinateColumns {
		column, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("coordinate file has no %q column", name)
		}
		columns[i] = column
	}

	var coordinates []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return coordinates, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading coordinates: %w", err)
		}
		coordinates = append(coordinates, fmt.Sprintf("%s:%s-%s_%s",
			strings.TrimSpace(row[columns[0]]),
			strings.TrimSpace(row[columns[1]]),
			strings.TrimSpace(row[columns[2]]),
			strings.TrimSpace(row[columns[3]])))
	}
}
