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

// Package format renders analysis results for people and for JSON clients.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/googlegenomics/exonedge/internal/coverage"
	"github.com/googlegenomics/exonedge/internal/exon"
	"github.com/googlegenomics/exonedge/internal/filter"
	"github.com/googlegenomics/exonedge/internal/genomics"
)

// NoEdges is rendered in place of an edge table when there are no edges.
const NoEdges = "No exon edges found"

// Edges renders edges as a tab separated table under an "Exon edges:"
// header, or NoEdges if there are none.
func Edges(edges []exon.Edge) string {
	if len(edges) == 0 {
		return NoEdges + "\n"
	}

	var b strings.Builder
	b.WriteString("Exon edges:\n")
	b.WriteString("position\ttype\tsupport\n")
	for _, e := range edges {
		fmt.Fprintf(&b, "%d\t%s\t%d\n", e.Position, e.Type, e.Support)
	}
	return b.String()
}

// Abundance renders an abundance summary.
func Abundance(result coverage.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transcription abundance for %s:\n", result.Region)
	fmt.Fprintf(&b, "mean\t%s\n", number(result.Mean))
	fmt.Fprintf(&b, "max\t%s\n", number(result.Max))
	fmt.Fprintf(&b, "min\t%s\n", number(result.Min))
	fmt.Fprintf(&b, "sum\t%s\n", number(result.Sum))
	fmt.Fprintf(&b, "bases\t%d\n", result.Count)
	return b.String()
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// EdgeRecord is the JSON form of an exon.Edge.
type EdgeRecord struct {
	Position int    `json:"position"`
	Type     string `json:"type"`
	Support  int    `json:"support"`
}

// EdgeRecords converts edges to records.  The result is never nil so that it
// encodes as an empty JSON array.
func EdgeRecords(edges []exon.Edge) []EdgeRecord {
	records := make([]EdgeRecord, 0, len(edges))
	for _, e := range edges {
		records = append(records, EdgeRecord{e.Position, e.Type.String(), e.Support})
	}
	return records
}

// RegionRecord is the JSON form of a genomics.Region.
type RegionRecord struct {
	Chromosome string `json:"chromosome"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Strand     string `json:"strand"`
}

// NewRegionRecord converts region to a record.
func NewRegionRecord(region genomics.Region) RegionRecord {
	return RegionRecord{region.Chromosome, region.Start, region.End, region.Strand.String()}
}

// AbundanceRecord is the JSON form of a coverage.Result.
type AbundanceRecord struct {
	Region RegionRecord `json:"region"`
	Mean   float64      `json:"mean"`
	Max    float64      `json:"max"`
	Min    float64      `json:"min"`
	Sum    float64      `json:"sum"`
	Bases  int          `json:"bases"`
}

// NewAbundanceRecord converts result to a record.
func NewAbundanceRecord(result coverage.Result) AbundanceRecord {
	return AbundanceRecord{
		Region: NewRegionRecord(result.Region),
		Mean:   result.Mean,
		Max:    result.Max,
		Min:    result.Min,
		Sum:    result.Sum,
		Bases:  result.Count,
	}
}

// Error renders the message shown to a user for err.  Errors in the user's
// input are shown verbatim; a region without coverage is reported as such.
func Error(err error) string {
	var empty *coverage.EmptyRegionError
	switch {
	case errors.As(err, &empty):
		return fmt.Sprintf("No data in range %s", empty.Region)
	case errors.Is(err, genomics.ErrMalformedCoordinate), errors.Is(err, filter.ErrInvalidFilter):
		return err.Error()
	}
	return fmt.Sprintf("An error occurred: %v", err)
}

// EdgeReportRecord is the JSON form of an edge query.
type EdgeReportRecord struct {
	Region   RegionRecord `json:"region"`
	Filter   string       `json:"filter,omitempty"`
	Fetched  int          `json:"fetched"`
	Retained int          `json:"retained"`
	Edges    []EdgeRecord `json:"edges"`
}
