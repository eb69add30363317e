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

// Package exon derives exon boundaries from splice junctions.
//
// A splice junction spans an excised intron, so its two coordinates are also
// the boundaries of the exons on either side: the exon upstream of the intron
// ends where the junction starts, and the exon downstream starts where the
// junction ends.
package exon

import (
	"sort"

	"github.com/googlegenomics/exonedge/internal/filter"
	"github.com/googlegenomics/exonedge/internal/genomics"
	"github.com/googlegenomics/exonedge/internal/junction"
)

// EdgeType says which side of an exon an Edge marks.
type EdgeType int

const (
	// Start edges sort before End edges at the same position.
	Start EdgeType = iota
	End
)

func (t EdgeType) String() string {
	if t == Start {
		return "start"
	}
	return "end"
}

// MarshalText renders the type as "start" or "end".
func (t EdgeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Edge is a candidate exon boundary.
type Edge struct {
	Position int
	Type     EdgeType
	// Support is the number of junctions implying this edge.  It is at least 1.
	Support int
}

type edgeKey struct {
	position int
	edgeType EdgeType
}

// FindEdges returns the exon edges implied by the junctions in records that
// overlap region and match expr, sorted by position with start edges before
// end edges at the same position.
//
// The result is never nil; no supporting junctions yields an empty slice.
func FindEdges(region genomics.Region, records []junction.Record, expr filter.Expression) []Edge {
	return EdgesOf(Retain(region, records, expr))
}

// Retain returns the records that overlap region and match expr.  Junction
// and region coordinates are both taken as 1-based closed intervals, so a
// junction sharing only a boundary position with region is kept.  Records
// with an empty chromosome are assumed to have been fetched for region's
// chromosome.
func Retain(region genomics.Region, records []junction.Record, expr filter.Expression) []junction.Record {
	var retained []junction.Record
	for _, r := range records {
		chromosome := r.Chromosome
		if chromosome == "" {
			chromosome = region.Chromosome
		}
		if region.OverlapsClosed(chromosome, r.Start, r.End) && expr.Matches(r) {
			retained = append(retained, r)
		}
	}
	return retained
}

// EdgesOf returns the edges implied by every junction in records, grouped by
// position and type and sorted as for FindEdges.
func EdgesOf(records []junction.Record) []Edge {
	support := make(map[edgeKey]int)
	for _, r := range records {
		support[edgeKey{r.Start, End}]++
		support[edgeKey{r.End, Start}]++
	}

	edges := make([]Edge, 0, len(support))
	for key, n := range support {
		edges = append(edges, Edge{Position: key.position, Type: key.edgeType, Support: n})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Position != edges[j].Position {
			return edges[i].Position < edges[j].Position
		}
		return edges[i].Type < edges[j].Type
	})
	return edges
}
