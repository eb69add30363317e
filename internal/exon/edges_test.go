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

package exon

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/googlegenomics/exonedge/internal/filter"
	"github.com/googlegenomics/exonedge/internal/genomics"
	"github.com/googlegenomics/exonedge/internal/junction"
)

func mustCompile(t *testing.T, text string) filter.Expression {
	t.Helper()
	expr, err := filter.Compile(text)
	if err != nil {
		t.Fatalf("Compile(%q) returned error: %v", text, err)
	}
	return expr
}

func mustParse(t *testing.T, text string) genomics.Region {
	t.Helper()
	region, err := genomics.ParseRegion(text)
	if err != nil {
		t.Fatalf("ParseRegion(%q) returned error: %v", text, err)
	}
	return region
}

func TestFindEdges_CoverageFilter(t *testing.T) {
	region := mustParse(t, "chr1:1000-2000_+")
	records := []junction.Record{
		{Start: 1000, End: 1500, Coverage: 0.8, HasCoverage: true},
		{Start: 1600, End: 2000, Coverage: 0.3, HasCoverage: true},
	}

	got := FindEdges(region, records, mustCompile(t, "coverage>0.5"))
	want := []Edge{
		{Position: 1000, Type: End, Support: 1},
		{Position: 1500, Type: Start, Support: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindEdges() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindEdges_GroupsAndOrders(t *testing.T) {
	region := mustParse(t, "chr2:100-1000_-")
	records := []junction.Record{
		{Chromosome: "chr2", Start: 200, End: 300, Coverage: 5, HasCoverage: true},
		{Chromosome: "chr2", Start: 200, End: 400, Coverage: 2, HasCoverage: true},
		{Chromosome: "chr2", Start: 300, End: 500, Coverage: 1, HasCoverage: true},
		{Chromosome: "chr2", Start: 400, End: 500, Coverage: 1, HasCoverage: true},
		// Outside the region or on another chromosome.
		{Chromosome: "chr2", Start: 1001, End: 1200, Coverage: 9, HasCoverage: true},
		{Chromosome: "chr2", Start: 10, End: 99, Coverage: 9, HasCoverage: true},
		{Chromosome: "chr3", Start: 200, End: 300, Coverage: 9, HasCoverage: true},
	}
	want := []Edge{
		{Position: 200, Type: End, Support: 2},
		{Position: 300, Type: Start, Support: 1},
		{Position: 300, Type: End, Support: 1},
		{Position: 400, Type: Start, Support: 1},
		{Position: 400, Type: End, Support: 1},
		{Position: 500, Type: Start, Support: 2},
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]junction.Record(nil), records...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := FindEdges(region, shuffled, filter.Expression{})
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("FindEdges() mismatch for permutation %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestFindEdges_Empty(t *testing.T) {
	region := mustParse(t, "chr1:1000-2000_+")
	records := []junction.Record{
		{Start: 1000, End: 1500, Coverage: 0.8, HasCoverage: true},
		{Start: 1600, End: 2000, Coverage: 0.3, HasCoverage: true},
	}

	testCases := []struct {
		name    string
		records []junction.Record
		filter  string
	}{
		{"no records", nil, ""},
		{"filter excludes all", records, "coverage>10"},
		{"missing field", records, "samples_count>0"},
		{"outside region", []junction.Record{{Start: 3000, End: 4000}}, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FindEdges(region, tc.records, mustCompile(t, tc.filter))
			if got == nil || len(got) != 0 {
				t.Errorf("FindEdges(): got %#v, want empty non-nil slice", got)
			}
		})
	}
}

func TestFindEdges_StrandKeepsCoordinates(t *testing.T) {
	records := []junction.Record{{Start: 1200, End: 1300}}
	forward := FindEdges(mustParse(t, "chr1:1000-2000_+"), records, filter.Expression{})
	reverse := FindEdges(mustParse(t, "chr1:1000-2000_-"), records, filter.Expression{})
	if diff := cmp.Diff(forward, reverse); diff != "" {
		t.Errorf("Strand changed edges (-forward +reverse):\n%s", diff)
	}
}

func TestEdgeTypeText(t *testing.T) {
	for _, tc := range []struct {
		edgeType EdgeType
		want     string
	}{{Start, "start"}, {End, "end"}} {
		text, err := tc.edgeType.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() returned error: %v", err)
		}
		if got := string(text); got != tc.want {
			t.Errorf("Wrong text: got %q, want %q", got, tc.want)
		}
	}
}

func TestRetain(t *testing.T) {
	region := mustParse(t, "chr1:1000-2000_+")
	records := []junction.Record{
		{Chromosome: "chr1", Start: 1000, End: 1500, Coverage: 0.8, HasCoverage: true},
		{Chromosome: "chr1", Start: 1600, End: 2000, Coverage: 0.3, HasCoverage: true},
		{Chromosome: "chr1", Start: 1700, End: 1800, Coverage: 0.9, HasCoverage: true},
		{Chromosome: "chr5", Start: 1200, End: 1300, Coverage: 0.9, HasCoverage: true},
		// Sharing only a boundary position with the region.
		{Chromosome: "chr1", Start: 2000, End: 2400, Coverage: 0.7, HasCoverage: true},
		{Chromosome: "chr1", Start: 600, End: 1000, Coverage: 0.7, HasCoverage: true},
		{Chromosome: "chr1", Start: 2001, End: 2400, Coverage: 0.7, HasCoverage: true},
	}
	got := Retain(region, records, mustCompile(t, "coverage>0.5"))
	if diff := cmp.Diff([]junction.Record{records[0], records[2], records[4], records[5]}, got, cmp.AllowUnexported(junction.Value{})); diff != "" {
		t.Errorf("Retain() mismatch (-want +got):\n%s", diff)
	}
}
