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

// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Strand identifies the DNA strand a region refers to.
type Strand byte

const (
	Forward Strand = '+'
	Reverse Strand = '-'
)

func (s Strand) String() string {
	return string(s)
}

// ErrMalformedCoordinate is matched (using errors.Is) by every error returned
// from ParseRegion.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// MalformedCoordinateError describes why a coordinate string was rejected.
type MalformedCoordinateError struct {
	Input  string
	Reason string
}

func (err *MalformedCoordinateError) Error() string {
	return fmt.Sprintf("malformed coordinate %q: %s (want chr#:start-end_strand)", err.Input, err.Reason)
}

// Is reports whether target is ErrMalformedCoordinate.
func (err *MalformedCoordinateError) Is(target error) bool {
	return target == ErrMalformedCoordinate
}

// Region defines a region of genomic interest.  Regions are values and are
// never modified once parsed.
type Region struct {
	Chromosome string
	// Start and End specify the half-open range [Start, End) in base pairs.
	// End is always greater than Start.
	Start, End int
	Strand     Strand
}

// ParseRegion parses a coordinate of the form chr#:start-end_strand, for
// example "chr1:1000-2000_+".
func ParseRegion(text string) (Region, error) {
	input := strings.TrimSpace(text)
	malformed := func(format string, args ...interface{}) (Region, error) {
		return Region{}, &MalformedCoordinateError{text, fmt.Sprintf(format, args...)}
	}

	i := strings.LastIndexByte(input, '_')
	if i < 0 {
		return malformed("missing strand")
	}
	locus, strand := input[:i], input[i+1:]
	if strand != "+" && strand != "-" {
		return malformed("strand %q is not + or -", strand)
	}

	i = strings.LastIndexByte(locus, ':')
	if i < 0 {
		return malformed("missing chromosome")
	}
	chromosome, span := locus[:i], locus[i+1:]
	if chromosome == "" {
		return malformed("missing chromosome")
	}
	if strings.ContainsAny(chromosome, " \t:") {
		return malformed("invalid chromosome %q", chromosome)
	}

	bounds := strings.SplitN(span, "-", 2)
	if len(bounds) != 2 {
		return malformed("missing start-end range")
	}
	start, err := parsePosition(bounds[0])
	if err != nil {
		return malformed("parsing start: %v", err)
	}
	end, err := parsePosition(bounds[1])
	if err != nil {
		return malformed("parsing end: %v", err)
	}
	if end <= start {
		return malformed("end %d is not greater than start %d", end, start)
	}

	return Region{
		Chromosome: chromosome,
		Start:      start,
		End:        end,
		Strand:     Strand(strand[0]),
	}, nil
}

// parsePosition accepts only plain decimal digits; signs are rejected.
func parsePosition(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty position")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%q is not a non-negative integer", s)
		}
	}
	return strconv.Atoi(s)
}

// Length returns the number of bases covered by the region.
func (region Region) Length() int {
	return region.End - region.Start
}

// Overlaps reports whether the half-open span [start, end) on chromosome
// shares at least one base with the region.
func (region Region) Overlaps(chromosome string, start, end int) bool {
	return chromosome == region.Chromosome && start < region.End && end > region.Start
}

// OverlapsClosed is like Overlaps for 1-based closed spans [start, end],
// taking the region as [Start, End] too.  This is how Snaptron selects
// junctions for a region query.
func (region Region) OverlapsClosed(chromosome string, start, end int) bool {
	return chromosome == region.Chromosome && start <= region.End && end >= region.Start
}

// String returns the region in the same form accepted by ParseRegion.
func (region Region) String() string {
	return fmt.Sprintf("%s:%d-%d_%s", region.Chromosome, region.Start, region.End, region.Strand)
}
