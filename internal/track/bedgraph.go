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

package track

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/googlegenomics/exonedge/internal/coverage"
	"github.com/googlegenomics/exonedge/internal/genomics"
)

// BedGraphReader yields the per-base samples of a bedGraph track that fall
// inside a region.  Each line "chrom start end value" assigns value to every
// base in [start, end).  Bases not covered by any interval yield no sample.
//
// Intervals on the region's chromosome must be sorted and must not overlap.
type BedGraphReader struct {
	scanner *bufio.Scanner
	region  genomics.Region
	line    int
	lastEnd int

	// The part of the current interval not yet returned.
	pos, end int
	value    float64

	err error
}

// NewBedGraphReader returns a reader for the samples of r inside region.
func NewBedGraphReader(r io.Reader, region genomics.Region) *BedGraphReader {
	return &BedGraphReader{scanner: bufio.NewScanner(r), region: region}
}

// Next returns the next sample, or io.EOF once the region is exhausted.
func (r *BedGraphReader) Next() (coverage.Sample, error) {
	for r.pos >= r.end {
		if r.err != nil {
			return coverage.Sample{}, r.err
		}
		r.err = r.advance()
	}
	sample := coverage.Sample{Position: r.pos, Value: r.value}
	r.pos++
	return sample, nil
}

// advance loads the next interval overlapping the region.
func (r *BedGraphReader) advance() error {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "track") || strings.HasPrefix(text, "browser") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 4 {
			return fmt.Errorf("line %d: got %d fields, want 4", r.line, len(fields))
		}
		if fields[0] != r.region.Chromosome {
			continue
		}

		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: parsing start: %v", r.line, err)
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("line %d: parsing end: %v", r.line, err)
		}
		value, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return fmt.Errorf("line %d: parsing value: %v", r.line, err)
		}
		switch {
		case start < 0 || end <= start:
			return fmt.Errorf("line %d: invalid interval [%d, %d)", r.line, start, end)
		case value < 0:
			return fmt.Errorf("line %d: negative value %v", r.line, value)
		case start < r.lastEnd:
			return fmt.Errorf("line %d: interval starting at %d is unsorted or overlaps the previous one", r.line, start)
		}
		r.lastEnd = end

		if start >= r.region.End {
			// Sorted input: nothing further can overlap the region.
			return io.EOF
		}
		if start < r.region.Start {
			start = r.region.Start
		}
		if end > r.region.End {
			end = r.region.End
		}
		if start < end {
			r.pos, r.end, r.value = start, end, value
			return nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("reading track: %v", err)
	}
	return io.EOF
}
