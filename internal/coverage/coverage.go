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

// Package coverage summarizes per-base signal from a coverage track.
package coverage

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/googlegenomics/exonedge/internal/genomics"
)

// Sample is the signal at a single base.
type Sample struct {
	Position int
	Value    float64
}

// Reader yields the samples of a coverage track over a region in ascending
// position order.  Next returns io.EOF after the last sample.  Readers cannot
// be restarted.
type Reader interface {
	Next() (Sample, error)
}

// ReadCloser is a Reader backed by a resource that must be released.
type ReadCloser interface {
	Reader
	io.Closer
}

// ErrEmptyRegion is matched (using errors.Is) by EmptyRegionError.
var ErrEmptyRegion = errors.New("no data in range")

// EmptyRegionError is returned when a track has no samples in a region.
type EmptyRegionError struct {
	Region genomics.Region
}

func (err *EmptyRegionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrEmptyRegion, err.Region)
}

// Is reports whether target is ErrEmptyRegion.
func (err *EmptyRegionError) Is(target error) bool {
	return target == ErrEmptyRegion
}

// Result summarizes the signal over a region.
type Result struct {
	Region         genomics.Region
	Mean, Max, Min float64
	// Sum is the total signal and Count the number of samples it was taken
	// over.
	Sum   float64
	Count int
}

// Analyze reads every sample from r and summarizes them.  It returns an
// EmptyRegionError if r yields no samples; errors from r are returned as is.
func Analyze(region genomics.Region, r Reader) (Result, error) {
	result := Result{
		Region: region,
		Max:    math.Inf(-1),
		Min:    math.Inf(1),
	}
	for {
		sample, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, err
		}
		result.Sum += sample.Value
		result.Max = math.Max(result.Max, sample.Value)
		result.Min = math.Min(result.Min, sample.Value)
		result.Count++
	}

	if result.Count == 0 {
		return Result{}, &EmptyRegionError{region}
	}
	result.Mean = result.Sum / float64(result.Count)
	return result, nil
}

// SliceReader is a Reader over samples held in memory.
type SliceReader struct {
	samples []Sample
}

// NewSliceReader returns a Reader yielding samples in order.
func NewSliceReader(samples []Sample) *SliceReader {
	return &SliceReader{samples}
}

// Next returns the next sample or io.EOF.
func (r *SliceReader) Next() (Sample, error) {
	if len(r.samples) == 0 {
		return Sample{}, io.EOF
	}
	s := r.samples[0]
	r.samples = r.samples[1:]
	return s, nil
}
