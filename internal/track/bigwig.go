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
	"encoding/binary"
	"fmt"
	"io"
	"regexp"

	"github.com/pbenner/gonetics"

	"github.com/googlegenomics/exonedge/internal/coverage"
	"github.com/googlegenomics/exonedge/internal/genomics"
)

// bigWigMagic opens every bigWig file, stored little endian.
const bigWigMagic = 0x888FFC26

// isBigWig reports whether header starts with the bigWig magic number.
func isBigWig(header []byte) bool {
	return len(header) >= 4 && binary.LittleEndian.Uint32(header) == bigWigMagic
}

// BigWigReader yields the per-base samples of a bigWig track that fall inside
// a region.  Bases the track has no data for yield no sample.  It must be
// closed to release the query.
type BigWigReader struct {
	records <-chan gonetics.BigWigReaderType
	region  genomics.Region

	// The part of the current record not yet returned.
	pos, end int
	value    float64

	err error
}

// NewBigWigReader reads the bigWig header and index from r and starts a
// query for region.
func NewBigWigReader(r io.ReadSeeker, region genomics.Region) (*BigWigReader, error) {
	bw, err := gonetics.NewBigWigReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading bigWig index: %v", err)
	}
	query := "^" + regexp.QuoteMeta(region.Chromosome) + "$"
	return &BigWigReader{
		records: bw.Query(query, region.Start, region.End, 0),
		region:  region,
	}, nil
}

// Next returns the next sample, or io.EOF once the region is exhausted.
func (r *BigWigReader) Next() (coverage.Sample, error) {
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

// advance loads the next record overlapping the region.
func (r *BigWigReader) advance() error {
	for record := range r.records {
		if record.Error != nil {
			return fmt.Errorf("reading bigWig data: %v", record.Error)
		}
		if record.Valid == 0 || !r.region.Overlaps(r.region.Chromosome, record.From, record.To) {
			continue
		}
		r.pos, r.end = max(record.From, r.region.Start), min(record.To, r.region.End)
		r.value = record.Sum / float64(record.Valid)
		return nil
	}
	return io.EOF
}

// Close abandons the query.  Records not yet read are discarded in the
// background.
func (r *BigWigReader) Close() error {
	go func(records <-chan gonetics.BigWigReaderType) {
		for range records {
		}
	}(r.records)
	r.err = io.EOF
	r.pos, r.end = 0, 0
	return nil
}
