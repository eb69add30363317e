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
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"github.com/googlegenomics/exonedge/internal/coverage"
	"github.com/googlegenomics/exonedge/internal/genomics"
	"github.com/googlegenomics/exonedge/internal/storage"
)

// Opener resolves track locations against storage backends.  A nil client
// disables the corresponding scheme.
type Opener struct {
	GCS   storage.Client
	S3    storage.Client
	Files storage.Client
}

// Open parses text as a Location and returns a reader for the track samples
// inside region.  The caller must close the reader.
func (o Opener) Open(ctx context.Context, text string, region genomics.Region) (coverage.ReadCloser, error) {
	location, err := ParseLocation(text)
	if err != nil {
		return nil, err
	}
	return o.OpenLocation(ctx, location, region)
}

// OpenLocation is like Open for an already parsed location.  Locations ending
// in .bw or .bigWig, and objects starting with the bigWig magic number, are
// read as bigWig; everything else is read as bedGraph text, decompressed
// first when the name ends in .gz.
func (o Opener) OpenLocation(ctx context.Context, location Location, region genomics.Region) (coverage.ReadCloser, error) {
	client := o.client(location.Scheme)
	if client == nil {
		return nil, fmt.Errorf("%w: %s tracks are not enabled", ErrInvalidLocation, location.Scheme)
	}

	object, err := client.NewObjectHandle(location.Bucket, location.Object).NewRangeReader(ctx, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", location, err)
	}
	reader := &Reader{closers: []io.Closer{object}}

	if location.Compressed() {
		gz, err := gzip.NewReader(object)
		if err != nil {
			object.Close()
			return nil, fmt.Errorf("decompressing %s: %w", location, err)
		}
		reader.closers = append([]io.Closer{gz}, reader.closers...)
		reader.Reader = NewBedGraphReader(gz, region)
		return reader, nil
	}

	buffered := bufio.NewReader(object)
	if header, _ := buffered.Peek(4); location.BigWig() || isBigWig(header) {
		defer object.Close()
		return openBigWig(buffered, location, region)
	}
	reader.Reader = NewBedGraphReader(buffered, region)
	return reader, nil
}

// openBigWig buffers the whole object since the bigWig index is read with
// random access.
// TODO: serve index and data blocks with range reads instead.
func openBigWig(r io.Reader, location Location, region genomics.Region) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	if !isBigWig(data) {
		return nil, fmt.Errorf("%s is not a bigWig file", location)
	}
	bw, err := NewBigWigReader(bytes.NewReader(data), region)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return &Reader{Reader: bw, closers: []io.Closer{bw}}, nil
}

func (o Opener) client(scheme string) storage.Client {
	switch scheme {
	case GCS:
		return o.GCS
	case S3:
		return o.S3
	case File:
		return o.Files
	}
	return nil
}

// Reader is a bedGraph or bigWig reader over an opened storage object.
type Reader struct {
	coverage.Reader
	closers []io.Closer
}

// Close releases the decoder and the underlying object.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
