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

// Package track reads coverage tracks from local or object storage.
package track

import (
	"errors"
	"fmt"
	"strings"
)

const (
	GCS  = "gs"
	S3   = "s3"
	File = "file"
)

// ErrInvalidLocation is returned for track locations that cannot be parsed.
var ErrInvalidLocation = errors.New("invalid track location")

// Location identifies a coverage track.  For local files Bucket is empty and
// Object is the path.
type Location struct {
	Scheme string
	Bucket string
	Object string
}

// ParseLocation parses gs://bucket/object, s3://bucket/object, file://path or
// a plain local path.
func ParseLocation(text string) (Location, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Location{}, fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}

	scheme, rest, ok := strings.Cut(text, "://")
	if !ok {
		return Location{Scheme: File, Object: text}, nil
	}
	switch scheme {
	case File:
		if rest == "" {
			return Location{}, fmt.Errorf("%w: %q has no path", ErrInvalidLocation, text)
		}
		return Location{Scheme: File, Object: rest}, nil
	case GCS, S3:
		if parts := strings.SplitN(rest, "/", 2); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return Location{Scheme: scheme, Bucket: parts[0], Object: parts[1]}, nil
		}
		return Location{}, fmt.Errorf("%w: %q does not name a bucket and object", ErrInvalidLocation, text)
	}
	return Location{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocation, scheme)
}

// Compressed reports whether the track is gzip compressed.
func (l Location) Compressed() bool {
	return strings.HasSuffix(l.Object, ".gz")
}

// BigWig reports whether the track is named as a bigWig file.
func (l Location) BigWig() bool {
	object := strings.ToLower(l.Object)
	return strings.HasSuffix(object, ".bw") || strings.HasSuffix(object, ".bigwig")
}

func (l Location) String() string {
	if l.Scheme == File {
		return l.Object
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Object
}
