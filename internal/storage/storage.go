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

// Package storage provides range reads of objects held in Google Cloud
// Storage, S3 compatible object stores or the local file system.
package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"github.com/minio/minio-go/v7"
	"google.golang.org/api/googleapi"
)

var (
	// ErrMissingOrInvalidToken is returned when a request does not carry a
	// usable bearer token.
	ErrMissingOrInvalidToken = errors.New("missing or invalid token")

	// ErrOutsideRoot is returned for local paths that escape the configured
	// root directory.
	ErrOutsideRoot = errors.New("path is outside the track root")
)

// Client is an interface to the storage engine.
type Client interface {
	// NewObjectHandle returns a handle to a specified object in
	// the storage engine.
	NewObjectHandle(bucket, object string) ObjectHandle
}

// ObjectHandle is an interface to the actual storage engine in use.
type ObjectHandle interface {
	// NewRangeReader returns a reader that reads from a specified
	// range. Length of -1 means to capture everything until the
	// end.
	NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

// NewClientFunc constructs the Client used to satisfy an incoming request.
type NewClientFunc func(*http.Request) (Client, error)

// Static returns a NewClientFunc that always returns client.
func Static(client Client) NewClientFunc {
	return func(*http.Request) (Client, error) {
		return client, nil
	}
}

// IsNotExist reports whether err indicates that an object or bucket does not
// exist, for any of the supported backends.
func IsNotExist(err error) bool {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	if resp := minio.ToErrorResponse(err); resp.Code != "" {
		return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound
	}
	return false
}

// IsPermissionDenied reports whether err indicates that the caller may not
// read an object, for any of the supported backends.
func IsPermissionDenied(err error) bool {
	if errors.Is(err, ErrMissingOrInvalidToken) || errors.Is(err, ErrOutsideRoot) || errors.Is(err, fs.ErrPermission) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
	}
	if resp := minio.ToErrorResponse(err); resp.Code != "" {
		return resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden
	}
	return false
}
