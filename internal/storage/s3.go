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

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds the connection settings of an S3 compatible endpoint.
type S3Config struct {
	Endpoint        string // e.g. "s3.amazonaws.com" or "localhost:9000"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// S3Client is Client for accessing S3 compatible object stores.
type S3Client struct {
	*minio.Client
}

// NewS3Client returns an S3Client for cfg.  Empty keys select anonymous
// access.
func NewS3Client(cfg S3Config) (S3Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return S3Client{}, fmt.Errorf("creating s3 client: %v", err)
	}
	return S3Client{client}, nil
}

// NewObjectHandle returns a handle to a specified object in the
// storage engine.
func (c S3Client) NewObjectHandle(bucket, object string) ObjectHandle {
	return s3ObjectHandle{c.Client, bucket, object}
}

type s3ObjectHandle struct {
	client         *minio.Client
	bucket, object string
}

func (h s3ObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	if length == 0 {
		return http.NoBody, nil
	}

	var opts minio.GetObjectOptions
	var err error
	switch {
	case length > 0:
		err = opts.SetRange(offset, offset+length-1)
	case offset > 0:
		err = opts.SetRange(offset, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("setting range: %v", err)
	}

	object, err := h.client.GetObject(ctx, h.bucket, h.object, opts)
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces missing objects and denied access
	// before any data is read.
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, err
	}
	return object, nil
}
