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
	"strings"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// GCSClient is Client for accessing Google Cloud Storage.
type GCSClient struct {
	*gcs.Client
}

// NewObjectHandle returns a handle to a specified object in the
// storage engine.
func (c GCSClient) NewObjectHandle(bucket, object string) ObjectHandle {
	return gcsObjectHandle{c.Bucket(bucket).Object(object)}
}

type gcsObjectHandle struct {
	*gcs.ObjectHandle
}

func (h gcsObjectHandle) NewRangeReader(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	return h.ObjectHandle.NewRangeReader(ctx, offset, length)
}

// NewGCSClient returns a GCSClient configured with opts.  Without options the
// application default credentials are used.
func NewGCSClient(ctx context.Context, opts ...option.ClientOption) (GCSClient, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return GCSClient{}, fmt.Errorf("creating storage client: %v", err)
	}
	return GCSClient{client}, nil
}

// NewPublicGCSClient returns a client that does not use any form of client
// authorization.  It can only be used to read publicly-readable objects.
func NewPublicGCSClient(ctx context.Context) (GCSClient, error) {
	return NewGCSClient(ctx, option.WithHTTPClient(http.DefaultClient))
}

// NewClientFromBearerToken constructs a storage client that uses the OAuth2
// bearer token found in req to make storage requests.
func NewClientFromBearerToken(req *http.Request) (Client, error) {
	authorization := req.Header.Get("Authorization")

	fields := strings.Split(authorization, " ")
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, ErrMissingOrInvalidToken
	}

	token := oauth2.Token{
		TokenType:   fields[0],
		AccessToken: fields[1],
	}
	client, err := NewGCSClient(req.Context(), option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, fmt.Errorf("creating client with token source: %v", err)
	}
	return client, nil
}
