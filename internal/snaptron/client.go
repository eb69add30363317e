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

// Package snaptron queries splice junctions from a Snaptron server.
package snaptron

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/googlegenomics/exonedge/internal/genomics"
	"github.com/googlegenomics/exonedge/internal/junction"
)

const (
	// DefaultBaseURL is the public Snaptron server.
	DefaultBaseURL = "https://snaptron.cs.jhu.edu"

	// DefaultCompilation is the SRA v2 junction compilation.
	DefaultCompilation = "srav2"

	maxErrorBody = 512
)

// StatusError is returned when the server responds with a status other than
// 200 OK.
type StatusError struct {
	StatusCode int
	Body       string
}

func (err *StatusError) Error() string {
	if err.Body == "" {
		return fmt.Sprintf("snaptron: unexpected status %d %s", err.StatusCode, http.StatusText(err.StatusCode))
	}
	return fmt.Sprintf("snaptron: unexpected status %d %s: %s", err.StatusCode, http.StatusText(err.StatusCode), err.Body)
}

// Client fetches junctions from a Snaptron compilation.
type Client struct {
	baseURL     string
	compilation string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the server address, for example "http://localhost:8080".
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithCompilation selects the junction compilation to query.
func WithCompilation(name string) Option {
	return func(c *Client) {
		c.compilation = name
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient returns a client for the public srav2 compilation unless
// configured otherwise.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		compilation: DefaultCompilation,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the query URL for the junctions in region on its strand.
func (c *Client) URL(region genomics.Region) string {
	values := url.Values{}
	values.Set("regions", fmt.Sprintf("%s:%d-%d", region.Chromosome, region.Start, region.End))
	values.Set("rfilter", "strand:"+region.Strand.String())
	return fmt.Sprintf("%s/%s/snaptron?%s", c.baseURL, url.PathEscape(c.compilation), values.Encode())
}

// Junctions returns the junctions Snaptron reports for region.  Requests are
// not retried.
func (c *Client) Junctions(ctx context.Context, region genomics.Region) ([]junction.Record, error) {
	body, err := c.get(ctx, region)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	records, err := junction.DecodeSnaptron(body)
	if err != nil {
		return nil, fmt.Errorf("decoding junctions: %w", err)
	}
	return records, nil
}

// Raw returns the response body for region exactly as the server sent it.
func (c *Client) Raw(ctx context.Context, region genomics.Region) ([]byte, error) {
	body, err := c.get(ctx, region)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, region genomics.Region) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(region), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp.Body, nil
}
