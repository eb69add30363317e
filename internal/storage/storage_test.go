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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func readAll(t *testing.T, h ObjectHandle, offset, length int64) string {
	t.Helper()
	r, err := h.NewRangeReader(context.Background(), offset, length)
	if err != nil {
		t.Fatalf("NewRangeReader(%d, %d) returned error: %v", offset, length, err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Reading range: %v", err)
	}
	return string(b)
}

var rangeCases = []struct {
	name           string
	offset, length int64
	want           string
}{
	{"whole object", 0, -1, "0123456789abcdef"},
	{"suffix", 10, -1, "abcdef"},
	{"middle", 2, 4, "2345"},
	{"prefix", 0, 3, "012"},
}

func TestFileClient(t *testing.T) {
	for _, client := range []FileClient{{}, {Root: "testdata"}} {
		object := "object.txt"
		if client.Root == "" {
			object = "testdata/object.txt"
		}
		for _, tc := range rangeCases {
			t.Run(fmt.Sprintf("root=%q/%s", client.Root, tc.name), func(t *testing.T) {
				if got := readAll(t, client.NewObjectHandle("", object), tc.offset, tc.length); got != tc.want {
					t.Errorf("Wrong content: got %q, want %q", got, tc.want)
				}
			})
		}
	}
}

func TestFileClient_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := FileClient{Root: "testdata"}.NewObjectHandle("", "../storage.go").NewRangeReader(ctx, 0, -1)
	if !errors.Is(err, ErrOutsideRoot) || !IsPermissionDenied(err) {
		t.Errorf("Escaping the root: got %v, want ErrOutsideRoot", err)
	}

	_, err = FileClient{Root: "testdata"}.NewObjectHandle("", "missing.txt").NewRangeReader(ctx, 0, -1)
	if !IsNotExist(err) {
		t.Errorf("Missing file: got %v, want a not-exist error", err)
	}
}

func TestGCSClient(t *testing.T) {
	ctx := context.Background()
	client, err := NewGCSClient(ctx, option.WithHTTPClient(&http.Client{Transport: &fakeGCS{t}}))
	if err != nil {
		t.Fatalf("NewGCSClient() returned error: %v", err)
	}
	for _, tc := range rangeCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := readAll(t, client.NewObjectHandle("bucket", "object.txt"), tc.offset, tc.length); got != tc.want {
				t.Errorf("Wrong content: got %q, want %q", got, tc.want)
			}
		})
	}
}

// This test ensures that the undocumented error handling behaviour of the GCS
// storage client does not change.
func TestGCSClient_Errors(t *testing.T) {
	testCases := []struct {
		name             string
		status           int
		notExist, denied bool
	}{
		{"unauthorized", http.StatusUnauthorized, false, true},
		{"forbidden", http.StatusForbidden, false, true},
		{"not found", http.StatusNotFound, true, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			client, err := NewGCSClient(ctx, option.WithHTTPClient(&http.Client{Transport: fixedStatus(tc.status)}))
			if err != nil {
				t.Fatalf("NewGCSClient() returned error: %v", err)
			}
			_, err = client.NewObjectHandle("bucket", "object.txt").NewRangeReader(ctx, 0, -1)
			if err == nil {
				t.Fatal("NewRangeReader() succeeded, want error")
			}
			if got := IsNotExist(err); got != tc.notExist {
				t.Errorf("IsNotExist(%v): got %v, want %v", err, got, tc.notExist)
			}
			if got := IsPermissionDenied(err); got != tc.denied {
				t.Errorf("IsPermissionDenied(%v): got %v, want %v", err, got, tc.denied)
			}
		})
	}
}

func TestClassification(t *testing.T) {
	testCases := []struct {
		name             string
		err              error
		notExist, denied bool
	}{
		{"missing token", ErrMissingOrInvalidToken, false, true},
		{"wrapped os not exist", fmt.Errorf("opening: %w", os.ErrNotExist), true, false},
		{"googleapi forbidden", &googleapi.Error{Code: http.StatusForbidden}, false, true},
		{"minio no such key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, true, false},
		{"minio access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, false, true},
		{"plain", errors.New("boom"), false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsNotExist(tc.err); got != tc.notExist {
				t.Errorf("IsNotExist: got %v, want %v", got, tc.notExist)
			}
			if got := IsPermissionDenied(tc.err); got != tc.denied {
				t.Errorf("IsPermissionDenied: got %v, want %v", got, tc.denied)
			}
		})
	}
}

func TestStatic(t *testing.T) {
	want := FileClient{Root: "testdata"}
	got, err := Static(want)(httptest.NewRequest("GET", "/", nil))
	if err != nil || got != want {
		t.Errorf("Static(): got %v, %v, want %v", got, err, want)
	}
}

func TestNewClientFromBearerToken_Invalid(t *testing.T) {
	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer a b"} {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if _, err := NewClientFromBearerToken(req); err != ErrMissingOrInvalidToken {
			t.Errorf("Authorization %q: got %v, want ErrMissingOrInvalidToken", header, err)
		}
	}
}

type fixedStatus int

func (code fixedStatus) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		Status:     http.StatusText(int(code)),
		StatusCode: int(code),
		Header:     make(http.Header),
		Body:       http.NoBody,
	}, nil
}

type fakeGCS struct {
	*testing.T
}

func (fake *fakeGCS) RoundTrip(req *http.Request) (*http.Response, error) {
	filename := "testdata/" + path.Base(req.URL.Path)

	content, err := os.Open(filename)
	if err != nil {
		response := httptest.NewRecorder()
		http.Error(response, fmt.Sprintf("Failed to open test data: %v", err), http.StatusNotFound)
		return response.Result(), nil
	}
	defer content.Close()

	w := httptest.NewRecorder()
	http.ServeContent(w, req, filename, time.Now(), content)
	return w.Result(), nil
}
