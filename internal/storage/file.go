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
	"os"
	"path/filepath"
	"strings"
)

// FileClient is Client for reading files from the local file system.  The
// bucket is ignored.  If Root is set, objects are resolved relative to it and
// may not escape it; otherwise objects are plain paths.
type FileClient struct {
	Root string
}

// NewObjectHandle returns a handle to a specified object in the
// storage engine.
func (c FileClient) NewObjectHandle(_, object string) ObjectHandle {
	return fileObjectHandle{c.Root, object}
}

type fileObjectHandle struct {
	root, path string
}

func (h fileObjectHandle) resolve() (string, error) {
	if h.root == "" {
		return h.path, nil
	}
	path := filepath.Join(h.root, filepath.FromSlash(h.path))
	rel, err := filepath.Rel(h.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, h.path)
	}
	return path, nil
}

func (h fileObjectHandle) NewRangeReader(_ context.Context, offset, length int64) (io.ReadCloser, error) {
	path, err := h.resolve()
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seeking to %d: %w", offset, err)
	}
	if length < 0 {
		return file, nil
	}
	return &fileRangeReader{io.LimitReader(file, length), file}, nil
}

// fileRangeReader reads a portion of a file and closes the file when done.
type fileRangeReader struct {
	io.Reader
	file *os.File
}

func (r *fileRangeReader) Close() error {
	return r.file.Close()
}
