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

package junction

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	chromosomeColumn = "chromosome"
	startColumn      = "start"
	endColumn        = "end"
	coverageColumn   = "coverage_sum"

	// The samples column of popular junctions can be very long.
	maxLineSize = 64 * 1024 * 1024
)

// DecodeSnaptron reads a tab separated Snaptron response from r.  The first
// non-empty line must be the header naming each column.
func DecodeSnaptron(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var header []string
	var records []Record
	columns := make(map[string]int)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if header == nil {
			header = fields
			for i, name := range header {
				columns[strings.TrimSpace(name)] = i
			}
			for _, name := range []string{chromosomeColumn, startColumn, endColumn} {
				if _, ok := columns[name]; !ok {
					return nil, fmt.Errorf("header: missing %q column", name)
				}
			}
			continue
		}

		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: got %d columns, want %d", line, len(fields), len(header))
		}
		record, err := decodeRecord(header, columns, fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading junctions: %v", err)
	}
	return records, nil
}

func decodeRecord(header []string, columns map[string]int, fields []string) (Record, error) {
	record := Record{
		Chromosome: strings.TrimSpace(fields[columns[chromosomeColumn]]),
		Fields:     make(map[string]Value, len(fields)),
	}

	var err error
	if record.Start, err = strconv.Atoi(strings.TrimSpace(fields[columns[startColumn]])); err != nil {
		return Record{}, fmt.Errorf("parsing start: %v", err)
	}
	if record.End, err = strconv.Atoi(strings.TrimSpace(fields[columns[endColumn]])); err != nil {
		return Record{}, fmt.Errorf("parsing end: %v", err)
	}
	if i, ok := columns[coverageColumn]; ok {
		if record.Coverage, err = strconv.ParseFloat(strings.TrimSpace(fields[i]), 64); err != nil {
			return Record{}, fmt.Errorf("parsing coverage: %v", err)
		}
		if record.Coverage < 0 {
			return Record{}, fmt.Errorf("negative coverage %v", record.Coverage)
		}
		record.HasCoverage = true
	}

	for i, name := range header {
		record.Fields[strings.TrimSpace(name)] = ParseValue(fields[i])
	}
	return record, nil
}
