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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/exonedge/internal/analysis"
	"github.com/googlegenomics/exonedge/internal/config"
	"github.com/googlegenomics/exonedge/internal/genomics"
	"github.com/googlegenomics/exonedge/internal/junction"
	"github.com/googlegenomics/exonedge/internal/storage"
	"github.com/googlegenomics/exonedge/internal/track"
)

type fakeJunctions []junction.Record

func (f fakeJunctions) Junctions(context.Context, genomics.Region) ([]junction.Record, error) {
	return f, nil
}

const rawJunctions = "chromosome\tstart\tend\tcoverage_sum\nchr1\t1000\t1500\t1\n"

func (f fakeJunctions) Raw(context.Context, genomics.Region) ([]byte, error) {
	return []byte(rawJunctions), nil
}

var testJunctions = fakeJunctions{
	{Chromosome: "chr1", Start: 1000, End: 1500, Coverage: 1, HasCoverage: true},
	{Chromosome: "chr1", Start: 1200, End: 1800, Coverage: 0.2, HasCoverage: true},
}

func testAnalyzer(context.Context, config.Config) (analysis.Analyzer, error) {
	return analysis.Analyzer{
		Junctions: testJunctions,
		Tracks:    track.Opener{Files: storage.FileClient{Root: "testdata"}},
	}, nil
}

type run struct {
	code           int
	stdout, stderr string
}

func execute(t *testing.T, app *App, args ...string) run {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app.Stdout, app.Stderr = &stdout, &stderr
	if app.NewAnalyzer == nil {
		app.NewAnalyzer = testAnalyzer
	}
	code := Execute(context.Background(), app, args)
	return run{code, stdout.String(), stderr.String()}
}

func TestEdges(t *testing.T) {
	got := execute(t, &App{}, "edges", "chr1:1000-2000_+", "--filter", "coverage>0.5")
	require.Equal(t, 0, got.code, got.stderr)
	assert.Equal(t, "Exon edges:\nposition\ttype\tsupport\n1000\tend\t1\n1500\tstart\t1\n", got.stdout)
}

func TestEdges_None(t *testing.T) {
	got := execute(t, &App{}, "edges", "chr1:1000-2000_+", "-f", "coverage>10")
	require.Equal(t, 0, got.code, got.stderr)
	assert.Equal(t, "No exon edges found\n", got.stdout)
}

func TestEdges_JSON(t *testing.T) {
	got := execute(t, &App{}, "--json", "edges", "chr1:1000-2000_+")
	require.Equal(t, 0, got.code, got.stderr)

	var body struct {
		Fetched  int `json:"fetched"`
		Retained int `json:"retained"`
		Edges    []struct {
			Position int    `json:"position"`
			Type     string `json:"type"`
		} `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(got.stdout), &body))
	assert.Equal(t, 2, body.Fetched)
	assert.Equal(t, 2, body.Retained)
	assert.Len(t, body.Edges, 4)
}

func TestEdges_Raw(t *testing.T) {
	got := execute(t, &App{}, "edges", "--raw", "chr1:1000-2000_+")
	require.Equal(t, 0, got.code, got.stderr)
	assert.Equal(t, rawJunctions, got.stdout)

	got = execute(t, &App{}, "edges", "--raw", "chr1:2000-1000_+")
	assert.Equal(t, 1, got.code)
	assert.Contains(t, got.stderr, "chr1:2000-1000_+")
}

func TestErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"malformed coordinate", []string{"edges", "chr1:2000-1000_+"}, "chr1:2000-1000_+"},
		{"invalid filter", []string{"edges", "chr1:1000-2000_+", "--filter", "coverage"}, "coverage"},
		{"empty region", []string{"abundance", "chr9:1-10_+", "--track", "sample.bedgraph"}, "No data in range chr9:1-10_+"},
		{"missing track flag", []string{"abundance", "chr1:1-10_+"}, `"track" not set`},
		{"missing argument", []string{"edges"}, "accepts 1 arg"},
		{"missing config", []string{"--config", "missing.json", "edges", "chr1:1-10_+"}, "reading config"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := execute(t, &App{}, tc.args...)
			assert.Equal(t, 1, got.code)
			assert.Empty(t, got.stdout)
			assert.Contains(t, got.stderr, tc.want)
		})
	}
}

func TestAbundanceCommand_TrackRequired(t *testing.T) {
	var cmd *cobra.Command
	require.NotPanics(t, func() { cmd = newAbundanceCommand(&App{}) })
	flag := cmd.Flags().Lookup("track")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestAbundance(t *testing.T) {
	got := execute(t, &App{}, "abundance", "chr1:1000-1012_+", "--track", "sample.bedgraph")
	require.Equal(t, 0, got.code, got.stderr)
	want := "Transcription abundance for chr1:1000-1012_+:\nmean\t3.6\nmax\t6\nmin\t2\nsum\t18\nbases\t5\n"
	assert.Equal(t, want, got.stdout)
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	got := execute(t, &App{}, "--json", "--output", path, "abundance", "chr1:1000-1012_+", "-t", "sample.bedgraph")
	require.Equal(t, 0, got.code, got.stderr)
	assert.Empty(t, got.stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, 3.6, body["mean"])
	assert.Equal(t, float64(5), body["bases"])
}

func TestBatch(t *testing.T) {
	got := execute(t, &App{}, "batch", "testdata/regions.csv", "--filter", "coverage>0.5")
	assert.Equal(t, 1, got.code)

	sections := strings.Split(got.stdout, "== ")
	require.Len(t, sections, 4, got.stdout)
	assert.True(t, strings.HasPrefix(sections[1], "chr1:1000-2000_+ ==\nExon edges:\n"), sections[1])
	assert.Contains(t, sections[2], "chr1:3000-2000_+")
	assert.True(t, strings.HasPrefix(sections[3], "chr1:1000-1012_- ==\nExon edges:\n"), sections[3])
	assert.Contains(t, got.stderr, "1 of 3 queries")
}

func TestBatch_AbundanceJSON(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "regions.csv")
	require.NoError(t, os.WriteFile(csv, []byte("chromosome,start,end,strand\nchr1,1000,1012,+\nchr1,1000,1002,-\n"), 0o644))

	got := execute(t, &App{}, "--json", "batch", csv, "--track", "sample.bedgraph")
	require.Equal(t, 0, got.code, got.stderr)

	var results []struct {
		Coordinate string `json:"coordinate"`
		Result     struct {
			Mean float64 `json:"mean"`
		} `json:"result"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(got.stdout), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "chr1:1000-1012_+", results[0].Coordinate)
	assert.Equal(t, 3.6, results[0].Result.Mean)
	assert.Equal(t, 2.0, results[1].Result.Mean)
	assert.Empty(t, results[1].Error)
}

func TestBatch_InvalidMode(t *testing.T) {
	got := execute(t, &App{}, "batch", "testdata/regions.csv", "--mode", "abundance")
	assert.Equal(t, 1, got.code)
	assert.Contains(t, got.stderr, "--track")

	got = execute(t, &App{}, "batch", "testdata/regions.csv", "--mode", "plot")
	assert.Equal(t, 1, got.code)
	assert.Contains(t, got.stderr, `unknown mode "plot"`)
}

// scriptedPrompter answers prompts from a fixed list of lines.
type scriptedPrompter struct {
	lines   []string
	prompts []string
	history []string
	closed  bool
}

func (p *scriptedPrompter) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptedPrompter) AppendHistory(item string) { p.history = append(p.history, item) }

func (p *scriptedPrompter) Close() error {
	p.closed = true
	return nil
}

func TestInteractive(t *testing.T) {
	p := &scriptedPrompter{lines: []string{
		"Exon Edge Finder", "chr1:1000-2000_+", "coverage>0.5",
		"plot",
		"2", "chr1:1000-1012_+", "sample.bedgraph",
		"edges", "chr1:oops", "",
	}}
	app := &App{NewPrompter: func() (Prompter, error) { return p, nil }}

	got := execute(t, app, "interactive")
	require.Equal(t, 0, got.code, got.stderr)
	assert.True(t, p.closed)

	assert.Contains(t, got.stdout, "1000\tend\t1\n1500\tstart\t1\n")
	assert.Contains(t, got.stdout, `Unknown option "plot"`)
	assert.Contains(t, got.stdout, "mean\t3.6\n")
	assert.Contains(t, got.stdout, "chr1:oops")
	assert.Equal(t, "Enter Genomic Coordinate (chr#:start-end_strand): ", p.prompts[1])
	assert.Equal(t, "Enter Filter Condition (optional): ", p.prompts[2])
	assert.Contains(t, p.history, "chr1:1000-2000_+")
	assert.NotContains(t, p.history, "")
}

func TestInteractive_Quit(t *testing.T) {
	p := &scriptedPrompter{lines: []string{"", "quit", "edges"}}
	app := &App{NewPrompter: func() (Prompter, error) { return p, nil }}

	got := execute(t, app, "interactive")
	require.Equal(t, 0, got.code, got.stderr)
	assert.Len(t, p.prompts, 2)
}

func TestParseMode(t *testing.T) {
	testCases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"Exon Edge Finder", modeEdges, true},
		{" edges ", modeEdges, true},
		{"1", modeEdges, true},
		{"Genomic Abundance Analyzer", modeAbundance, true},
		{"a", modeAbundance, true},
		{"plot", "", false},
	}
	for _, tc := range testCases {
		got, ok := parseMode(tc.input)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseMode(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}
