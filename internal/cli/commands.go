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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/googlegenomics/exonedge/internal/analysis"
	"github.com/googlegenomics/exonedge/internal/format"
)

const (
	modeEdges     = "edges"
	modeAbundance = "abundance"
)

func newEdgesCommand(app *App) *cobra.Command {
	var (
		filterText string
		raw        bool
	)
	cmd := &cobra.Command{
		Use:   "edges <coordinate>",
		Short: "Find exon edges in a region, e.g. chr1:1000-2000_+",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if raw {
				data, err := app.analyzer.RawJunctions(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return app.write(bytes.NewBuffer(data))
			}
			report, err := app.analyzer.Edges(cmd.Context(), args[0], filterText)
			if err != nil {
				return err
			}
			app.logger.Debug("edge query", "region", report.Region.String(), "fetched", report.Fetched, "retained", report.Retained)
			return app.emit(format.Edges(report.Edges), report.Record())
		},
	}
	cmd.Flags().StringVarP(&filterText, "filter", "f", "", "junction filter, e.g. coverage>5")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the junction server's response unparsed")
	return cmd
}

func newAbundanceCommand(app *App) *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "abundance <coordinate>",
		Short: "Summarize a coverage track over a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.analyzer.Abundance(cmd.Context(), args[0], location)
			if err != nil {
				return err
			}
			return app.emit(format.Abundance(result), format.NewAbundanceRecord(result))
		},
	}
	cmd.Flags().StringVarP(&location, "track", "t", "", "bedGraph or bigWig track: a local path, gs://bucket/object or s3://bucket/object")
	if err := cmd.MarkFlagRequired("track"); err != nil {
		panic(err)
	}
	return cmd
}

// batchResult is the JSON form of one query in a batch.
type batchResult struct {
	Coordinate string      `json:"coordinate"`
	Result     interface{} `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func newBatchCommand(app *App) *cobra.Command {
	var filterText, location, mode string
	cmd := &cobra.Command{
		Use:   "batch <file.csv>",
		Short: "Run a query for every row of a CSV file with chromosome, start, end and strand columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode == "" {
				mode = modeEdges
				if location != "" {
					mode = modeAbundance
				}
			}
			if mode != modeEdges && mode != modeAbundance {
				return fmt.Errorf("unknown mode %q", mode)
			}
			if mode == modeAbundance && location == "" {
				return fmt.Errorf("abundance mode needs --track")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			coordinates, err := analysis.ReadCoordinates(f)
			if err != nil {
				return err
			}

			var text strings.Builder
			results := make([]batchResult, 0, len(coordinates))
			failed := 0
			for _, coordinate := range coordinates {
				out, record, err := runQuery(cmd.Context(), app.analyzer, mode, coordinate, filterText, location)
				result := batchResult{Coordinate: coordinate, Result: record}
				if err != nil {
					failed++
					out = format.Error(err) + "\n"
					result.Error = format.Error(err)
					app.logger.Warn("batch query failed", "coordinate", coordinate, "error", err)
				}
				fmt.Fprintf(&text, "== %s ==\n%s", coordinate, out)
				results = append(results, result)
			}

			if err := app.emit(text.String(), results); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d queries: %w", failed, len(coordinates), errQueriesFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&filterText, "filter", "f", "", "junction filter for edge queries")
	cmd.Flags().StringVarP(&location, "track", "t", "", "coverage track for abundance queries")
	cmd.Flags().StringVar(&mode, "mode", "", "edges or abundance (default: abundance if --track is set)")
	return cmd
}

// runQuery runs a single query and returns its text and JSON forms.
func runQuery(ctx context.Context, a analysis.Analyzer, mode, coordinate, filterText, location string) (string, interface{}, error) {
	if mode == modeAbundance {
		result, err := a.Abundance(ctx, coordinate, location)
		if err != nil {
			return "", nil, err
		}
		return format.Abundance(result), format.NewAbundanceRecord(result), nil
	}
	report, err := a.Edges(ctx, coordinate, filterText)
	if err != nil {
		return "", nil, err
	}
	return format.Edges(report.Edges), report.Record(), nil
}
