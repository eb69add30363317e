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

// Package cli implements the exonedge command line tool.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/exonedge/internal/analysis"
	"github.com/googlegenomics/exonedge/internal/config"
	"github.com/googlegenomics/exonedge/internal/format"
	"github.com/googlegenomics/exonedge/internal/logger"
	"github.com/googlegenomics/exonedge/internal/storage"
)

// NewAnalyzerFunc builds the analyzer used by the commands.
type NewAnalyzerFunc func(ctx context.Context, cfg config.Config) (analysis.Analyzer, error)

// App holds the streams and collaborators of a command line invocation.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	// NewAnalyzer defaults to NewAnalyzer.
	NewAnalyzer NewAnalyzerFunc

	// NewPrompter opens the prompt used by the interactive command.  It
	// defaults to a liner prompt with history.
	NewPrompter func() (Prompter, error)

	configPath string
	jsonOutput bool
	outputPath string
	logLevel   string

	cfg      config.Config
	analyzer analysis.Analyzer
	logger   *slog.Logger
}

// NewAnalyzer builds an analyzer from cfg.  gs:// tracks are read with the
// application default credentials when available and anonymously otherwise.
func NewAnalyzer(ctx context.Context, cfg config.Config) (analysis.Analyzer, error) {
	opener, err := cfg.Storage.Opener()
	if err != nil {
		return analysis.Analyzer{}, err
	}
	if opener.Files == nil {
		opener.Files = storage.FileClient{}
	}

	gcs, err := storage.NewGCSClient(ctx)
	if err != nil {
		if gcs, err = storage.NewPublicGCSClient(ctx); err != nil {
			return analysis.Analyzer{}, err
		}
	}
	opener.GCS = gcs

	return analysis.Analyzer{Junctions: cfg.Snaptron.Client(), Tracks: opener}, nil
}

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(app.stderr(), format.Error(err))
		return 1
	}
	return 0
}

// NewRootCommand returns the exonedge command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "exonedge",
		Short:         "Find exon edges from splice junctions and summarize coverage",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
	}
	root.SetOut(app.stdout())
	root.SetErr(app.stderr())

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "configuration file (JSON with comments)")
	flags.BoolVar(&app.jsonOutput, "json", false, "print results as JSON")
	flags.StringVarP(&app.outputPath, "output", "o", "", "write results to this file instead of standard output")
	flags.StringVar(&app.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newEdgesCommand(app),
		newAbundanceCommand(app),
		newBatchCommand(app),
		newInteractiveCommand(app),
	)
	return root
}

func (app *App) setup(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if err := loader.BindFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	cfg, err := loader.Load(app.configPath)
	if err != nil {
		return err
	}
	if cfg.Log.Output == nil {
		cfg.Log.Output = app.stderr()
	}
	app.cfg = cfg
	app.logger = logger.New(cfg.Log)

	newAnalyzer := app.NewAnalyzer
	if newAnalyzer == nil {
		newAnalyzer = NewAnalyzer
	}
	app.analyzer, err = newAnalyzer(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	return nil
}

func (app *App) stdout() io.Writer {
	if app.Stdout == nil {
		return os.Stdout
	}
	return app.Stdout
}

func (app *App) stderr() io.Writer {
	if app.Stderr == nil {
		return os.Stderr
	}
	return app.Stderr
}

// emit writes text, or v as JSON when --json is set, to the output.
func (app *App) emit(text string, v interface{}) error {
	var buf bytes.Buffer
	if app.jsonOutput {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		buf.WriteString(text)
	}
	return app.write(&buf)
}

// write copies buf to the --output file or to stdout.
func (app *App) write(buf *bytes.Buffer) error {
	if app.outputPath != "" {
		if err := atomic.WriteFile(app.outputPath, buf); err != nil {
			return fmt.Errorf("writing %s: %w", app.outputPath, err)
		}
		return nil
	}
	_, err := buf.WriteTo(app.stdout())
	return err
}

var errQueriesFailed = errors.New("some queries failed")
