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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/googlegenomics/exonedge/internal/format"
)

const historyName = ".exonedge_history"

// Prompter reads lines from the user.  Prompt returns io.EOF when input ends.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// linerPrompter is a Prompter with readline editing and persistent history.
type linerPrompter struct {
	*liner.State
	history string
}

func newLinerPrompter() (Prompter, error) {
	p := &linerPrompter{State: liner.NewLiner()}
	p.SetCtrlCAborts(true)
	if home, err := os.UserHomeDir(); err == nil {
		p.history = filepath.Join(home, historyName)
		if f, err := os.Open(p.history); err == nil {
			p.ReadHistory(f)
			f.Close()
		}
	}
	return p, nil
}

func (p *linerPrompter) Prompt(prompt string) (string, error) {
	line, err := p.State.Prompt(prompt)
	if err == liner.ErrPromptAborted {
		return "", io.EOF
	}
	return line, err
}

func (p *linerPrompter) Close() error {
	if p.history != "" {
		if f, err := os.Create(p.history); err == nil {
			p.WriteHistory(f)
			f.Close()
		}
	}
	return p.State.Close()
}

func newInteractiveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for queries until end of input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			newPrompter := app.NewPrompter
			if newPrompter == nil {
				newPrompter = newLinerPrompter
			}
			p, err := newPrompter()
			if err != nil {
				return err
			}
			defer p.Close()
			return app.interact(cmd, p)
		},
	}
}

// parseMode accepts the mode names and the option labels shown by the prompt.
func parseMode(text string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "1", "e", modeEdges, "exon edge finder":
		return modeEdges, true
	case "2", "a", modeAbundance, "genomic abundance analyzer":
		return modeAbundance, true
	}
	return "", false
}

func (app *App) interact(cmd *cobra.Command, p Prompter) error {
	out := cmd.OutOrStdout()
	ask := func(prompt string) (string, error) {
		line, err := p.Prompt(prompt)
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			p.AppendHistory(line)
		}
		return line, nil
	}

	for {
		answer, err := ask("Choose Analysis Option (Exon Edge Finder / Genomic Abundance Analyzer): ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		switch strings.ToLower(answer) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		}
		mode, ok := parseMode(answer)
		if !ok {
			fmt.Fprintf(out, "Unknown option %q\n", answer)
			continue
		}

		coordinate, err := ask("Enter Genomic Coordinate (chr#:start-end_strand): ")
		if err != nil {
			return ignoreEOF(err)
		}
		var filterText, location string
		if mode == modeEdges {
			filterText, err = ask("Enter Filter Condition (optional): ")
		} else {
			location, err = ask("Enter Track Location: ")
		}
		if err != nil {
			return ignoreEOF(err)
		}

		text, _, err := runQuery(cmd.Context(), app.analyzer, mode, coordinate, filterText, location)
		if err != nil {
			text = format.Error(err) + "\n"
		}
		fmt.Fprint(out, text)
	}
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("reading input: %w", err)
}
