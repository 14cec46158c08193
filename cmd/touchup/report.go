/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"chainguard.dev/touchup/pipeline"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

// shortCommitLength is how much of a commit hash the report shows.
const shortCommitLength = 12

// writeReport prints one row per repository followed by the totals.
func writeReport(w io.Writer, rep pipeline.Report) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Behavior: tw.Behavior{TrimSpace: tw.Off},
		}),
		tablewriter.WithHeader([]string{"Repository", "State", "Commit", "Detail"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)

	for _, o := range rep.Outcomes {
		if err := table.Append([]string{o.Repository, string(o.State), short(o.Commit), detail(o)}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d published, %d skipped, %d failed\n",
		rep.Count(pipeline.StatePublished), rep.Count(pipeline.StateSkipped), rep.Count(pipeline.StateFailed))
	return err
}

func detail(o pipeline.Outcome) string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Reason
}

func short(sha string) string {
	if len(sha) > shortCommitLength {
		return sha[:shortCommitLength]
	}
	return sha
}

// runRecord is the machine-readable summary of a run written to REPORT_FILE.
type runRecord struct {
	Finished     string       `yaml:"finished"`
	Published    int          `yaml:"published"`
	Skipped      int          `yaml:"skipped"`
	Failed       int          `yaml:"failed"`
	Repositories []repoRecord `yaml:"repositories"`
}

type repoRecord struct {
	Repository string `yaml:"repository"`
	State      string `yaml:"state"`
	Commit     string `yaml:"commit,omitempty"`
	Reason     string `yaml:"reason,omitempty"`
	Error      string `yaml:"error,omitempty"`
}

func newRunRecord(rep pipeline.Report, finished time.Time) runRecord {
	rec := runRecord{
		Finished:     finished.UTC().Format(time.RFC3339),
		Published:    rep.Count(pipeline.StatePublished),
		Skipped:      rep.Count(pipeline.StateSkipped),
		Failed:       rep.Count(pipeline.StateFailed),
		Repositories: make([]repoRecord, 0, len(rep.Outcomes)),
	}
	for _, o := range rep.Outcomes {
		r := repoRecord{
			Repository: o.Repository,
			State:      string(o.State),
			Commit:     o.Commit,
			Reason:     o.Reason,
		}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		rec.Repositories = append(rec.Repositories, r)
	}
	return rec
}

// writeRecord replaces the file at path with the YAML form of rep.
func writeRecord(path string, rep pipeline.Report, finished time.Time) error {
	out, err := yaml.Marshal(newRunRecord(rep, finished))
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing run record: %w", err)
	}
	return nil
}
