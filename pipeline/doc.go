/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package pipeline turns model completions into published changes.
//
// For every repository the Driver syncs a working copy, reads the target
// file, asks the Proposer for an edited version and runs it past the Gate.
// Only an accepted candidate is written back, summarized into a commit
// message by the Composer and handed to the Publisher, which stages, commits
// and pushes it. Repositories are processed one at a time and a failure in
// one never stops the others; only failing to list repositories ends a run.
//
//	driver, err := pipeline.NewDriver(cfg, source, synchronizer, generator,
//	    pipeline.WithSummarizer(generator),
//	)
//	report, err := driver.Run(ctx)
package pipeline
