/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
)

// Publish steps, as reported by PublishError.
const (
	StepStage  = "stage"
	StepCommit = "commit"
	StepPush   = "push"
)

// ErrNotAccepted is returned when asked to publish a rejected change.
var ErrNotAccepted = errors.New("change record was not accepted")

// VersionControl is what the Publisher needs from a working copy.
type VersionControl interface {
	// Stage adds a path, relative to the working tree, to the index.
	Stage(ctx context.Context, path string) error
	// Commit records the index and returns the new commit hash.
	Commit(ctx context.Context, message string) (string, error)
	// Push publishes the current branch to its remote.
	Push(ctx context.Context) error
}

// ChangeRecord is an accepted edit ready to be published. The file at
// FilePath must already hold the new content.
type ChangeRecord struct {
	CommitMessage string
	FilePath      string
	Accepted      bool
}

// PublishResult describes a pushed change.
type PublishResult struct {
	Commit   string
	FilePath string
}

// PublishError reports which publish step failed.
type PublishError struct {
	Step string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Publisher stages, commits and pushes accepted changes. Each step runs only
// if the previous one succeeded; nothing is rolled back on failure.
type Publisher struct{}

// NewPublisher creates a Publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish records rec in vc and pushes it.
func (p *Publisher) Publish(ctx context.Context, vc VersionControl, rec ChangeRecord) (PublishResult, error) {
	switch {
	case !rec.Accepted:
		return PublishResult{}, ErrNotAccepted
	case rec.FilePath == "":
		return PublishResult{}, errors.New("file path cannot be empty")
	case rec.CommitMessage == "":
		return PublishResult{}, errors.New("commit message cannot be empty")
	}
	log := clog.FromContext(ctx).With("file", rec.FilePath)

	if err := vc.Stage(ctx, rec.FilePath); err != nil {
		return PublishResult{}, &PublishError{Step: StepStage, Err: err}
	}
	sha, err := vc.Commit(ctx, rec.CommitMessage)
	if err != nil {
		return PublishResult{}, &PublishError{Step: StepCommit, Err: err}
	}
	if err := vc.Push(ctx); err != nil {
		return PublishResult{}, &PublishError{Step: StepPush, Err: err}
	}

	log.With("commit", sha).Infof("Changes pushed with message: %q", rec.CommitMessage)
	return PublishResult{Commit: sha, FilePath: rec.FilePath}, nil
}
