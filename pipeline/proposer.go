/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/touchup/agents/promptbuilder"
	"chainguard.dev/touchup/agents/textgen"
	"github.com/chainguard-dev/clog"
)

var editPrompt = promptbuilder.MustNewPrompt(
	"Make small improvements to this code or documentation without changing its functionality:\n\n{{content}}")

// editRequest embeds the file content verbatim.
type editRequest struct {
	content string
}

var _ promptbuilder.Bindable = editRequest{}

func (r editRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return p.BindText("content", r.content)
}

// Proposer asks a text generator for an edited version of a file.
type Proposer struct {
	gen         textgen.Interface
	maxTokens   int64
	temperature *float64
}

// NewProposer creates a Proposer that caps completions at maxTokens.
func NewProposer(gen textgen.Interface, maxTokens int64, temperature *float64) (*Proposer, error) {
	if gen == nil {
		return nil, errors.New("text generator cannot be nil")
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}
	return &Proposer{gen: gen, maxTokens: maxTokens, temperature: temperature}, nil
}

// Propose returns the generator's completion for content with surrounding
// whitespace trimmed. The result is unvalidated; see Gate.
func (p *Proposer) Propose(ctx context.Context, content string) (string, error) {
	prompt, err := promptbuilder.Render(editPrompt, editRequest{content: content})
	if err != nil {
		return "", fmt.Errorf("building edit prompt: %w", err)
	}

	completion, err := p.gen.Complete(ctx, textgen.Request{
		Prompt:      prompt,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Purpose:     textgen.PurposeEdit,
	})
	if err != nil {
		return "", fmt.Errorf("generating edit: %w", err)
	}

	candidate := strings.TrimSpace(completion)
	clog.FromContext(ctx).With("original_length", len(content)).
		With("candidate_length", len(candidate)).
		Debug("Proposed edit")
	return candidate, nil
}
