/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"chainguard.dev/touchup/agents/promptbuilder"
	"chainguard.dev/touchup/agents/textgen"
	"github.com/chainguard-dev/clog"
)

// summaryPrefixLength is how many code points of each version the summary
// prompt shows.
const summaryPrefixLength = 500

var summaryPrompt = promptbuilder.MustNewPrompt(
	"Summarize the changes made between the following two versions of a file:\n\n" +
		"Original:\n{{original}}\n\n" +
		"Updated:\n{{updated}}\n\n" +
		"Write a short description:")

// MessageTemplates are the commit message shapes, each taking {{repo}} and
// {{summary}}.
var MessageTemplates = []*promptbuilder.Prompt{
	promptbuilder.MustNewPrompt("Automated update for {{repo}}: {{summary}}"),
	promptbuilder.MustNewPrompt("{{repo}}: {{summary}} made using a text-generation model."),
	promptbuilder.MustNewPrompt("Small tweaks to {{repo}}: {{summary}}"),
	promptbuilder.MustNewPrompt("Cleaned up code or updated docs for {{repo}}: {{summary}}"),
}

type summaryRequest struct {
	original, updated string
}

func (r summaryRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	p, err := p.BindText("original", prefix(r.original, summaryPrefixLength))
	if err != nil {
		return nil, err
	}
	return p.BindText("updated", prefix(r.updated, summaryPrefixLength))
}

type messageRequest struct {
	repo, summary string
}

func (r messageRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	p, err := p.BindText("repo", r.repo)
	if err != nil {
		return nil, err
	}
	return p.BindText("summary", r.summary)
}

// Chooser returns an index in [0, n).
type Chooser func(n int) int

// Composer describes accepted changes and turns them into commit messages.
type Composer struct {
	summarizer  textgen.Interface
	maxTokens   int64
	temperature *float64
	fallback    string
	choose      Chooser
}

// NewComposer creates a Composer. A nil summarizer always uses the fallback
// summary "Auto-edited <target base name>". A nil choose picks templates
// uniformly at random.
func NewComposer(targetFile string, summarizer textgen.Interface, maxTokens int64, temperature *float64, choose Chooser) *Composer {
	if choose == nil {
		choose = rand.IntN
	}
	return &Composer{
		summarizer:  summarizer,
		maxTokens:   maxTokens,
		temperature: temperature,
		fallback:    "Auto-edited " + baseName(targetFile),
		choose:      choose,
	}
}

// Summarize describes the change from original to updated in one line. It
// never fails: without a summarizer, or when the summarizer errors or says
// nothing, the fallback summary is returned.
func (c *Composer) Summarize(ctx context.Context, original, updated string) string {
	if c.summarizer == nil {
		return c.fallback
	}
	log := clog.FromContext(ctx)

	prompt, err := promptbuilder.Render(summaryPrompt, summaryRequest{original: original, updated: updated})
	if err != nil {
		log.Warnf("Building summary prompt failed, using fallback: %v", err)
		return c.fallback
	}
	completion, err := c.summarizer.Complete(ctx, textgen.Request{
		Prompt:      prompt,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Purpose:     textgen.PurposeSummary,
	})
	if err != nil {
		log.Warnf("Summarizing changes failed, using fallback: %v", err)
		return c.fallback
	}

	summary := strings.Join(strings.Fields(completion), " ")
	if summary == "" {
		log.Warn("Summarizer returned nothing, using fallback")
		return c.fallback
	}
	return summary
}

// ComposeMessage fills one of MessageTemplates with repo and summary.
func (c *Composer) ComposeMessage(repo, summary string) (string, error) {
	i := c.choose(len(MessageTemplates))
	if i < 0 || i >= len(MessageTemplates) {
		return "", fmt.Errorf("template index %d out of range [0, %d)", i, len(MessageTemplates))
	}
	return promptbuilder.Render(MessageTemplates[i], messageRequest{repo: repo, summary: summary})
}

// prefix returns at most n code points of s.
func prefix(s string, n int) string {
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}
