/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// stringLiteral can only be satisfied by an untyped string constant outside
// this package, so templates are always written by the developer.
type stringLiteral string

// Prompt is an immutable template with named placeholders.
type Prompt struct {
	template *fasttemplate.Template
	slots    slots
}

// NewPrompt parses template and collects its placeholders.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	tmpl, err := fasttemplate.NewTemplate(string(template), startTag, endTag)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	found := slots{}
	if _, err := tmpl.ExecuteFuncStringWithErr(func(_ io.Writer, tag string) (int, error) {
		name := strings.TrimSpace(tag)
		if !isValidIdentifier(name) {
			return 0, fmt.Errorf("invalid binding identifier %q", name)
		}
		found[name] = nil
		return 0, nil
	}); err != nil {
		return nil, err
	}
	return &Prompt{template: tmpl, slots: found}, nil
}

// BindText returns a copy of p with name bound to value, emitted byte for
// byte.
func (p *Prompt) BindText(name, value string) (*Prompt, error) {
	return p.bind(name, value)
}

func (p *Prompt) bind(name, text string) (*Prompt, error) {
	s, err := p.slots.with(name, text)
	if err != nil {
		return nil, err
	}
	return &Prompt{template: p.template, slots: s}, nil
}

// Build substitutes every placeholder. It fails while any is unbound.
func (p *Prompt) Build() (string, error) {
	values, err := p.slots.resolve()
	if err != nil {
		return "", err
	}
	return p.template.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		return io.WriteString(w, values[strings.TrimSpace(tag)])
	})
}

// isValidIdentifier reports whether s is a letter followed by letters,
// digits or underscores.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return true
}
