/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Bindable represents a request type that knows how to fill a Prompt.
type Bindable interface {
	// Bind returns a new prompt with the receiver's values bound.
	Bind(prompt *Prompt) (*Prompt, error)
}

// Render binds req to prompt and builds the final text.
func Render(prompt *Prompt, req Bindable) (string, error) {
	bound, err := req.Bind(prompt)
	if err != nil {
		return "", err
	}
	return bound.Build()
}
