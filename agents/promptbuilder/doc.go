/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder constructs model prompts from developer-authored templates.

Templates use {{name}} placeholders. A Prompt is immutable: every Bind* call
returns a new Prompt, so a package-level template can be shared freely and
bound per request.

	var editPrompt = promptbuilder.MustNewPrompt(`Improve this file:

	{{content}}`)

	p, err := editPrompt.BindText("content", fileContent)
	if err != nil {
		// binding does not exist or is already bound
	}
	text, err := p.Build()

# Binding

BindText embeds runtime text verbatim, which matters for content the model
has to reproduce byte for byte (for example a file it is asked to edit).
MustBindText panics on error.

# Substitution

Substitution is a single pass over the template (github.com/valyala/fasttemplate),
so a bound value that itself contains {{name}} is emitted as-is and never
expanded. Build fails while any placeholder is unbound.

Placeholder names must start with a letter and contain only letters, digits
and underscores.
*/
package promptbuilder
