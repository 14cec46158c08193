/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googlegen implements textgen.Interface on Gemini through
// google.golang.org/genai, against either the Gemini API or Vertex AI.
//
//	client, err := genai.NewClient(ctx, &genai.ClientConfig{
//	    Backend:  genai.BackendVertexAI,
//	    Project:  projectID,
//	    Location: region,
//	})
//	gen, err := googlegen.New(client, googlegen.WithModel("gemini-2.5-flash"))
package googlegen
