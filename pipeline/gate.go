/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import "unicode/utf8"

// DefaultAcceptanceLengthRatio rejects candidates that are not longer than
// 80% of the original.
const DefaultAcceptanceLengthRatio = 0.8

// Reason explains a gate decision.
type Reason string

const (
	ReasonAccepted  Reason = "accepted"
	ReasonUnchanged Reason = "unchanged"
	ReasonTooShort  Reason = "too-short"
)

// Decision is the outcome of evaluating one candidate.
type Decision struct {
	Accepted bool
	Reason   Reason
	// Lengths are in Unicode code points.
	OriginalLength  int
	CandidateLength int
}

// Gate decides whether a candidate edit is worth publishing. It rejects
// candidates identical to the original and candidates whose length is at
// most ratio times the original length. It does not look at content.
type Gate struct {
	ratio float64
}

// NewGate creates a Gate. ratio must be in (0, 1].
func NewGate(ratio float64) (*Gate, error) {
	if err := validateRatio(ratio); err != nil {
		return nil, err
	}
	return &Gate{ratio: ratio}, nil
}

// Evaluate applies both rules and reports which one, if any, rejected the
// candidate.
func (g *Gate) Evaluate(original, candidate string) Decision {
	d := Decision{
		OriginalLength:  utf8.RuneCountInString(original),
		CandidateLength: utf8.RuneCountInString(candidate),
	}
	switch {
	case candidate == original:
		d.Reason = ReasonUnchanged
	case float64(d.CandidateLength) <= g.ratio*float64(d.OriginalLength):
		d.Reason = ReasonTooShort
	default:
		d.Accepted = true
		d.Reason = ReasonAccepted
	}
	return d
}

// Accept reports whether candidate should replace original.
func (g *Gate) Accept(original, candidate string) bool {
	return g.Evaluate(original, candidate).Accepted
}
