/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"fmt"
	"maps"
	"slices"
)

// slots maps each placeholder to its text. A nil entry is unbound.
type slots map[string]*string

func (s slots) with(name, text string) (slots, error) {
	cur, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if cur != nil {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	out := maps.Clone(s)
	out[name] = &text
	return out, nil
}

// resolve returns the bound text of every placeholder, or an error naming
// the first unbound one in sorted order.
func (s slots) resolve() (map[string]string, error) {
	values := make(map[string]string, len(s))
	for _, name := range slices.Sorted(maps.Keys(s)) {
		v := s[name]
		if v == nil {
			return nil, fmt.Errorf("unbound placeholder: %s", name)
		}
		values[name] = *v
	}
	return values, nil
}
