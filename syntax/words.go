// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

// Lit returns the value of a word if it is composed of nothing but literal
// parts, such as "foo" or "foo_bar123". It returns the empty string for any
// word that contains quoting, substitutions, or other non-literal parts.
func (w *Word) Lit() string {
	var sb strings.Builder
	for _, part := range w.Parts {
		lit, ok := part.(*Lit)
		if !ok {
			return ""
		}
		sb.WriteString(lit.Value)
	}
	return sb.String()
}

// ValidName reports whether s is a valid variable or function name: a
// non-empty sequence of letters, digits, and underscores that does not begin
// with a digit.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
