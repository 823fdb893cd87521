// Copyright (c) 2021, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// LangVariant describes a shell language dialect.
type LangVariant uint8

const (
	LangBash LangVariant = iota
	LangPOSIX
	LangMirBSDKorn
	LangAuto
)

const (
	quoteErrNull  = "quoting is impossible as the string contains a null byte"
	quoteErrPOSIX = "quoting is impossible in POSIX shell as the string contains a control character or invalid UTF-8"
	quoteErrMksh  = "quoting is impossible in mksh as the string contains a rune not supported by its $'' syntax"
)

// QuoteError is returned by Quote when a string cannot be quoted for the
// requested language.
type QuoteError struct {
	ByteOffset int
	Message    string
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("cannot quote character at byte %d: %s", e.ByteOffset, e.Message)
}

// Quote returns a quoted form of s that, when parsed in the given language,
// yields exactly s. If no quoting is possible, it returns a *QuoteError.
func Quote(s string, lang LangVariant) (string, error) {
	if s == "" {
		return "''", nil
	}
	if i := strings.IndexByte(s, 0); i >= 0 {
		return "", &QuoteError{i, quoteErrNull}
	}

	if !needsQuoting(s) {
		return s, nil
	}
	if canSingleQuote(s) {
		return "'" + s + "'", nil
	}

	switch lang {
	case LangPOSIX:
		if i := firstUnquotablePOSIX(s); i >= 0 {
			return "", &QuoteError{i, quoteErrPOSIX}
		}
		return posixQuote(s), nil
	case LangMirBSDKorn:
		return mkshQuote(s)
	default: // LangBash, LangAuto
		return ansiCQuote(s), nil
	}
}

// needsQuoting reports whether s contains any byte that a shell word
// cannot contain unquoted.
func needsQuoting(s string) bool {
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			return true
		case r <= 0x1f || r == 0x7f:
			return true
		case strings.ContainsRune(" \t\n|&;()<>!{}[]$`\"'\\*?#~=%^", r):
			return true
		}
	}
	return false
}

// canSingleQuote reports whether s can be wrapped in plain single quotes,
// i.e. it has no control characters and no single quote of its own.
func canSingleQuote(s string) bool {
	for _, r := range s {
		if r == '\'' || r == utf8.RuneError {
			return false
		}
		if r <= 0x1f || r == 0x7f {
			return false
		}
	}
	return true
}

func firstUnquotablePOSIX(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			return i
		}
		if r == '\n' || (r <= 0x1f && r != '\t') || r == 0x7f {
			return i
		}
	}
	return -1
}

func posixQuote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			b.WriteString(`'\''`)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

var ansiCEscapes = map[rune]string{
	'\a': `\a`, '\b': `\b`, '\f': `\f`, '\n': `\n`,
	'\r': `\r`, '\t': `\t`, '\v': `\v`, '\\': `\\`, '\'': `\'`,
}

func ansiCQuote(s string) string {
	var b strings.Builder
	b.WriteString("$'")
	for _, r := range s {
		if esc, ok := ansiCEscapes[r]; ok {
			b.WriteString(esc)
			continue
		}
		if r == utf8.RuneError || r < 0x20 || r == 0x7f {
			fmt.Fprintf(&b, `\x%02x`, r)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteString("'")
	return b.String()
}

// mkshQuote approximates mksh's $'' syntax, which unlike bash's can only
// escape a single rune per $'' segment when that rune isn't itself
// representable literally.
func mkshQuote(s string) (string, error) {
	var b strings.Builder
	inPlain := false
	closePlain := func() {
		if inPlain {
			b.WriteByte('\'')
			inPlain = false
		}
	}
	i := 0
	for _, r := range s {
		if esc, ok := ansiCEscapes[r]; ok {
			closePlain()
			b.WriteString("$'")
			b.WriteString(esc)
			b.WriteString("'")
			i += utf8.RuneLen(r)
			continue
		}
		if r == utf8.RuneError || r < 0x20 || r == 0x7f {
			if r > 0xffff {
				return "", &QuoteError{i, quoteErrMksh}
			}
			closePlain()
			fmt.Fprintf(&b, "$'\\x%02x'", r)
			i += utf8.RuneLen(r)
			continue
		}
		if !inPlain {
			b.WriteByte('\'')
			inPlain = true
		}
		if r == '\'' {
			b.WriteString(`'\''`)
		} else {
			b.WriteRune(r)
		}
		i += utf8.RuneLen(r)
	}
	closePlain()
	return b.String(), nil
}
