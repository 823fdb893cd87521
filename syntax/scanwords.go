// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "fmt"

// WordsPrefix and DocumentPrefix are the text [ParseWords] and [ParseDocument]
// respectively prepend to src before parsing it. A caller that needs to
// translate a [Pos] from the returned tree back into a line:column relative
// to the original src, such as to report where a disallowed construct
// appeared, can subtract len(WordsPrefix) or len(DocumentPrefix) from the Pos
// and walk the original src from there; both prefixes end in a line
// continuation or a literal newline, so no other rebasing is needed.
const (
	WordsPrefix    = "set -- \\\n"
	DocumentPrefix = "cat <<POSH_DOCUMENT\n"
)

// ParseWords splits src the way the shell parses a command's argument list,
// applying quoting, parameter, and brace syntax but not performing any
// expansion. It's used to turn a bare string such as "$foo bar*.go" into the
// list of [Word] values an expansion function like [expand.Fields] expects.
func ParseWords(src []byte, name string) ([]*Word, error) {
	wrapped := append(append([]byte(WordsPrefix), src...), '\n')
	f, err := Parse(wrapped, name, 0)
	if err != nil {
		return nil, err
	}
	if len(f.Stmts) == 0 {
		return nil, nil
	}
	call, ok := f.Stmts[0].Cmd.(*CallExpr)
	if !ok || len(call.Args) < 2 {
		return nil, fmt.Errorf("%s: could not parse word list", name)
	}
	words := make([]*Word, len(call.Args)-2)
	for i := range words {
		words[i] = &call.Args[i+2]
	}
	return words, nil
}

// ParseDocument parses src as if it were the body of a here document,
// applying parameter, arithmetic, and command substitution but no word
// splitting, quote removal, or globbing.
func ParseDocument(src []byte, name string) (*Word, error) {
	wrapped := append([]byte(DocumentPrefix), src...)
	if len(wrapped) == 0 || wrapped[len(wrapped)-1] != '\n' {
		wrapped = append(wrapped, '\n')
	}
	wrapped = append(wrapped, []byte("POSH_DOCUMENT\n")...)
	f, err := Parse(wrapped, name, 0)
	if err != nil {
		return nil, err
	}
	if len(f.Stmts) == 0 || len(f.Stmts[0].Redirs) == 0 {
		return nil, fmt.Errorf("%s: could not parse document", name)
	}
	return &f.Stmts[0].Redirs[0].Hdoc, nil
}
