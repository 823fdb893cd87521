// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package shell

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dmitska/posh/expand"
	"github.com/dmitska/posh/syntax"
)

func readDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// readOnlyEnviron adapts an [expand.Environ] into an [expand.WriteEnviron]
// for callers that only need to read variables, such as Expand and Fields
// below. Assignment-form expansions like "${var:=default}" are rejected
// rather than silently discarded.
type readOnlyEnviron struct {
	expand.Environ
}

func (readOnlyEnviron) Set(name string, vr expand.Variable) error {
	return fmt.Errorf("cannot set variable %q in a read-only environment", name)
}

// rejectCmdSubst reports a "$(foo)" or "`foo`" found while expanding s as an
// error, since Expand and Fields never run arbitrary commands. s is the
// original, unwrapped input, and prefixLen is the length of the text
// [syntax.ParseDocument] or [syntax.ParseWords] prepended to it before
// parsing, used to translate cs's position back to a line:column in s.
func rejectCmdSubst(s string, prefixLen int) func(io.Writer, *syntax.CmdSubst) error {
	return func(_ io.Writer, cs *syntax.CmdSubst) error {
		return fmt.Errorf("unexpected command substitution at %s", position(s, prefixLen, cs.Pos()))
	}
}

// position reports the 1-based line:column within s of the byte at offset
// (p - 1 - prefixLen), the position p would have if s were parsed on its own
// rather than behind a wrapping prefix.
func position(s string, prefixLen int, p syntax.Pos) string {
	off := int(p) - 1 - prefixLen
	line, col := 1, 1
	for i := 0; i < off && i < len(s); i++ {
		if s[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return fmt.Sprintf("%d:%d", line, col)
}

// Expand performs shell expansion on s, using env to resolve variables.
// The expansion will apply to parameter expansions like $var and
// ${#var}, but also to arithmetic expansions like $((var + 3)), and brace
// expressions like foo{1,2,3}.
//
// If env is nil, the current environment variables are used. Empty variables
// are treated as unset; to support variables which are set but empty, build a
// [Session] and use its Expand method directly.
//
// Subshells like $(echo foo) aren't supported to avoid running arbitrary code.
// To support those, use a [Session] backed by an [interp.Runner].
//
// An error will be reported if the input string had invalid syntax.
func Expand(s string, env func(string) string) (string, error) {
	word, err := syntax.ParseDocument([]byte(s), "")
	if err != nil {
		return "", err
	}
	if env == nil {
		env = os.Getenv
	}
	cfg := &expand.Config{
		Env:      readOnlyEnviron{expand.FuncEnviron(env)},
		CmdSubst: rejectCmdSubst(s, len(syntax.DocumentPrefix)),
	}
	str, err := expand.Literal(cfg, word)
	if err != nil {
		return "", err
	}
	return str, nil
}

// Fields performs shell expansion on s, using env to resolve variables, and
// returns the separate fields that result from the expansion. It is similar to
// Expand, but word splitting and filename globbing are performed, and the
// resulting fields are not joined.
//
// If env is nil, the current environment variables are used. Empty variables
// are treated as unset; to support variables which are set but empty, build a
// [Session] and use its Expand method directly.
//
// An error will be reported if the input string had invalid syntax.
func Fields(s string, env func(string) string) ([]string, error) {
	words, err := syntax.ParseWords([]byte(s), "")
	if err != nil {
		return nil, err
	}
	if env == nil {
		env = os.Getenv
	}
	cfg := &expand.Config{
		Env:      readOnlyEnviron{expand.FuncEnviron(env)},
		ReadDir2: readDir,
		CmdSubst: rejectCmdSubst(s, len(syntax.WordsPrefix)),
	}
	return expand.Fields(cfg, words...)
}
