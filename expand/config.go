// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"bytes"
	"io"
	"io/fs"
	"sort"
	"strings"

	"github.com/dmitska/posh/syntax"
)

// Config describes how to perform shell expansions on syntax tree nodes: word
// fields, parameter substitution, pattern matching, command and process
// substitution, and arithmetic. A single Config is reused across all of the
// package-level functions below, which keeps the scratch buffers it carries
// from being reallocated on every call.
type Config struct {
	// Env is used to fetch and set the shell variables referenced during
	// expansion, such as $foo or ${foo:=bar}.
	Env WriteEnviron

	// CmdSubst runs the statement list within a "$(foo)" or a legacy
	// "`foo`" command substitution, writing its standard output to w.
	CmdSubst func(w io.Writer, cs *syntax.CmdSubst) error

	// ProcSubst sets up a "<(foo)" or ">(foo)" process substitution and
	// returns the path that should be substituted in its place, such as
	// a named pipe.
	ProcSubst func(ps *syntax.ProcSubst) (string, error)

	// ReadDir2 lists the entries of a directory for globbing purposes. A
	// nil value disables globbing entirely, as when the shell's noglob
	// option is set.
	ReadDir2 func(string) ([]fs.DirEntry, error)

	// GlobStar makes "**" recurse into subdirectories when globbing.
	GlobStar bool
	// NoCaseGlob makes globbing and pattern matching case-insensitive.
	NoCaseGlob bool
	// NullGlob makes a glob with no matches expand to zero fields,
	// instead of expanding to the unexpanded pattern itself.
	NullGlob bool
	// NoUnset makes expanding an unset variable an error, as with "set -u".
	NoUnset bool

	// Lines holds the offset of the first byte of each line in the
	// source being expanded, in the same form as [syntax.File.Lines].
	// It's used to resolve ${LINENO}; leave it nil when expanding source
	// that was never parsed as a whole file, such as an isolated word,
	// and ${LINENO} resolves to 0.
	Lines []int

	bufferAlloc bytes.Buffer
	fieldAlloc  [4]fieldPart
	fieldsAlloc [4][]fieldPart

	ifs string
	// curParam points at the parameter expansion currently being
	// evaluated, if any; used to resolve ${LINENO}.
	curParam *syntax.ParamExp
}

func (cfg *Config) prepareIFS() {
	vr := cfg.Env.Get("IFS")
	if !vr.IsSet() {
		cfg.ifs = " \t\n"
	} else {
		cfg.ifs = vr.String()
	}
}

func (cfg *Config) ifsRune(r rune) bool {
	for _, r2 := range cfg.ifs {
		if r == r2 {
			return true
		}
	}
	return false
}

func (cfg *Config) ifsJoin(strs []string) string {
	sep := ""
	if cfg.ifs != "" {
		sep = cfg.ifs[:1]
	}
	return strings.Join(strs, sep)
}

func (cfg *Config) strBuilder() *bytes.Buffer {
	b := &cfg.bufferAlloc
	b.Reset()
	return b
}

// lineOf translates a byte offset into a 1-based line number using Lines,
// the same way [syntax.File.Position] does. It returns 0 if Lines is nil.
func (cfg *Config) lineOf(p syntax.Pos) int {
	if cfg.Lines == nil {
		return 0
	}
	off := int(p)
	i := sort.Search(len(cfg.Lines), func(i int) bool { return cfg.Lines[i] > off }) - 1
	if i < 0 {
		return 0
	}
	return i + 1
}

func (cfg *Config) envGet(name string) string {
	return cfg.Env.Get(name).String()
}

func (cfg *Config) envSet(name, value string) error {
	return cfg.Env.Set(name, Variable{Set: true, Kind: String, Str: value})
}

func (cfg *Config) fieldJoin(parts []fieldPart) string {
	switch len(parts) {
	case 0:
		return ""
	case 1: // short-cut without a string copy
		return parts[0].val
	}
	buf := cfg.strBuilder()
	for _, part := range parts {
		buf.WriteString(part.val)
	}
	return buf.String()
}

type fieldPart struct {
	val   string
	quote quoteLevel
}

type quoteLevel uint

const (
	quoteNone quoteLevel = iota
	quoteDouble
	quoteSingle
)

// UnsetParameterError is returned by parameter expansions of the form
// "${var?message}" and "${var:?message}" when var is unset or empty.
type UnsetParameterError struct {
	Expr    *syntax.ParamExp
	Message string
}

func (u UnsetParameterError) Error() string {
	return u.Message
}
