// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitska/posh/pattern"
	"github.com/dmitska/posh/syntax"
)

// regexpCompile compiles a translated pattern expression, returning nil if
// it somehow fails to compile rather than panicking mid-expansion.
func regexpCompile(expr string) *regexp.Regexp {
	rx, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return rx
}

// indexLit returns the literal value of a word used as a parameter index,
// such as the "@" in "${foo[@]}", or "" if the word isn't a bare literal.
func indexLit(idx *syntax.Index) string {
	if idx == nil {
		return ""
	}
	word := idx.Word
	if len(word.Parts) != 1 {
		return ""
	}
	lit, ok := word.Parts[0].(*syntax.Lit)
	if !ok {
		return ""
	}
	return lit.Value
}

func (cfg *Config) paramExp(pe *syntax.ParamExp) (string, error) {
	oldParam := cfg.curParam
	cfg.curParam = pe
	defer func() { cfg.curParam = oldParam }()

	name := pe.Param.Value
	if pe.Excl && pe.Names != syntax.NamesNone {
		return cfg.namesWithPrefix(name, pe.Names), nil
	}
	var vr Variable
	if name == "LINENO" {
		// This is the only parameter expansion that the environment
		// interface cannot satisfy.
		line := uint64(cfg.lineOf(pe.Pos()))
		vr = Variable{Set: true, Kind: String, Str: strconv.FormatUint(line, 10)}
	} else {
		vr = cfg.Env.Get(name)
	}
	if pe.Excl {
		// "${!name}" indirection: look up the variable whose name is held
		// by the value of name, and expand that instead.
		name = vr.String()
		vr = cfg.Env.Get(name)
	}
	if cfg.NoUnset && !vr.IsSet() && pe.Exp == nil {
		return "", UnsetParameterError{Expr: pe, Message: name + ": unbound variable"}
	}
	set := vr.IsSet()

	ind := pe.Ind
	if name == "@" || name == "*" {
		ind = &syntax.Index{Word: syntax.Word{Parts: []syntax.WordPart{
			&syntax.Lit{Value: name},
		}}}
	}

	str, err := cfg.varStr(vr, 0)
	if err != nil {
		return "", err
	}
	if ind != nil {
		str, err = cfg.varInd(vr, ind, 0)
		if err != nil {
			return "", err
		}
	}

	slicePos := func(word *syntax.Word) (int, error) {
		p, err := Arithm(cfg, word)
		if err != nil {
			return 0, err
		}
		if p < 0 {
			p = len(str) + p
			if p < 0 {
				p = 0
			}
		} else if p > len(str) {
			p = len(str)
		}
		return p, nil
	}

	elems := []string{str}
	if indexLit(ind) == "@" || indexLit(ind) == "*" {
		switch vr.Kind {
		case Indexed:
			elems = vr.List
		case Associative:
			elems = sortedMapValues(vr.Map)
		default:
			if !set {
				elems = nil
			}
		}
	}

	switch {
	case pe.Length:
		n := len(elems)
		if indexLit(ind) != "@" && indexLit(ind) != "*" {
			n = utf8.RuneCountInString(str)
		}
		str = strconv.Itoa(n)
	case pe.Slice != nil:
		offset, err := slicePos(&pe.Slice.Offset)
		if err != nil {
			return "", err
		}
		str = str[offset:]
		if len(pe.Slice.Length.Parts) > 0 {
			length, err := slicePos(&pe.Slice.Length)
			if err != nil {
				return "", err
			}
			if length > len(str) {
				length = len(str)
			}
			str = str[:length]
		}
	case pe.Repl != nil:
		orig, err := Pattern(cfg, &pe.Repl.Orig)
		if err != nil {
			return "", err
		}
		with, err := Literal(cfg, &pe.Repl.With)
		if err != nil {
			return "", err
		}
		n := 1
		if pe.Repl.All {
			n = -1
		}
		locs := findAllIndex(patternMode(cfg), orig, str, n)
		buf := cfg.strBuilder()
		last := 0
		for _, loc := range locs {
			buf.WriteString(str[last:loc[0]])
			buf.WriteString(with)
			last = loc[1]
		}
		buf.WriteString(str[last:])
		str = buf.String()
	case pe.Exp != nil && pe.Exp.Transform != 0:
		str, err = cfg.paramTransform(name, vr, elems, pe.Exp.Transform)
		if err != nil {
			return "", err
		}
	case pe.Exp != nil:
		arg, err := Literal(cfg, &pe.Exp.Word)
		if err != nil {
			return "", err
		}
		switch op := pe.Exp.Op; op {
		case syntax.SubstColAdd:
			if str == "" {
				break
			}
			fallthrough
		case syntax.SubstAdd:
			if set {
				str = arg
			}
		case syntax.SubstSub:
			if set {
				break
			}
			fallthrough
		case syntax.SubstColSub:
			if str == "" {
				str = arg
			}
		case syntax.SubstQuest:
			if set {
				break
			}
			fallthrough
		case syntax.SubstColQuest:
			if str == "" {
				return "", UnsetParameterError{Expr: pe, Message: arg}
			}
		case syntax.SubstAssgn:
			if set {
				break
			}
			fallthrough
		case syntax.SubstColAssgn:
			if str == "" {
				if err := cfg.envSet(name, arg); err != nil {
					return "", err
				}
				str = arg
			}
		case syntax.RemSmallPrefix, syntax.RemLargePrefix,
			syntax.RemSmallSuffix, syntax.RemLargeSuffix:
			suffix := op == syntax.RemSmallSuffix || op == syntax.RemLargeSuffix
			large := op == syntax.RemLargePrefix || op == syntax.RemLargeSuffix
			for i, elem := range elems {
				elems[i] = removePattern(patternMode(cfg), elem, arg, suffix, large)
			}
			str = strings.Join(elems, " ")
		case syntax.UpperFirst, syntax.UpperAll,
			syntax.LowerFirst, syntax.LowerAll:

			caseFunc := unicode.ToLower
			if op == syntax.UpperFirst || op == syntax.UpperAll {
				caseFunc = unicode.ToUpper
			}
			all := op == syntax.UpperAll || op == syntax.LowerAll

			// empty string means match anything
			mode := patternMode(cfg)
			rx, err := pattern.Compile(arg, mode)
			if err != nil {
				return str, nil
			}

			for i, elem := range elems {
				rs := []rune(elem)
				for ri, r := range rs {
					if rx.MatchString(string(r)) {
						rs[ri] = caseFunc(r)
						if !all {
							break
						}
					}
				}
				elems[i] = string(rs)
			}
			str = strings.Join(elems, " ")
		}
	}
	return str, nil
}

// namesWithPrefix implements "${!prefix*}" and "${!prefix@}": every
// currently-set variable name starting with prefix, sorted for
// determinism, joined the same way the corresponding "$*"/"$@" form joins
// its elements.
func (cfg *Config) namesWithPrefix(prefix string, op syntax.ParNamesOperator) string {
	names := matchingNames(cfg.Env, prefix)
	if op == syntax.NamesPrefix {
		return cfg.ifsJoin(names)
	}
	return strings.Join(names, " ")
}

// matchingNames lists the set variables in env whose name starts with
// prefix, sorted for determinism.
func matchingNames(env Environ, prefix string) []string {
	var names []string
	env.Each(func(name string, vr Variable) bool {
		if vr.IsSet() && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

// paramTransform implements the "${param@op}" transforms: Q shell-quotes
// the value, E interprets its backslash escapes as $'...' would, P expands
// it as a prompt string, A prints a declare statement that recreates the
// variable, and a prints its attribute flags.
func (cfg *Config) paramTransform(name string, vr Variable, elems []string, op byte) (string, error) {
	switch op {
	case 'Q':
		parts := make([]string, len(elems))
		for i, e := range elems {
			q, err := syntax.Quote(e, syntax.LangBash)
			if err != nil {
				q = "'" + e + "'"
			}
			parts[i] = q
		}
		return strings.Join(parts, " "), nil
	case 'E':
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = ansiCUnescape(e)
		}
		return strings.Join(parts, " "), nil
	case 'P':
		return cfg.expandPrompt(vr.String()), nil
	case 'A':
		return declareStmt(name, vr), nil
	case 'a':
		return attrFlags(vr), nil
	}
	return vr.String(), nil
}

// ansiCUnescape interprets backslash escape sequences the same way a
// "$'...'" literal does, used by "${param@E}".
func ansiCUnescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// expandPrompt interprets a handful of bash's PS1-style backslash prompt
// escapes, used by "${param@P}".
func (cfg *Config) expandPrompt(s string) string {
	s = ansiCUnescape(s)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'u':
			b.WriteString(cfg.envGet("USER"))
		case 'h', 'H':
			host, err := os.Hostname()
			if err != nil {
				break
			}
			if s[i] == 'h' {
				if dot := strings.IndexByte(host, '.'); dot >= 0 {
					host = host[:dot]
				}
			}
			b.WriteString(host)
		case 'w', 'W':
			dir := cfg.envGet("PWD")
			if s[i] == 'W' {
				dir = filepath.Base(dir)
			}
			b.WriteString(dir)
		case '$':
			if cfg.envGet("UID") == "0" {
				b.WriteByte('#')
			} else {
				b.WriteByte('$')
			}
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// declareStmt renders a "declare"-style statement that would recreate vr
// under name, used by "${param@A}".
func declareStmt(name string, vr Variable) string {
	quote := func(s string) string {
		q, err := syntax.Quote(s, syntax.LangBash)
		if err != nil {
			return "'" + s + "'"
		}
		return q
	}
	switch vr.Kind {
	case Indexed:
		parts := make([]string, len(vr.List))
		for i, v := range vr.List {
			parts[i] = fmt.Sprintf("[%d]=%s", i, quote(v))
		}
		return fmt.Sprintf("declare -a %s=(%s)", name, strings.Join(parts, " "))
	case Associative:
		keys := make([]string, 0, len(vr.Map))
		for k := range vr.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("[%s]=%s", quote(k), quote(vr.Map[k]))
		}
		return fmt.Sprintf("declare -A %s=(%s)", name, strings.Join(parts, " "))
	default:
		return fmt.Sprintf("declare -- %s=%s", name, quote(vr.String()))
	}
}

// attrFlags renders vr's attribute letters as bash's "declare -p" does:
// "a"/"A" for array kind, plus "r" and "x" for read-only and exported.
func attrFlags(vr Variable) string {
	var b strings.Builder
	switch vr.Kind {
	case Indexed:
		b.WriteByte('a')
	case Associative:
		b.WriteByte('A')
	case NameRef:
		b.WriteByte('n')
	}
	if vr.ReadOnly {
		b.WriteByte('r')
	}
	if vr.Exported {
		b.WriteByte('x')
	}
	return b.String()
}

func sortedMapValues(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]string, len(keys))
	for i, k := range keys {
		vals[i] = m[k]
	}
	return vals
}

func removePattern(mode pattern.Mode, str, pat string, fromEnd, greedy bool) string {
	if !greedy {
		mode |= pattern.Shortest
	}
	expr, err := pattern.Regexp(pat, mode)
	if err != nil {
		return str
	}
	switch {
	case fromEnd && !greedy:
		// use .* to get the right-most (shortest) match
		expr = ".*(" + expr + ")$"
	case fromEnd:
		// simple suffix
		expr = "(" + expr + ")$"
	default:
		// simple prefix
		expr = "^(" + expr + ")"
	}
	rx := regexpCompile(expr)
	if rx == nil {
		return str
	}
	if loc := rx.FindStringSubmatchIndex(str); loc != nil {
		// remove the original pattern (the submatch)
		str = str[:loc[2]] + str[loc[3]:]
	}
	return str
}

// varStr renders a variable's string value, following any nameref chain.
func (cfg *Config) varStr(vr Variable, depth int) (string, error) {
	if depth > maxNameRefDepth {
		return "", nil
	}
	if vr.Kind == NameRef {
		return cfg.varStr(cfg.Env.Get(vr.Str), depth+1)
	}
	return vr.String(), nil
}

// varInd renders a variable's value at the given index, following any
// nameref chain, and handling the "@"/"*" all-elements forms for indexed and
// associative arrays.
func (cfg *Config) varInd(vr Variable, idx *syntax.Index, depth int) (string, error) {
	if depth > maxNameRefDepth {
		return "", nil
	}
	switch vr.Kind {
	case NameRef:
		return cfg.varInd(cfg.Env.Get(vr.Str), idx, depth+1)
	case Indexed:
		switch indexLit(idx) {
		case "@":
			return strings.Join(vr.List, " "), nil
		case "*":
			return cfg.ifsJoin(vr.List), nil
		}
		i, err := Arithm(cfg, &idx.Word)
		if err != nil {
			return "", err
		}
		if i < 0 || i >= len(vr.List) {
			return "", nil
		}
		return vr.List[i], nil
	case Associative:
		switch indexLit(idx) {
		case "@":
			return strings.Join(sortedMapValues(vr.Map), " "), nil
		case "*":
			return cfg.ifsJoin(sortedMapValues(vr.Map)), nil
		}
		key, err := Literal(cfg, &idx.Word)
		if err != nil {
			return "", err
		}
		return vr.Map[key], nil
	default:
		n, err := Arithm(cfg, &idx.Word)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return vr.String(), nil
		}
		return "", nil
	}
}
