// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitska/posh/expand"
	"github.com/dmitska/posh/syntax"
)

// lookupVar resolves a variable by name, handling the special dynamic
// variables ($#, $@, $?, positional parameters, and so on) before falling
// through to the writable environment.
func (r *Runner) lookupVar(name string) expand.Variable {
	if name == "" {
		return expand.Variable{}
	}
	switch name {
	case "#":
		return strVar(strconv.Itoa(len(r.Params)))
	case "@", "*":
		return expand.Variable{Set: true, Kind: expand.Indexed, List: r.Params}
	case "?":
		return strVar(strconv.Itoa(int(r.lastExit.code)))
	case "$":
		return strVar(strconv.Itoa(os.Getpid()))
	case "PPID":
		return strVar(strconv.Itoa(os.Getppid()))
	case "!":
		if len(r.bgProcs) == 0 {
			return strVar("")
		}
		return strVar("g" + strconv.Itoa(len(r.bgProcs)))
	case "0":
		if r.filename != "" {
			return strVar(r.filename)
		}
		return strVar("posh")
	case "RANDOM":
		return strVar(strconv.Itoa(rand.IntN(1 << 15)))
	case "SECONDS":
		return strVar(strconv.FormatFloat(time.Since(r.start).Seconds(), 'f', -1, 64))
	case "-":
		return strVar(r.optFlags())
	case "DIRSTACK":
		rev := make([]string, len(r.dirStack))
		for i, d := range r.dirStack {
			rev[len(rev)-1-i] = d
		}
		return expand.Variable{Set: true, Kind: expand.Indexed, List: rev}
	}
	if len(name) == 1 && name[0] >= '1' && name[0] <= '9' {
		i := int(name[0] - '1')
		if i < len(r.Params) {
			return strVar(r.Params[i])
		}
		return expand.Variable{}
	}
	vr := r.writeEnv.Get(name)
	if !vr.IsSet() && runtimeIsWindows {
		if upper := strings.ToUpper(name); upper != name {
			vr = r.writeEnv.Get(upper)
		}
	}
	return vr
}

// strVar builds a simple, set string variable — the shape used for all of
// the special read-only dynamic variables above.
func strVar(s string) expand.Variable {
	return expand.Variable{Set: true, Kind: expand.String, Str: s}
}

// optFlags renders the set of currently active shell options as the
// single-character flag string reported by "$-".
func (r *Runner) optFlags() string {
	var sb strings.Builder
	for i, opt := range &shellOptsTable {
		if opt.flag != 0 && r.opts[i] {
			sb.WriteByte(opt.flag)
		}
	}
	return sb.String()
}

// envGet is a convenience wrapper for builtins that only care about a
// variable's string value, such as "cd" reading $PWD or $HOME.
func (r *Runner) envGet(name string) string {
	return r.lookupVar(name).String()
}

// delVar unsets a variable from the current writable scope.
func (r *Runner) delVar(name string) {
	if vr := r.lookupVar(name); vr.ReadOnly {
		r.errf("%s: readonly variable\n", name)
		r.exit.code = 1
		return
	}
	r.setVar(name, expand.Variable{})
}

// setVarString sets name to a plain string value in the current scope.
func (r *Runner) setVarString(name, value string) {
	r.setVar(name, expand.Variable{Set: true, Kind: expand.String, Str: value})
}

// setVar writes vr for name into the current writable scope. Errors, such as
// attempts to overwrite a read-only variable, are reported to stderr and
// reflected in the exit status, matching how other builtins report failures.
func (r *Runner) setVar(name string, vr expand.Variable) {
	if r.opts[optAllExport] && vr.Kind == expand.String {
		vr.Exported = true
	}
	if err := r.writeEnv.Set(name, vr); err != nil {
		r.errf("%v\n", err)
		r.exit.code = 1
	}
}

// setVarGlobal writes vr into the outermost (non-function) scope, as used by
// "declare -g".
func (r *Runner) setVarGlobal(name string, vr expand.Variable) {
	env := expand.WriteEnviron(r.writeEnv)
	if ov, ok := env.(*overlayEnviron); ok {
		env = ov.global()
	}
	if err := env.Set(name, vr); err != nil {
		r.errf("%v\n", err)
		r.exit.code = 1
	}
}

// setFunc declares or redefines a shell function.
func (r *Runner) setFunc(name string, body *syntax.Stmt) {
	if r.Funcs == nil {
		r.Funcs = make(map[string]*syntax.Stmt)
	}
	r.Funcs[name] = body
}

// assignVal computes the new value of a variable given an assignment,
// without touching attributes that the assignment doesn't mention. prev is
// the variable's current value, used both as the base for "+=" appends and
// to pick the array kind requested by a "declare"/"local" valType.
func (r *Runner) assignVal(prev expand.Variable, as *syntax.Assign, valType string) expand.Variable {
	if ae := as.Array(); ae != nil {
		return r.assignArray(prev, ae, valType)
	}

	s := r.literal(&as.Value)
	if as.Append {
		switch prev.Kind {
		case expand.Indexed:
			list := append(cloneStrings(prev.List), s)
			return expand.Variable{Set: true, Kind: expand.Indexed, List: list}
		case expand.Associative:
			return prev
		default:
			s = prev.String() + s
		}
	}

	switch valType {
	case "-a":
		return expand.Variable{Set: true, Kind: expand.Indexed, List: []string{s}}
	case "-A":
		return expand.Variable{Set: true, Kind: expand.Associative, Map: map[string]string{"0": s}}
	case "-n":
		return expand.Variable{Set: true, Kind: expand.NameRef, Str: s}
	}
	s = prev.FoldCase(s)
	return expand.Variable{
		Set: true, Kind: expand.String, Str: s,
		CaseUpper: prev.CaseUpper, CaseLower: prev.CaseLower, CaseCapitalize: prev.CaseCapitalize,
	}
}

// assignArray computes the value of an array literal assignment like
// "a=(one two three)". The parser only allows a flat list of words in an
// array literal; associative arrays are populated by sequential index when
// declared with "declare -A", matching how a plain list is turned into a map
// with string-numeric keys.
func (r *Runner) assignArray(prev expand.Variable, ae *syntax.ArrayExpr, valType string) expand.Variable {
	words := make([]*syntax.Word, len(ae.List))
	for i := range ae.List {
		words[i] = &ae.List[i]
	}
	strs := r.fields(words...)

	if valType == "-A" || prev.Kind == expand.Associative {
		m := map[string]string{}
		if prev.Kind == expand.Associative {
			for k, v := range prev.Map {
				m[k] = v
			}
		}
		for i, s := range strs {
			m[strconv.Itoa(i)] = s
		}
		return expand.Variable{Set: true, Kind: expand.Associative, Map: m}
	}

	if prev.Kind == expand.Indexed {
		strs = append(cloneStrings(prev.List), strs...)
	}
	return expand.Variable{Set: true, Kind: expand.Indexed, List: strs}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// namesByPrefix returns the names of every declared variable starting with
// prefix.
func (r *Runner) namesByPrefix(prefix string) []string {
	var names []string
	r.writeEnv.Each(func(name string, vr expand.Variable) bool {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return true
	})
	return names
}

const runtimeIsWindows = false
