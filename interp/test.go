// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"golang.org/x/term"

	"github.com/dmitska/posh/expand"
	"github.com/dmitska/posh/syntax"
)

// bashTest evaluates a test expression, as used by both "[[ ]]" and by the
// "test"/"[" builtin. posixMode is true for the builtin form, where "="
// and "!=" compare strings literally; "[[ ]]" instead matches the right
// operand as a glob pattern. Non-empty string is true, empty string is false.
func (r *Runner) bashTest(ctx context.Context, expr syntax.TestExpr, posixMode bool) string {
	switch x := expr.(type) {
	case *syntax.Word:
		return r.literal(x)
	case *syntax.ParenTest:
		return r.bashTest(ctx, x.X, posixMode)
	case *syntax.BinaryTest:
		if r.binTest(x.Op, r.bashTest(ctx, x.X, posixMode), r.bashTest(ctx, x.Y, posixMode), posixMode) {
			return "1"
		}
		return ""
	case *syntax.UnaryTest:
		if r.unTest(x.Op, r.bashTest(ctx, x.X, posixMode)) {
			return "1"
		}
		return ""
	}
	return ""
}

func (r *Runner) binTest(op syntax.BinTestOperator, x, y string, posixMode bool) bool {
	switch op {
	case syntax.TsReMatch:
		rx, err := regexp.Compile(y)
		if err != nil {
			return false
		}
		return rx.MatchString(x)
	case syntax.TsNewer:
		i1, i2 := stat(x), stat(y)
		if i1 == nil || i2 == nil {
			return false
		}
		return i1.ModTime().After(i2.ModTime())
	case syntax.TsOlder:
		i1, i2 := stat(x), stat(y)
		if i1 == nil || i2 == nil {
			return false
		}
		return i1.ModTime().Before(i2.ModTime())
	case syntax.TsDevIno:
		i1, i2 := stat(x), stat(y)
		return i1 != nil && i2 != nil && os.SameFile(i1, i2)
	case syntax.TsEql:
		return atoi(x) == atoi(y)
	case syntax.TsNeq:
		return atoi(x) != atoi(y)
	case syntax.TsLeq:
		return atoi(x) <= atoi(y)
	case syntax.TsGeq:
		return atoi(x) >= atoi(y)
	case syntax.TsLss:
		return atoi(x) < atoi(y)
	case syntax.TsGtr:
		return atoi(x) > atoi(y)
	case syntax.AndTest:
		return x != "" && y != ""
	case syntax.OrTest:
		return x != "" || y != ""
	case syntax.TsEqual:
		if posixMode {
			return x == y
		}
		return match(y, x)
	case syntax.TsNequal:
		if posixMode {
			return x != y
		}
		return !match(y, x)
	case syntax.TsBefore:
		return x < y
	case syntax.TsAfter:
		return x > y
	default:
		panic(fmt.Sprintf("unhandled binary test op: %v", op))
	}
}

func stat(name string) os.FileInfo {
	info, _ := os.Stat(name)
	return info
}

func statMode(name string, mode os.FileMode) bool {
	info := stat(name)
	return info != nil && info.Mode()&mode != 0
}

func (r *Runner) unTest(op syntax.UnTestOperator, x string) bool {
	switch op {
	case syntax.TsExists:
		return stat(x) != nil
	case syntax.TsRegFile:
		info := stat(x)
		return info != nil && info.Mode().IsRegular()
	case syntax.TsDirect:
		return statMode(x, os.ModeDir)
	case syntax.TsCharSp:
		return statMode(x, os.ModeCharDevice)
	case syntax.TsBlckSp:
		info := stat(x)
		return info != nil && info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0
	case syntax.TsNmPipe:
		return statMode(x, os.ModeNamedPipe)
	case syntax.TsSocket:
		return statMode(x, os.ModeSocket)
	case syntax.TsSmbLink:
		info, err := os.Lstat(x)
		return err == nil && info.Mode()&os.ModeSymlink != 0
	case syntax.TsGIDSet:
		return statMode(x, os.ModeSetgid)
	case syntax.TsUIDSet:
		return statMode(x, os.ModeSetuid)
	case syntax.TsRead:
		return statMode(x, 0o444)
	case syntax.TsWrite:
		return statMode(x, 0o222)
	case syntax.TsExec:
		return statMode(x, 0o111)
	case syntax.TsNoEmpty:
		info := stat(x)
		return info != nil && info.Size() > 0
	case syntax.TsFdTerm:
		var f any
		switch atoi(x) {
		case 0:
			f = r.stdin
		case 1:
			f = r.stdout
		case 2:
			f = r.stderr
		}
		if f, ok := f.(interface{ Fd() uintptr }); ok {
			return term.IsTerminal(int(f.Fd()))
		}
		return false
	case syntax.TsEmpStr:
		return x == ""
	case syntax.TsNempStr:
		return x != ""
	case syntax.TsOptSet:
		_, opt := r.optByName(x, false)
		return opt != nil && *opt
	case syntax.TsVarSet:
		return r.lookupVar(x).IsSet()
	case syntax.TsRefVar:
		return r.lookupVar(x).Kind == expand.NameRef
	case syntax.TsNot:
		return x == ""
	default:
		panic(fmt.Sprintf("unhandled unary test op: %v", op))
	}
}

