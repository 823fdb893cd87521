// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax_test

import (
	"os"
	"strings"

	"github.com/dmitska/posh/syntax"
)

func ExampleWalk() {
	f, err := syntax.Parse([]byte(`echo $foo "and $bar"`), "", 0)
	if err != nil {
		return
	}
	syntax.Walk(f, func(node syntax.Node) bool {
		switch x := node.(type) {
		case *syntax.ParamExp:
			x.Param.Value = strings.ToUpper(x.Param.Value)
		}
		return true
	})
	syntax.Fprint(os.Stdout, f)
	// Output: echo $FOO "and $BAR"
}
