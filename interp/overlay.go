// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"

	"github.com/dmitska/posh/expand"
)

// overlayEnviron implements [expand.WriteEnviron], overlaying a set of local
// modifications on top of a parent environment. Reads fall through to the
// parent when a name hasn't been touched locally; writes always land in the
// local layer, leaving the parent untouched.
//
// This lets a [Runner] give subshells and function calls their own writable
// scope without copying the entire parent environment up front.
type overlayEnviron struct {
	parent expand.WriteEnviron
	values map[string]expand.Variable

	// funcScope marks an overlay created for a function call's local scope,
	// as opposed to one created for a subshell. "declare -g" uses this to
	// know it must climb past the overlay to reach the enclosing scope.
	funcScope bool
}

// newOverlayEnviron creates an overlay atop parent. background is not
// stored; background and synchronous subshells get the same kind of overlay.
func newOverlayEnviron(parent expand.WriteEnviron, background bool) *overlayEnviron {
	return &overlayEnviron{parent: parent}
}

func (o *overlayEnviron) Get(name string) expand.Variable {
	if vr, ok := o.values[name]; ok {
		return vr
	}
	return o.parent.Get(name)
}

func (o *overlayEnviron) Set(name string, vr expand.Variable) error {
	prev := o.Get(name)
	if prev.ReadOnly {
		return fmt.Errorf("%s: readonly variable", name)
	}
	if vr.Kind == expand.KeepValue {
		vr.Kind = prev.Kind
		vr.Str = prev.Str
		vr.List = prev.List
		vr.Map = prev.Map
		vr.Set = prev.Set
	}
	if o.values == nil {
		o.values = make(map[string]expand.Variable)
	}
	o.values[name] = vr
	return nil
}

func (o *overlayEnviron) Each(fn func(name string, vr expand.Variable) bool) {
	done := make(map[string]bool, len(o.values))
	for name, vr := range o.values {
		done[name] = true
		if !fn(name, vr) {
			return
		}
	}
	o.parent.Each(func(name string, vr expand.Variable) bool {
		if done[name] {
			return true
		}
		return fn(name, vr)
	})
}

// global climbs past any function-scope overlays to the environment a
// "declare -g" assignment should land in.
func (o *overlayEnviron) global() expand.WriteEnviron {
	env := expand.WriteEnviron(o)
	for {
		ov, ok := env.(*overlayEnviron)
		if !ok || !ov.funcScope {
			return env
		}
		env = ov.parent
	}
}
