// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/diff"
	"github.com/rogpeppe/go-internal/testscript"

	"github.com/dmitska/posh/interp"
)

// TestMain lets testscript re-exec this test binary as the "posh" command,
// the same way the teacher's cmd/shfmt does for its own golden script tests.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"posh": poshMain,
	}))
}

// TestScripts runs every testdata/script/*.txtar file as a transcript of
// shell invocations and their expected stdout/stderr/exit status.
func TestScripts(t *testing.T) {
	t.Parallel()
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			bindir := filepath.Join(env.WorkDir, ".bin")
			if err := os.Mkdir(bindir, 0o777); err != nil {
				return err
			}
			binfile := filepath.Join(bindir, "posh")
			if runtime.GOOS == "windows" {
				binfile += ".exe"
			}
			if err := os.Symlink(os.Args[0], binfile); err != nil {
				return err
			}
			env.Vars = append(env.Vars, fmt.Sprintf("PATH=%s%c%s", bindir, filepath.ListSeparator, os.Getenv("PATH")))
			env.Vars = append(env.Vars, "TESTSCRIPT_COMMAND=posh")
			return nil
		},
	})
}

// TestRunGolden exercises [run] directly against a handful of one-liners,
// comparing actual stdout against the golden string with go-cmp and
// rendering a readable diff via pkg/diff on mismatch, rather than dumping
// both strings raw the way %q would.
func TestRunGolden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"echo hello", "hello\n"},
		{"printf '%d\\n' 3", "3\n"},
		{"for i in 1 2 3; do echo $i; done", "1\n2\n3\n"},
		{"readonly FOO=bar; echo ${FOO@a}", "r\n"},
		{"x='a b'; echo ${x@Q}", "'a b'\n"},
	}

	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			var out bytes.Buffer
			r, err := interp.New(interp.StdIO(nil, &out, &out))
			if err != nil {
				t.Fatal(err)
			}
			if err := run(context.Background(), r, strings.NewReader(tc.src), ""); err != nil {
				t.Fatal(err)
			}
			got := out.String()
			if !cmp.Equal(got, tc.want) {
				var buf bytes.Buffer
				if err := diff.Text("want", "got", tc.want, got, &buf); err != nil {
					t.Fatal(err)
				}
				t.Errorf("run(%q) mismatch:\n%s", tc.src, buf.String())
			}
		})
	}
}
