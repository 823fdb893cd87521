// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// posh is a POSIX/bash-compatible shell built on top of the syntax, expand,
// and interp packages.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dmitska/posh/interp"
	"github.com/dmitska/posh/syntax"
)

var (
	command     = pflag.StringP("command", "c", "", "read commands from the given string")
	interactive = pflag.BoolP("interactive", "i", false, "run as an interactive shell")
	stdinFlag   = pflag.BoolP("stdin", "s", false, "read commands from standard input")
	posix       = pflag.Bool("posix", false, "match POSIX behavior where it differs from bash")
)

func main() {
	os.Exit(poshMain())
}

// poshMain runs the CLI and returns the process exit code, rather than
// calling [os.Exit] itself, so that tests can invoke it in-process (see
// main_test.go's use of [testscript.RunMain]).
func poshMain() int {
	pflag.Parse()
	err := runAll()
	var es interp.ExitStatus
	if errors.As(err, &es) {
		return int(es)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func parseMode() syntax.ParseMode {
	if *posix {
		return syntax.PosixConformant
	}
	return 0
}

func runAll() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := interp.New(
		interp.Interactive(*interactive),
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
	)
	if err != nil {
		return err
	}

	switch {
	case *command != "":
		return run(ctx, r, strings.NewReader(*command), "")
	case *stdinFlag || pflag.NArg() == 0:
		if *interactive {
			return runInteractive(ctx, r, os.Stdin, os.Stdout)
		}
		return run(ctx, r, os.Stdin, "")
	default:
		for _, path := range pflag.Args() {
			if err := runPath(ctx, r, path); err != nil {
				return err
			}
		}
		return nil
	}
}

func run(ctx context.Context, r *interp.Runner, reader io.Reader, name string) error {
	src, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	prog, err := syntax.Parse(src, name, parseMode())
	if err != nil {
		return err
	}
	r.Reset()
	return r.Run(ctx, prog)
}

func runPath(ctx context.Context, r *interp.Runner, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return run(ctx, r, f, path)
}

// runInteractive reads whole lines from stdin, echoing a prompt between
// them, and runs each one as a complete statement list as soon as it parses.
// Line continuation across an unterminated quote or keyword, history, and
// editing are all interactive line-editing concerns the parser and executor
// don't take on; a host embedding a real line editor should drive
// [interp.Runner.Run] directly instead of this loop.
func runInteractive(ctx context.Context, r *interp.Runner, stdin io.Reader, stdout io.Writer) error {
	scanner := bufio.NewScanner(stdin)
	fmt.Fprint(stdout, "$ ")
	for scanner.Scan() {
		line := scanner.Text()
		prog, err := syntax.Parse([]byte(line+"\n"), "", parseMode())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprint(stdout, "$ ")
			continue
		}
		if err := r.Run(ctx, prog); err != nil && !errors.As(err, new(interp.ExitStatus)) {
			fmt.Fprintln(os.Stderr, err)
		}
		if r.Exited() {
			return nil
		}
		fmt.Fprint(stdout, "$ ")
	}
	return scanner.Err()
}
