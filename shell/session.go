// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package shell

import (
	"context"
	"io"
	"os"

	"github.com/dmitska/posh/expand"
	"github.com/dmitska/posh/host"
	"github.com/dmitska/posh/interp"
	"github.com/dmitska/posh/syntax"
)

// BuiltinFunc is the signature a caller registers with [Session.RegisterBuiltin].
// It follows the same ctx/args convention as [interp.ExecHandlerFunc]; the
// builtin's standard streams and current directory are reachable via
// [interp.HandlerCtx](ctx).
type BuiltinFunc func(ctx context.Context, args []string) error

// Session is a reusable, stateful wrapper around an [interp.Runner]. It is
// the entry point for embedding the shell in a host program: parsing source
// into a syntax tree, expanding words outside of a full run, executing a
// tree, inspecting the environment, and registering additional builtins, all
// against one long-lived set of variables, functions, and options.
//
// A zero Session is not usable; build one with [NewSession].
type Session struct {
	runner *interp.Runner

	builtins map[string]BuiltinFunc
}

// NewSession builds a Session, applying opts the same way [interp.New] does.
// Do not pass [interp.ExecHandler] or [interp.ExecHandlers] directly; use
// [Session.RegisterBuiltin] instead, since the Session installs its own exec
// middleware to dispatch to registered builtins before falling back to opts'
// handler (or the default one, if none was given).
func NewSession(opts ...interp.RunnerOption) (*Session, error) {
	s := &Session{builtins: make(map[string]BuiltinFunc)}
	opts = append(opts, interp.ExecHandlers(s.execMiddleware))
	r, err := interp.New(opts...)
	if err != nil {
		return nil, err
	}
	s.runner = r
	return s, nil
}

func (s *Session) execMiddleware(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if fn, ok := s.builtins[args[0]]; ok {
			return fn(ctx, args)
		}
		return next(ctx, args)
	}
}

// Parse parses src as a shell program. name is used in error messages and as
// the value of $0 when the returned file is later run.
func (s *Session) Parse(src []byte, name string) (*syntax.File, error) {
	return syntax.Parse(src, name, 0)
}

// Expand performs shell expansion on word, resolving parameters, arithmetic,
// and command substitutions against the Session's live environment. Command
// substitutions are run as subshells of the Session's own runner, so they see
// the same variables and functions a full Run would.
func (s *Session) Expand(ctx context.Context, word *syntax.Word) (string, error) {
	cfg := &expand.Config{
		Env: readOnlyEnviron{s.runner.Env},
		CmdSubst: func(w io.Writer, cs *syntax.CmdSubst) error {
			sub := s.runner.Subshell()
			if err := interp.StdIO(nil, w, nil)(sub); err != nil {
				return err
			}
			return sub.Run(ctx, &syntax.File{Stmts: cs.Stmts})
		},
		ReadDir2: readDir,
	}
	return expand.Literal(cfg, word)
}

// Run executes node, which may be a [*syntax.File], [*syntax.Stmt], or any
// other node accepted by [interp.Runner.Run], against the Session's
// environment and options.
func (s *Session) Run(ctx context.Context, node syntax.Node) error {
	return s.runner.Run(ctx, node)
}

// Environment returns a read-only view of the Session's current variables,
// including exported process environment variables, shell variables, and
// local function variables.
func (s *Session) Environment() expand.Environ {
	return s.runner.Env
}

// Set assigns a plain string variable in the Session's environment, as if by
// running "name=value". A bare assignment statement like this one is a
// permanent change, unlike a word prefixing a command call.
func (s *Session) Set(ctx context.Context, name, value string) error {
	stmt := &syntax.Stmt{Assigns: []*syntax.Assign{
		{Name: &syntax.Lit{Value: name}, Value: litWord(value)},
	}}
	return s.runner.Run(ctx, stmt)
}

// Unset removes a variable from the Session's environment, as if by running
// "unset name".
func (s *Session) Unset(ctx context.Context, name string) error {
	stmt := &syntax.Stmt{Cmd: &syntax.CallExpr{Args: []syntax.Word{
		litWord("unset"), litWord(name),
	}}}
	return s.runner.Run(ctx, stmt)
}

func litWord(s string) syntax.Word {
	return syntax.Word{Parts: []syntax.WordPart{&syntax.Lit{Value: s}}}
}

// RegisterBuiltin installs fn as a builtin under name. Registered builtins
// take priority over external programs, but not over shell functions or the
// interpreter's own built-in commands such as "cd" or "export".
func (s *Session) RegisterBuiltin(name string, fn BuiltinFunc) {
	s.builtins[name] = fn
}

// SetStdio redirects the Session's standard streams, the same way
// [interp.StdIO] configures a freshly built runner. A nil out or err is
// replaced with a writer that discards its output.
func (s *Session) SetStdio(in io.Reader, out, err io.Writer) error {
	return interp.StdIO(in, out, err)(s.runner)
}

// Dir reports the Session's current working directory.
func (s *Session) Dir() string {
	return s.runner.Dir
}

// WatchRC starts watching path (typically the file named by $BASH_ENV, or a
// user rc file) for changes on disk, and re-sources it into the Session's
// environment each time it's written, created, or renamed, until ctx is
// done or the returned stop function is called. log receives diagnostics
// for watch failures; the zero [host.Logger] discards them.
//
// This is strictly opt-in: a Session that never calls WatchRC behaves
// exactly as any other long-lived embedding, with no background goroutine
// and no dependency on the filesystem notification backend being available.
func (s *Session) WatchRC(ctx context.Context, path string, log host.Logger) (stop func(), err error) {
	rw, err := host.NewRCWatcher(path, log)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer rw.Close()
		for {
			select {
			case <-rw.Changed():
				src, err := os.ReadFile(path)
				if err != nil {
					log.RCWatchFailed(err, path)
					continue
				}
				file, err := s.Parse(src, path)
				if err != nil {
					log.RCWatchFailed(err, path)
					continue
				}
				if err := s.Run(ctx, file); err != nil {
					log.RCWatchFailed(err, path)
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }, nil
}
