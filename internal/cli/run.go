package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/internal/presentation/tui"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/session"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Machine   string // Catalog name or definition file
	Headless  bool
	JSON      bool
	Debug     bool
	SessionID string // Feed a persistent session instead of resetting per line
	MaxInput  int    // Per-line limit, 0 for automata.DefaultMaxInputSize
	Input     io.Reader
	Output    io.Writer
}

// Result is one NDJSON line of --json output.
type Result struct {
	Input  string `json:"input"`
	State  string `json:"state"`
	Output any    `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Run reads inputs line by line and prints the final state and output of
// each. Without a session every line is a fresh calculation; with one, lines
// are fed to the same run and progress is persisted.
func Run(ctx context.Context, cat *Catalog, mgr *session.Manager, opts RunOptions, logger *slog.Logger) error {
	bp, err := cat.Resolve(opts.Machine)
	if err != nil {
		return err
	}

	rich := !opts.Headless && !opts.JSON && IsTerminal(opts.Output)
	if rich {
		tui.PrintBanner(opts.Output, strings.TrimSpace(automata.Version))
	}

	if opts.SessionID != "" {
		return handleExecutionError(runSession(ctx, mgr, bp.Name, opts))
	}

	m := automata.FromBlueprint(bp,
		automata.WithLogger(logger),
		automata.WithLifecycleHooks(debugHooks(logger, opts.Debug)),
	)

	if opts.JSON {
		return handleExecutionError(eachLine(ctx, opts.Input, func(line string) error {
			input, err := automata.SanitizeInput(line, opts.MaxInput)
			if err != nil {
				return writeResult(opts.Output, line, m.InitialState().Name, nil, err)
			}
			out, err := m.Calculate(ctx, input)
			return writeResult(opts.Output, line, m.CurrentState().Name, out, err)
		}))
	}

	r := &automata.Runner{
		Input:    opts.Input,
		Output:   opts.Output,
		Headless: opts.Headless,

		MaxInputSize: opts.MaxInput,
	}
	if rich {
		r.Renderer = tui.NewRenderer()
	}
	return handleExecutionError(r.Run(ctx, m))
}

func runSession(ctx context.Context, mgr *session.Manager, machine string, opts RunOptions) error {
	if mgr == nil {
		return errors.New("sessions are not configured")
	}
	res, err := mgr.Get(ctx, opts.SessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		res, err = mgr.Start(ctx, opts.SessionID, machine)
		if err != nil {
			return err
		}
		if !opts.Headless && !opts.JSON {
			printSystemMessage(opts.Output, "Session '%s' active.", opts.SessionID)
		}
	case err != nil:
		return err
	case res.Run.Machine != machine:
		return fmt.Errorf("%w: %s is running %s", session.ErrMachineMismatch, opts.SessionID, res.Run.Machine)
	default:
		if !opts.Headless && !opts.JSON {
			printSystemMessage(opts.Output, "Resuming at '%s' state...", res.Run.State.Name)
		}
	}

	state := res.Run.State.Name
	return eachLine(ctx, opts.Input, func(line string) error {
		input, err := automata.SanitizeInput(line, opts.MaxInput)
		if err != nil {
			return report(opts, line, state, nil, err)
		}

		fed, err := mgr.Feed(ctx, opts.SessionID, machine, input)
		if err != nil {
			var nt *domain.NoTransitionError
			if !errors.As(err, &nt) && !errors.Is(err, domain.ErrInputShape) {
				return err
			}
			return report(opts, line, state, nil, err)
		}
		state = fed.Run.State.Name
		if fed.Trap != nil {
			return report(opts, line, state, nil, fed.Trap)
		}
		return report(opts, line, state, fed.Output, nil)
	})
}

func report(opts RunOptions, input, state string, out any, err error) error {
	if opts.JSON {
		return writeResult(opts.Output, input, state, out, err)
	}
	switch {
	case err != nil:
		fmt.Fprintf(opts.Output, "%s error: %v\n", state, err)
	case out == nil:
		fmt.Fprintf(opts.Output, "%s (no output)\n", state)
	default:
		fmt.Fprintf(opts.Output, "%s %v\n", state, out)
	}
	return nil
}

func writeResult(w io.Writer, input, state string, out any, err error) error {
	res := Result{Input: input, State: state, Output: out}
	if err != nil {
		res.Error = err.Error()
	}
	return json.NewEncoder(w).Encode(res)
}

// eachLine calls fn for every line of r until EOF or ctx is done.
// Lines have no length limit here; SanitizeInput rejects oversized ones per line.
func eachLine(ctx context.Context, r io.Reader, fn func(string) error) error {
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		line := strings.TrimRight(text, "\r\n")
		if eof && line == "" {
			return nil
		}
		if err := fn(line); err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}
