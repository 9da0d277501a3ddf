package automata

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/automata/pkg/domain"
)

// Runner feeds a machine line by line from an input stream.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
//
// Each line is a complete input: the machine is reset, the line is processed
// and the final state and output are written. Processing errors are reported
// and the loop continues; only I/O errors stop it.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// MaxInputSize bounds a single line; see SanitizeInput.
	MaxInputSize int
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the read-calculate-print loop until EOF or "exit".
func (r *Runner) Run(ctx context.Context, m *Machine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- automata: %s (initial %s) ---\n", m.Name(), m.InitialState())
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}

		text, err := lineReader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		input := strings.TrimRight(text, "\r\n")
		if eof && input == "" {
			return nil
		}
		if !r.Headless && (input == "exit" || input == "quit") {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}

		r.print(r.describe(ctx, m, input))
		if eof {
			return nil
		}
	}
}

func (r *Runner) describe(ctx context.Context, m *Machine, input string) string {
	input, err := SanitizeInput(input, r.MaxInputSize)
	if err != nil {
		return fmt.Sprintf("**%s** error: %v", m.InitialState(), err)
	}

	out, err := m.Calculate(ctx, input)
	state := m.CurrentState()

	var trap *domain.TrapStateError
	switch {
	case errors.As(err, &trap):
		return fmt.Sprintf("**%s** trap: %v", state, trap)
	case err != nil:
		return fmt.Sprintf("**%s** error: %v", state, err)
	case out == nil:
		return fmt.Sprintf("**%s** (no output)", state)
	}
	return fmt.Sprintf("**%s** `%v`", state, out)
}

func (r *Runner) print(msg string) {
	if r.Renderer != nil {
		if rendered, err := r.Renderer(msg); err == nil {
			msg = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(msg))
}
