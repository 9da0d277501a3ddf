package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/automata/internal/adapters/file"
	"github.com/aretw0/automata/internal/compiler"
)

// WatchValidate validates a definition file and re-validates it every time
// it changes, until ctx is done. Parse errors are reported and watching goes on.
func WatchValidate(ctx context.Context, opts ValidateOptions, logger *slog.Logger) error {
	info, err := os.Stat(opts.Target)
	if err != nil || info.IsDir() {
		return fmt.Errorf("--watch needs a definition file, got %q", opts.Target)
	}

	dir := filepath.Dir(opts.Target)
	base := filepath.Base(opts.Target)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	check := func() {
		bp, err := compiler.LoadFile(opts.Target)
		if err != nil {
			printSystemMessage(opts.Output, "Invalid definition: %v", err)
			return
		}
		if _, err := printValidation(opts, bp); err != nil {
			logger.Error("validation output failed", "err", err)
		}
	}
	check()

	events, err := file.NewLoader(dir).Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Starting Watcher", "path", opts.Target)
	printSystemMessage(opts.Output, "Waiting for changes...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-events:
			if !ok {
				return nil
			}
			if changed != name {
				continue
			}
			printSystemMessage(opts.Output, "Change detected in '%s'.", base)
			check()
		}
	}
}
