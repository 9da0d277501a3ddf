package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/automata/internal/compiler"
	"github.com/fsnotify/fsnotify"
)

// Loader implements ports.DefinitionSource and ports.Watchable over a directory
// of definition files. A definition's name is its file name without extension.
type Loader struct {
	Dir string

	// Debounce groups bursts of events (editors often write a file several
	// times per save). Zero uses 100ms.
	Debounce time.Duration
}

// NewLoader creates a loader for dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// GetDefinition reads the definition file named name.
func (l *Loader) GetDefinition(name string) ([]byte, string, error) {
	path, err := l.find(name)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read definition %s: %w", name, err)
	}
	return data, compiler.FormatFromPath(path), nil
}

// ListDefinitions returns the names of the definition files, sorted.
func (l *Loader) ListDefinitions() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !compiler.IsDefinitionFile(e.Name()) {
			continue
		}
		names = append(names, nameOf(e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

func (l *Loader) find(name string) (string, error) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(l.Dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("definition not found: %s", name)
}

// Watch reports changed definition names until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher failed: %w", err)
	}
	if err := watcher.Add(l.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s failed: %w", l.Dir, err)
	}

	debounce := l.Debounce
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer watcher.Close()

		pending := make(map[string]struct{})
		timer := time.NewTimer(debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !compiler.IsDefinitionFile(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				pending[nameOf(filepath.Base(event.Name))] = struct{}{}
				timer.Reset(debounce)
			case <-timer.C:
				names := make([]string, 0, len(pending))
				for name := range pending {
					names = append(names, name)
				}
				sort.Strings(names)
				clear(pending)
				for _, name := range names {
					select {
					case out <- name:
					case <-ctx.Done():
						return
					}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

func nameOf(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file))
}
