package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/internal/adapters/file"
	"github.com/aretw0/automata/internal/compiler"
	"github.com/aretw0/automata/pkg/dsl"
	"github.com/aretw0/automata/pkg/ports"
	"github.com/aretw0/automata/pkg/registry"
)

// Catalog is a registry of the built-in machines plus the definitions of a
// source, kept in sync by Watch.
type Catalog struct {
	*registry.Registry

	source ports.DefinitionSource
	logger *slog.Logger

	mu    sync.Mutex
	names map[string]string // definition name -> registered machine name
}

// LoadCatalog registers the built-ins and every definition of src. Broken
// definitions are skipped and reported in the returned error; the catalog is
// usable either way. opts are applied to every machine the catalog creates.
func LoadCatalog(src ports.DefinitionSource, logger *slog.Logger, opts ...automata.Option) (*Catalog, error) {
	c := &Catalog{
		Registry: registry.WithBuiltins(opts...),
		source:   src,
		logger:   logger,
		names:    make(map[string]string),
	}
	if src == nil {
		return c, nil
	}

	defs, err := src.ListDefinitions()
	if err != nil {
		return c, err
	}
	var errs []error
	for _, name := range defs {
		if err := c.load(name); err != nil {
			errs = append(errs, err)
		}
	}
	return c, errors.Join(errs...)
}

// DirSource returns a file source for dir, or nil when dir does not exist.
func DirSource(dir string) ports.DefinitionSource {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	return file.NewLoader(dir)
}

func (c *Catalog) load(name string) error {
	data, format, err := c.source.GetDefinition(name)
	if err != nil {
		return err
	}
	bp, err := automata.Parse(data, format)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if bp.Name == "" {
		bp.Name = name
	}

	c.mu.Lock()
	if prev, ok := c.names[name]; ok && prev != bp.Name {
		c.Remove(prev)
	}
	c.names[name] = bp.Name
	c.mu.Unlock()

	c.Register(bp)
	c.logger.Debug("definition loaded", "definition", name, "machine", bp.Name, "rules", bp.Table.Len())
	return nil
}

func (c *Catalog) unload(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if machine, ok := c.names[name]; ok {
		c.Remove(machine)
		delete(c.names, name)
	}
}

// Reload re-reads one definition. A definition that disappeared is removed;
// one that no longer compiles keeps its previous version.
func (c *Catalog) Reload(name string) error {
	if _, _, err := c.source.GetDefinition(name); err != nil {
		c.unload(name)
		c.logger.Info("definition removed", "definition", name)
		return nil
	}
	if err := c.load(name); err != nil {
		c.logger.Warn("definition reload failed, keeping previous version", "definition", name, "err", err)
		return err
	}
	c.logger.Info("definition reloaded", "definition", name)
	return nil
}

// Watch reloads definitions as the source reports changes, until ctx is done.
// It is a no-op for sources that cannot be watched.
func (c *Catalog) Watch(ctx context.Context) error {
	w, ok := c.source.(ports.Watchable)
	if !ok {
		return nil
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for name := range events {
			_ = c.Reload(name)
		}
	}()
	return nil
}

// Resolve returns the blueprint for arg: a definition file when arg names an
// existing file, a catalog entry otherwise.
func (c *Catalog) Resolve(arg string) (*dsl.Blueprint, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		bp, err := compiler.LoadFile(arg)
		if err != nil {
			return nil, err
		}
		c.Register(bp)
		return bp, nil
	}
	return c.Get(arg)
}
