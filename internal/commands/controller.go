// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/okra-platform/movegen/internal/codegen"
	"github.com/okra-platform/movegen/internal/config"
	"github.com/okra-platform/movegen/internal/output"
)

type Flags struct {
	LogLevel string
	// ConfigPath overrides the config file lookup
	ConfigPath string
}

type Controller struct {
	Flags  *Flags
	Logger zerolog.Logger
}

// Dependencies are shared by the generation commands
type Dependencies struct {
	ConfigLoader ConfigLoader
	Registry     *codegen.Registry
	FileSystem   output.FileSystem
	Output       Output
	Logger       zerolog.Logger
}

// Interfaces for dependency injection
type ConfigLoader interface {
	LoadConfig() (*config.Config, string, error)
	// ConfigFile returns the path of the config file loaded for root, or ""
	ConfigFile(root string) string
}

type Output interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

type SignalNotifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// Default implementations
type defaultConfigLoader struct {
	path string
}

func (l *defaultConfigLoader) LoadConfig() (*config.Config, string, error) {
	if l.path == "" {
		return config.LoadConfig()
	}
	cfg, err := config.LoadConfigFromPath(l.path)
	if err != nil {
		return nil, "", err
	}
	root, err := filepath.Abs(filepath.Dir(l.path))
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

func (l *defaultConfigLoader) ConfigFile(root string) string {
	if l.path != "" {
		if abs, err := filepath.Abs(l.path); err == nil {
			return abs
		}
		return filepath.Clean(l.path)
	}
	path, _ := config.FindConfigFile(root)
	return path
}

type defaultOutput struct{}

func (defaultOutput) Printf(format string, a ...any) { fmt.Printf(format, a...) }
func (defaultOutput) Println(a ...any)               { fmt.Println(a...) }

type defaultSignalNotifier struct{}

func (defaultSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (defaultSignalNotifier) Stop(c chan<- os.Signal)                     { signal.Stop(c) }

func (c *Controller) deps() Dependencies {
	return Dependencies{
		ConfigLoader: &defaultConfigLoader{path: c.Flags.ConfigPath},
		Registry:     codegen.DefaultRegistry,
		FileSystem:   output.OS{},
		Output:       defaultOutput{},
		Logger:       c.Logger,
	}
}

func (c *Controller) Generate(ctx context.Context) error {
	return NewGenerateCommand(c.deps()).Execute(ctx)
}

func (c *Controller) Check(ctx context.Context) error {
	return NewCheckCommand(c.deps()).Execute(ctx)
}

func (c *Controller) Watch(ctx context.Context) error {
	return NewWatchCommand(c.deps()).Execute(ctx)
}

func (c *Controller) Decode(ctx context.Context, opts DecodeOptions) error {
	return NewDecodeCommand(c.deps()).Execute(ctx, opts)
}
