package commands

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/okra-platform/movegen/internal/config"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/schema"
)

type InitOptions struct {
	Output  string
	Address string
	Alias   string
	Input   string
	Format  string
	Runtime string
}

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Getwd() (string, error)
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (fs *osFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

type InitCommand struct {
	filesystem FileSystem
	output     Output
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand() *InitCommand {
	return &InitCommand{
		filesystem: &osFileSystem{},
		output:     defaultOutput{},
	}
}

func (c *Controller) Init(ctx context.Context) error {
	cmd := NewInitCommand()
	return cmd.Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	dir, err := ic.filesystem.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to get current directory")
	}
	for _, name := range config.FileNames {
		if _, err := ic.filesystem.Stat(filepath.Join(dir, name)); err == nil {
			return errors.Newf("%s already exists in %s", name, dir)
		}
	}

	var options *InitOptions
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return errors.Wrap(err, "failed to get init options")
		}
	}

	cfg := options.config()
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, config.FileNames[0])
	if err := ic.filesystem.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	ic.output.Printf("created %s\n", path)
	ic.output.Println("run movegen generate to generate codecs")
	return nil
}

func (o *InitOptions) config() *config.Config {
	return &config.Config{
		Language: config.DefaultLanguage,
		Runtime:  o.Runtime,
		Targets: []config.Target{{
			Name:   "default",
			Output: o.Output,
			Packages: []config.PackageConfig{{
				Address: o.Address,
				Alias:   o.Alias,
				Input:   o.Input,
				Format:  schema.Format(o.Format),
			}},
		}},
	}
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	options := &InitOptions{
		Output:  config.DefaultOutput,
		Runtime: config.DefaultRuntime,
		Format:  string(schema.FormatMovegen),
	}

	form := ic.createInitForm(options)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func (ic *InitCommand) createInitForm(options *InitOptions) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Package address").
				Description("Address of the Move package to generate codecs for").
				Value(&options.Address).
				Validate(func(s string) error {
					_, err := schema.ParseAddress(s)
					return err
				}),

			huh.NewInput().
				Title("Description file").
				Description("Path to the package description").
				Value(&options.Input).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("description file cannot be empty")
					}
					if _, err := ic.filesystem.Stat(s); err != nil {
						return errors.Newf("%s does not exist", s)
					}
					return nil
				}),

			huh.NewSelect[string]().
				Title("Format").
				Options(
					huh.NewOption("movegen description (YAML/JSON)", string(schema.FormatMovegen)),
					huh.NewOption("normalized module JSON", string(schema.FormatNormalized)),
				).
				Value(&options.Format),

			huh.NewInput().
				Title("Alias").
				Description("Output directory name for the package (optional)").
				Value(&options.Alias),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Output directory").
				Value(&options.Output),

			huh.NewInput().
				Title("Codec runtime").
				Description("Module generated files import bcs from").
				Value(&options.Runtime),
		),
	)
}
