package config

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/okra-platform/movegen/internal/codegen/target"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/schema"
)

// LoadTargets reads every package description the config names and
// assembles one generator input per target. Relative input paths resolve
// against root.
func (c *Config) LoadTargets(root string, logger zerolog.Logger) ([]*target.Input, error) {
	files := make(map[string][]*schema.Package)
	inputs := make([]*target.Input, 0, len(c.Targets))
	for _, t := range c.Targets {
		in, err := t.load(root, files, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "target %q", t.Name)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func (t Target) load(root string, files map[string][]*schema.Package, logger zerolog.Logger) (*target.Input, error) {
	in := &target.Input{
		Name:     t.Name,
		Aliases:  make(map[schema.Address]string),
		External: make(map[schema.Address]string),
		Barrel:   t.BarrelEnabled(),
		Logger:   logger.With().Str("target", t.Name).Logger(),
	}

	var pkgs []*schema.Package
	var external []schema.Address
	for _, p := range t.Packages {
		addr, err := schema.ParseAddress(p.Address)
		if err != nil {
			return nil, err
		}
		if p.Alias != "" {
			in.Aliases[addr] = p.Alias
		}
		if p.External != "" {
			in.External[addr] = p.External
			external = append(external, addr)
		}
		if p.Input == "" {
			continue
		}

		path := resolvePath(root, p.Input)
		loaded, ok := files[path]
		if !ok {
			loaded, err = schema.LoadFile(path, p.Format)
			if err != nil {
				return nil, err
			}
			files[path] = loaded
		}
		pkg := findPackage(loaded, addr)
		if pkg == nil {
			return nil, errors.Mark(errors.Newf("%s does not describe package %s", p.Input, addr.Short()), errors.ErrMalformedInput)
		}
		pkgs = append(pkgs, pkg)
		in.Logger.Debug().Str("package", addr.Short()).Str("input", path).Int("modules", len(pkg.Modules)).Msg("loaded package")
	}

	idx, err := schema.NewIndex(pkgs, external...)
	if err != nil {
		return nil, err
	}
	in.Index = idx
	return in, nil
}

func findPackage(pkgs []*schema.Package, addr schema.Address) *schema.Package {
	for _, p := range pkgs {
		if p.Address == addr {
			return p
		}
	}
	return nil
}

// InputFiles returns the description files the config reads, resolved
// against root, without duplicates.
func (c *Config) InputFiles(root string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range c.Targets {
		for _, p := range t.Packages {
			if p.Input == "" {
				continue
			}
			path := resolvePath(root, p.Input)
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	return out
}

// OutputDir returns the absolute output root of t.
func (t Target) OutputDir(root string) string {
	return resolvePath(root, t.Output)
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
