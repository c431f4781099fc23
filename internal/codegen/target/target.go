// Package target holds what a generator consumes and produces for one
// generation target.
package target

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/naming"
	"github.com/okra-platform/movegen/internal/schema"
)

// Input is everything a generator needs for one target. It is read-only
// during generation.
type Input struct {
	// Name identifies the target in logs and summaries
	Name string

	// Index holds every loaded package, generated or external
	Index *schema.Index

	// Aliases maps package addresses to output directory names
	Aliases map[schema.Address]string

	// External maps the addresses of packages that are not generated to the
	// module specifier their modules are imported from, e.g.
	// "@mysten/sui-framework". A module m is imported from "<specifier>/m".
	External map[schema.Address]string

	// Barrel enables one index file per package directory
	Barrel bool

	Logger zerolog.Logger
}

// Generated returns the packages whose modules are generated, in index order.
func (in *Input) Generated() []*schema.Package {
	var out []*schema.Package
	for _, pkg := range in.Index.Packages() {
		if _, ext := in.External[pkg.Address]; !ext {
			out = append(out, pkg)
		}
	}
	return out
}

// File is one generated file.
type File struct {
	// Path is slash separated and relative to the target's output root
	Path    string
	Content []byte
}

// ModuleFailure records why a module produced no file.
type ModuleFailure struct {
	Module schema.ModuleID
	Err    error
}

// Result is the outcome of generating one target.
type Result struct {
	Target     string
	Files      []File
	Generated  []schema.ModuleID
	Failures   []ModuleFailure
	Collisions []naming.Collision
}

// Fail records a module failure.
func (r *Result) Fail(module schema.ModuleID, err error) {
	r.Failures = append(r.Failures, ModuleFailure{Module: module, Err: err})
}

// Failed reports whether module failed.
func (r *Result) Failed(module schema.ModuleID) bool {
	for _, f := range r.Failures {
		if f.Module == module {
			return true
		}
	}
	return false
}

// Err combines the module failures into one error, or returns nil.
func (r *Result) Err() error {
	var combined error
	for _, f := range r.Failures {
		combined = errors.CombineErrors(combined, errors.Wrapf(f.Err, "module %s", f.Module))
	}
	return combined
}

// Paths returns the generated file paths in sorted order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	return paths
}

// Summary renders a human-readable report listing every module that
// succeeded and every module that failed with its reason.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "target %q: %d modules generated, %d failed\n", r.Target, len(r.Generated), len(r.Failures))
	for _, m := range r.Generated {
		fmt.Fprintf(&b, "  ok    %s\n", m)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "  FAIL  %s: %v\n", f.Module, f.Err)
	}
	for _, c := range r.Collisions {
		fmt.Fprintf(&b, "  note  %s\n", c)
	}
	return b.String()
}
