// Package imports accumulates the imports of one generated file.
package imports

import (
	"path"
	"strconv"
	"strings"

	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/naming"
)

// Binding is one imported name and the local identifier it is bound to.
type Binding struct {
	Name  string
	Local string
}

// Import is one finalized import statement. Exactly one of Names and
// Namespace is set.
type Import struct {
	From      string
	Names     []Binding
	Namespace string
}

// Resolver returns the module reference of target. A reference beginning
// with "." is a path relative to the output root; anything else is used as
// given.
type Resolver func(target naming.ModuleSlug) string

type namedGroup struct {
	target   naming.ModuleSlug
	bindings []Binding
}

type namespaceGroup struct {
	target naming.ModuleSlug
	alias  string
}

// Set collects the imports of one output unit. It is not safe for
// concurrent use.
type Set struct {
	self       naming.ModuleSlug
	locals     map[string]bool
	named      []*namedGroup
	namespaces []*namespaceGroup
	finalized  bool
}

// NewSet creates the import set of the unit generated for self. declared
// lists the identifiers the unit defines itself.
func NewSet(self naming.ModuleSlug, declared ...string) *Set {
	s := &Set{self: self, locals: make(map[string]bool)}
	for _, d := range declared {
		s.locals[d] = true
	}
	return s
}

// Reserve marks identifiers as used locally without importing anything.
func (s *Set) Reserve(names ...string) {
	for _, n := range names {
		s.locals[n] = true
	}
}

// RegisterNamed imports name from target and returns the local identifier to
// use for it. The identifier is name itself unless that is already bound, in
// which case it is prefixed with the target's slug.
func (s *Set) RegisterNamed(target naming.ModuleSlug, name string) string {
	g := s.namedGroup(target)
	for _, b := range g.bindings {
		if b.Name == name {
			return b.Local
		}
	}
	local := s.claim(name, target.Ident+"_"+name)
	g.bindings = append(g.bindings, Binding{Name: name, Local: local})
	return local
}

// RegisterNamespace imports target as a whole under alias and returns the
// local identifier, which differs from alias only if alias is already bound.
func (s *Set) RegisterNamespace(target naming.ModuleSlug, alias string) string {
	for _, g := range s.namespaces {
		if g.target.ID() == target.ID() {
			return g.alias
		}
	}
	local := s.claim(alias, alias+"_ns")
	s.namespaces = append(s.namespaces, &namespaceGroup{target: target, alias: local})
	return local
}

// Imported reports whether local is bound to an import.
func (s *Set) Imported(local string) bool {
	for _, g := range s.named {
		for _, b := range g.bindings {
			if b.Local == local {
				return true
			}
		}
	}
	for _, g := range s.namespaces {
		if g.alias == local {
			return true
		}
	}
	return false
}

// Empty reports whether nothing has been registered.
func (s *Set) Empty() bool {
	return len(s.named) == 0 && len(s.namespaces) == 0
}

func (s *Set) namedGroup(target naming.ModuleSlug) *namedGroup {
	for _, g := range s.named {
		if g.target.ID() == target.ID() {
			return g
		}
	}
	g := &namedGroup{target: target}
	s.named = append(s.named, g)
	return g
}

// claim binds the first free identifier among want, fallback, fallback_1, ...
func (s *Set) claim(want, fallback string) string {
	if !s.locals[want] {
		s.locals[want] = true
		return want
	}
	local := fallback
	for n := 1; s.locals[local]; n++ {
		local = fallback + "_" + strconv.Itoa(n)
	}
	s.locals[local] = true
	return local
}

// Finalize produces the import statements: named groups first, then
// namespace groups, each in the order their target was first registered.
// It can be called once.
func (s *Set) Finalize(resolve Resolver) ([]Import, error) {
	if s.finalized {
		return nil, errors.Mark(errors.Newf("imports of %s finalized twice", s.self.ID()), errors.ErrAlreadyFinalized)
	}
	s.finalized = true

	out := make([]Import, 0, len(s.named)+len(s.namespaces))
	for _, g := range s.named {
		bindings := make([]Binding, len(g.bindings))
		copy(bindings, g.bindings)
		out = append(out, Import{From: s.reference(resolve, g.target), Names: bindings})
	}
	for _, g := range s.namespaces {
		out = append(out, Import{From: s.reference(resolve, g.target), Namespace: g.alias})
	}
	return out, nil
}

func (s *Set) reference(resolve Resolver, target naming.ModuleSlug) string {
	ref := resolve(target)
	if !strings.HasPrefix(ref, ".") {
		return ref
	}
	clean := path.Clean(ref)
	return RelativePath(s.self.Dir, path.Dir(clean), path.Base(clean))
}

// RelativePath returns the path of module in toDir as seen from a file in
// fromDir. Directories are slash separated and relative to a common root.
// The result always starts with "./" or "../".
func RelativePath(fromDir, toDir, module string) string {
	from := segments(fromDir)
	to := segments(toDir)
	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}

	var parts []string
	for range from[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	parts = append(parts, module)

	rel := strings.Join(parts, "/")
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

func segments(dir string) []string {
	clean := path.Clean(strings.ReplaceAll(dir, "\\", "/"))
	if clean == "." || clean == "/" {
		return nil
	}
	return strings.Split(strings.Trim(clean, "/"), "/")
}
