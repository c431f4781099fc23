package typescript

import (
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/okra-platform/movegen/internal/codegen/depgraph"
	"github.com/okra-platform/movegen/internal/codegen/target"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/naming"
	"github.com/okra-platform/movegen/internal/schema"
)

// DefaultRuntime is the codec library generated files import
const DefaultRuntime = "@mysten/sui/bcs"

// Generator generates one TypeScript module of BCS codec constructors per
// Move module
type Generator struct {
	runtime string
}

// NewGenerator creates a generator whose output imports runtime. An empty
// runtime selects DefaultRuntime.
func NewGenerator(runtime string) *Generator {
	if runtime == "" {
		runtime = DefaultRuntime
	}
	return &Generator{runtime: runtime}
}

// Language returns the name of the target language
func (g *Generator) Language() string {
	return "typescript"
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return fileExtension
}

// Runtime returns the runtime module generated files import.
func (g *Generator) Runtime() string {
	return g.runtime
}

// Generate renders every module of every generated package in the input. A
// module that cannot be rendered is reported in the result and leaves the
// other modules untouched; the returned error is reserved for failures that
// invalidate the whole target.
func (g *Generator) Generate(in *target.Input) (*target.Result, error) {
	if in == nil || in.Index == nil {
		return nil, errors.AssertionFailedf("generate called without an index")
	}
	logger := in.Logger.With().Str("component", "typescript").Str("target", in.Name).Logger()

	resolver := naming.NewResolver(logger, in.Aliases)
	graph := depgraph.Build(in.Index)
	result := &target.Result{Target: in.Name}

	// identifiers follow declaration order, not reference order
	generated := in.Generated()
	for _, pkg := range generated {
		for _, m := range pkg.Modules {
			resolver.Resolve(pkg.Address, m.Name)
		}
	}

	broken := make(map[schema.ModuleID]error)
	for _, c := range graph.Cycles() {
		for _, m := range c.Modules() {
			if _, seen := broken[m]; !seen {
				broken[m] = c.Err()
			}
		}
	}

	resolve := func(t naming.ModuleSlug) string {
		if spec, ok := in.External[t.Address]; ok {
			return strings.TrimSuffix(spec, "/") + "/" + t.Module
		}
		return "./" + path.Join(t.Dir, t.Module)
	}

	for _, pkg := range generated {
		var emitted []string
		for _, m := range pkg.Modules {
			slug := resolver.Resolve(pkg.Address, m.Name)
			log := logger.With().Str("module", m.ID().String()).Logger()

			if err, ok := broken[m.ID()]; ok {
				g.fail(result, log, m.ID(), err)
				continue
			}
			content, err := g.generateModule(in, graph, resolver, slug, m, resolve)
			if err != nil {
				g.fail(result, log, m.ID(), err)
				continue
			}

			file := target.File{Path: slug.Path(fileExtension), Content: content}
			result.Files = append(result.Files, file)
			result.Generated = append(result.Generated, m.ID())
			emitted = append(emitted, m.Name)
			log.Debug().Str("path", file.Path).Int("types", len(m.Types)).Msg("module rendered")
		}

		if in.Barrel && len(emitted) > 0 {
			if file, ok := g.barrel(logger, resolver.Dir(pkg.Address), pkg.Address, emitted); ok {
				result.Files = append(result.Files, file)
			}
		}
	}

	result.Collisions = resolver.Collisions()
	return result, nil
}

func (g *Generator) generateModule(
	in *target.Input,
	graph *depgraph.Graph,
	resolver *naming.Resolver,
	slug naming.ModuleSlug,
	m *schema.Module,
	resolve func(naming.ModuleSlug) string,
) ([]byte, error) {
	if err := schema.Validate(m); err != nil {
		return nil, err
	}
	if err := checkExports(m); err != nil {
		return nil, err
	}
	u := newUnit(slug, m, resolve)
	r := &renderer{
		idx:      in.Index,
		graph:    graph,
		resolver: resolver,
		external: in.External,
		unit:     u,
	}
	for _, def := range m.Types {
		d, err := r.renderDef(def)
		if err != nil {
			return nil, err
		}
		u.decls = append(u.decls, d)
	}
	return Emit(u, g.runtime)
}

// checkExports rejects modules where two type names map to one exported
// identifier, e.g. "string" and "string_".
func checkExports(m *schema.Module) error {
	owners := make(map[string]string, len(m.Types))
	for _, def := range m.Types {
		ident := naming.TypeIdent(def.Name)
		if prev, ok := owners[ident]; ok {
			where := schema.Location{Module: m.ID(), Type: def.Name}
			err := errors.Newf("types %s and %s both export as %s", prev, def.Name, ident)
			err = errors.WithHint(err, "rename one of the types in the package description")
			return where.Wrap(err, errors.ErrMalformedInput)
		}
		owners[ident] = def.Name
	}
	return nil
}

func (g *Generator) barrel(logger zerolog.Logger, dir string, addr schema.Address, modules []string) (target.File, bool) {
	for _, m := range modules {
		if m == barrelName {
			logger.Warn().
				Str("package", addr.Short()).
				Msg("package has a module named index, skipping barrel file")
			return target.File{}, false
		}
	}
	return target.File{Path: barrelPath(dir), Content: emitBarrel(addr.Short(), modules)}, true
}

func (g *Generator) fail(result *target.Result, logger zerolog.Logger, module schema.ModuleID, err error) {
	result.Fail(module, err)
	event := logger.Error().Err(err)
	if hints := errors.FlattenHints(err); hints != "" {
		event = event.Str("hint", hints)
	}
	event.Msg("module skipped")
}
