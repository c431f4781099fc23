package naming

import (
	"path"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/okra-platform/movegen/internal/schema"
)

// ModuleSlug is the identity of one module in the generated output.
type ModuleSlug struct {
	Address schema.Address
	Module  string
	// Ident is unique across the run and used wherever a module has to be
	// named in code (import aliases, namespace bindings)
	Ident string
	// Dir is the output directory of the module's package
	Dir string
}

// Path returns the output file path of the module relative to the target
// root, e.g. "0x2/coin.ts".
func (s ModuleSlug) Path(ext string) string {
	return path.Join(s.Dir, s.Module+ext)
}

// ID returns the module identifier the slug was minted for.
func (s ModuleSlug) ID() schema.ModuleID {
	return schema.ModuleID{Address: s.Address, Name: s.Module}
}

// Collision records that a module or type identifier had to be
// disambiguated.
type Collision struct {
	Module schema.ModuleID
	// Type is set when a type identifier was renamed
	Type string
	// Wanted is the identifier the module or type would have had
	Wanted string
	// Assigned is the identifier it got
	Assigned string
	// Holder is the module that already owned Wanted; zero when Wanted is a
	// reserved word
	Holder schema.ModuleID
	// Reserved reports that Wanted is a reserved word
	Reserved bool
}

func (c Collision) String() string {
	subject := c.Module.String()
	if c.Type != "" {
		subject += "::" + c.Type
	}
	switch {
	case c.Reserved:
		return subject + " renamed to " + c.Assigned + " (" + c.Wanted + " is reserved)"
	case c.Holder == (schema.ModuleID{}):
		return subject + " renamed to " + c.Assigned + " (" + c.Wanted + " is not an identifier)"
	}
	return subject + " renamed to " + c.Assigned + " (" + c.Wanted + " already taken by " + c.Holder.String() + ")"
}

// Resolver assigns module slugs for one generation run. It must not be shared
// between runs.
type Resolver struct {
	logger     zerolog.Logger
	aliases    map[schema.Address]string
	slugs      map[schema.ModuleID]ModuleSlug
	owners     map[string]schema.ModuleID
	types      map[schema.TypeID]string
	collisions []Collision
}

// NewResolver creates a resolver. aliases maps package addresses to output
// directory names; packages without an alias use their short address.
func NewResolver(logger zerolog.Logger, aliases map[schema.Address]string) *Resolver {
	return &Resolver{
		logger:  logger.With().Str("component", "naming").Logger(),
		aliases: aliases,
		slugs:   make(map[schema.ModuleID]ModuleSlug),
		owners:  make(map[string]schema.ModuleID),
		types:   make(map[schema.TypeID]string),
	}
}

// Resolve returns the slug of the module at (addr, module). Repeated calls for
// the same pair return the same slug; distinct pairs never share an Ident.
func (r *Resolver) Resolve(addr schema.Address, module string) ModuleSlug {
	id := schema.ModuleID{Address: addr, Name: module}
	if s, ok := r.slugs[id]; ok {
		return s
	}

	base := Sanitize(module, "module")
	reserved := IsReserved(base)
	wanted := base
	if reserved {
		wanted += "_"
	}
	ident := wanted
	for n := 1; ; n++ {
		if _, taken := r.owners[ident]; !taken {
			break
		}
		ident = wanted + "_" + strconv.Itoa(n)
	}

	switch {
	case reserved:
		c := Collision{Module: id, Wanted: base, Assigned: ident, Holder: r.owners[wanted], Reserved: true}
		r.collisions = append(r.collisions, c)
		r.logger.Warn().
			Str("module", id.String()).
			Str("reserved", base).
			Str("ident", ident).
			Msg("module identifier is a reserved word, renamed")
	case ident != wanted:
		c := Collision{Module: id, Wanted: wanted, Assigned: ident, Holder: r.owners[wanted]}
		r.collisions = append(r.collisions, c)
		r.logger.Warn().
			Str("module", id.String()).
			Str("holder", c.Holder.String()).
			Str("ident", ident).
			Msg("module identifier already taken, disambiguated")
	}

	s := ModuleSlug{Address: addr, Module: module, Ident: ident, Dir: r.Dir(addr)}
	r.owners[ident] = id
	r.slugs[id] = s
	return s
}

// TypeIdent returns the exported identifier of the type name declared in
// module. A name that had to change is logged and recorded the first time it
// is seen.
func (r *Resolver) TypeIdent(module schema.ModuleID, name string) string {
	id := schema.TypeID{Module: module, Name: name}
	if ident, ok := r.types[id]; ok {
		return ident
	}
	ident := TypeIdent(name)
	r.types[id] = ident
	if ident != name {
		c := Collision{Module: module, Type: name, Wanted: name, Assigned: ident, Reserved: IsReserved(Sanitize(name, "Type"))}
		r.collisions = append(r.collisions, c)
		r.logger.Warn().
			Str("module", module.String()).
			Str("type", name).
			Str("ident", ident).
			Msg("type identifier renamed")
	}
	return ident
}

// Dir returns the output directory for the package at addr.
func (r *Resolver) Dir(addr schema.Address) string {
	if alias, ok := r.aliases[addr]; ok && alias != "" {
		return alias
	}
	return addr.Short()
}

// Collisions returns every disambiguation made so far, in the order they
// happened.
func (r *Resolver) Collisions() []Collision {
	out := make([]Collision, len(r.collisions))
	copy(out, r.collisions)
	return out
}
