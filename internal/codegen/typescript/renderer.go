package typescript

import (
	"regexp"
	"strings"

	"github.com/okra-platform/movegen/internal/codegen/depgraph"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/naming"
	"github.com/okra-platform/movegen/internal/schema"
)

// renderer turns type references into codec expressions for one unit.
type renderer struct {
	idx      *schema.Index
	graph    *depgraph.Graph
	resolver *naming.Resolver
	external map[schema.Address]string
	unit     *Unit

	// the definition being rendered and where inside it
	current schema.TypeID
	where   schema.Location
}

var primitiveExprs = map[schema.PrimitiveKind]string{
	schema.U8:          "bcs.u8()",
	schema.U16:         "bcs.u16()",
	schema.U32:         "bcs.u32()",
	schema.U64:         "bcs.u64()",
	schema.U128:        "bcs.u128()",
	schema.U256:        "bcs.u256()",
	schema.Bool:        "bcs.bool()",
	schema.AddressKind: "bcs.Address",
	schema.String:      "bcs.string()",
}

// Render returns the codec expression for ref. bindings holds, by position,
// the expression each type parameter of the current definition is bound to.
func (r *renderer) Render(ref schema.TypeRef, bindings []string) (string, error) {
	switch t := ref.(type) {
	case schema.Primitive:
		expr, ok := primitiveExprs[t.Kind]
		if !ok {
			return "", errors.AssertionFailedf("no codec for primitive %s", t.Kind)
		}
		return expr, nil
	case schema.Vector:
		elem, err := r.Render(t.Elem, bindings)
		if err != nil {
			return "", err
		}
		return "bcs.vector(" + elem + ")", nil
	case schema.Option:
		elem, err := r.Render(t.Elem, bindings)
		if err != nil {
			return "", err
		}
		return "bcs.option(" + elem + ")", nil
	case schema.Tuple:
		elems, err := r.renderAll(t.Elems, bindings)
		if err != nil {
			return "", err
		}
		return "bcs.tuple([" + strings.Join(elems, ", ") + "])", nil
	case schema.Datatype:
		return r.renderDatatype(t, bindings)
	case schema.TypeParam:
		if t.Index < 0 || t.Index >= len(bindings) {
			err := errors.Newf("type parameter %s of %s has no binding", t, r.current)
			err = errors.WithDetailf(err, "parameter index %d, %d bound", t.Index, len(bindings))
			return "", r.where.Wrap(err, errors.ErrUnboundParameter)
		}
		return bindings[t.Index], nil
	case nil:
		return "", r.where.Wrap(errors.New("missing type"), errors.ErrMalformedInput)
	default:
		return "", errors.AssertionFailedf("unknown type reference %T", ref)
	}
}

func (r *renderer) renderAll(refs []schema.TypeRef, bindings []string) ([]string, error) {
	out := make([]string, len(refs))
	for i, ref := range refs {
		expr, err := r.Render(ref, bindings)
		if err != nil {
			return nil, err
		}
		out[i] = expr
	}
	return out, nil
}

func (r *renderer) renderDatatype(d schema.Datatype, bindings []string) (string, error) {
	def, err := r.idx.Lookup(d)
	if err != nil {
		return "", r.where.Wrap(err, nil)
	}
	if err := schema.CheckArity(d, def); err != nil {
		return "", r.where.Wrap(err, nil)
	}
	args, err := r.renderAll(d.TypeArgs, bindings)
	if err != nil {
		return "", err
	}

	expr := r.callee(d) + "(" + strings.Join(args, ", ") + ")"
	if r.graph.SameComponent(r.current, d.ID()) {
		expr = "bcs.lazy(() => " + expr + ")"
	}
	return expr, nil
}

// callee returns the identifier the unit uses for d's constructor and
// registers the import it needs.
func (r *renderer) callee(d schema.Datatype) string {
	name := naming.TypeIdent(d.Name)
	own := r.unit.slug
	if d.Address == own.Address && d.Module == own.Module {
		return name
	}
	slug := r.resolver.Resolve(d.Address, d.Module)
	if _, ext := r.external[d.Address]; ext {
		return r.unit.imports.RegisterNamespace(slug, slug.Ident) + "." + name
	}
	return r.unit.imports.RegisterNamed(slug, name)
}

// renderDef renders a definition into a constructor declaration.
func (r *renderer) renderDef(def *schema.TypeDef) (*decl, error) {
	module := r.unit.module.ID()
	r.current = schema.TypeID{Module: module, Name: def.Name}

	params := r.unit.paramNames(def)
	d := &decl{
		ident:  r.resolver.TypeIdent(module, def.Name),
		params: params,
		kind:   def.Kind,
		label:  label(def.Name, params),
	}

	switch def.Kind {
	case schema.KindStruct:
		for i, f := range def.Fields {
			r.where = schema.Location{Module: module, Type: def.Name, Field: f.Name, Index: i}
			expr, err := r.Render(f.Type, params)
			if err != nil {
				return nil, err
			}
			d.keys = append(d.keys, propertyKey(f.Name))
			d.values = append(d.values, expr)
		}
	case schema.KindEnum:
		for i, v := range def.Variants {
			r.where = schema.Location{Module: module, Type: def.Name, Variant: v.Name, Index: i}
			expr, err := r.renderVariant(def, v, params)
			if err != nil {
				return nil, err
			}
			d.keys = append(d.keys, propertyKey(v.Name))
			d.values = append(d.values, expr)
		}
	default:
		return nil, errors.AssertionFailedf("unknown kind %s for %s", def.Kind, r.current)
	}
	return d, nil
}

func (r *renderer) renderVariant(def *schema.TypeDef, v schema.Variant, params []string) (string, error) {
	exprs, err := r.renderAll(v.Payload, params)
	if err != nil {
		return "", err
	}
	switch {
	case len(exprs) == 0:
		return "null", nil
	case v.Named():
		fields := make([]string, len(exprs))
		for i, e := range exprs {
			fields[i] = propertyKey(v.FieldNames[i]) + ": " + e
		}
		return "bcs.struct(" + quote(def.Name+"::"+v.Name) + ", { " + strings.Join(fields, ", ") + " })", nil
	case len(exprs) == 1:
		return exprs[0], nil
	default:
		return "bcs.tuple([" + strings.Join(exprs, ", ") + "])", nil
	}
}

// label is the codec name: a plain string, or a template literal embedding
// the argument codec names for generic types.
func label(name string, params []string) string {
	if len(params) == 0 {
		return quote(name)
	}
	args := make([]string, len(params))
	for i, p := range params {
		args[i] = "${" + p + ".name}"
	}
	return "`" + name + "<" + strings.Join(args, ", ") + ">`"
}

var plainKey = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func propertyKey(name string) string {
	if plainKey.MatchString(name) {
		return name
	}
	return quote(name)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
