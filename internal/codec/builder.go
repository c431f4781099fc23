// Package codec interprets schema type references as runtime BCS codecs, so
// bytes can be decoded against a package description without generating
// code first.
package codec

import (
	"strings"

	"github.com/okra-platform/movegen/internal/bcs"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/schema"
)

var primitives = map[schema.PrimitiveKind]func() bcs.Codec{
	schema.U8:          bcs.U8,
	schema.U16:         bcs.U16,
	schema.U32:         bcs.U32,
	schema.U64:         bcs.U64,
	schema.U128:        bcs.U128,
	schema.U256:        bcs.U256,
	schema.Bool:        bcs.Bool,
	schema.AddressKind: bcs.AddressCodec,
	schema.String:      bcs.String,
}

// maxNesting bounds how often one definition may be entered while already
// being built without crossing a guard.
const maxNesting = 32

// Builder builds codecs for concrete types of one index. Instantiations are
// cached, so a Builder hands out the same codec for the same type. A Builder
// is not safe for concurrent use, including the codecs it returns.
type Builder struct {
	idx   *schema.Index
	cache map[string]bcs.Codec

	// instantiations being built, with the number of guards crossed when
	// each was entered
	building map[string]int
	// per definition, the guard counts of its instantiations being built
	active   map[schema.TypeID][]int
	guards   int
}

// NewBuilder returns a Builder over idx.
func NewBuilder(idx *schema.Index) *Builder {
	return &Builder{
		idx:      idx,
		cache:    make(map[string]bcs.Codec),
		building: make(map[string]int),
		active:   make(map[schema.TypeID][]int),
	}
}

// Codec returns the codec of ref. ref must be concrete: type parameters
// have nothing to bind to.
func (b *Builder) Codec(ref schema.TypeRef) (bcs.Codec, error) {
	return b.build(ref, nil)
}

// Parse parses a Move type string, e.g. "0x2::m::Pair<u64, bool>", and
// returns its codec.
func (b *Builder) Parse(typ string) (bcs.Codec, error) {
	ref, err := schema.ParseTypeRef(typ, schema.Scope{})
	if err != nil {
		return nil, err
	}
	return b.Codec(ref)
}

func (b *Builder) build(ref schema.TypeRef, bindings []schema.TypeRef) (bcs.Codec, error) {
	switch t := ref.(type) {
	case schema.Primitive:
		mk, ok := primitives[t.Kind]
		if !ok {
			return nil, errors.AssertionFailedf("no codec for primitive %s", t.Kind)
		}
		return mk(), nil
	case schema.Vector:
		elem, err := b.guarded(t.Elem, bindings)
		if err != nil {
			return nil, err
		}
		return bcs.Vector(elem), nil
	case schema.Option:
		elem, err := b.guarded(t.Elem, bindings)
		if err != nil {
			return nil, err
		}
		return bcs.Option(elem), nil
	case schema.Tuple:
		elems, err := b.buildAll(t.Elems, bindings)
		if err != nil {
			return nil, err
		}
		return bcs.Tuple(elems...), nil
	case schema.TypeParam:
		if t.Index < 0 || t.Index >= len(bindings) {
			return nil, errors.Mark(errors.Newf("type parameter %s has no binding", t), errors.ErrUnboundParameter)
		}
		return b.build(bindings[t.Index], nil)
	case schema.Datatype:
		return b.datatype(t, bindings)
	case nil:
		return nil, errors.Mark(errors.New("missing type"), errors.ErrMalformedInput)
	default:
		return nil, errors.AssertionFailedf("unknown type reference %T", ref)
	}
}

func (b *Builder) guarded(ref schema.TypeRef, bindings []schema.TypeRef) (bcs.Codec, error) {
	b.guards++
	defer func() { b.guards-- }()
	return b.build(ref, bindings)
}

func (b *Builder) buildAll(refs []schema.TypeRef, bindings []schema.TypeRef) ([]bcs.Codec, error) {
	out := make([]bcs.Codec, len(refs))
	for i, ref := range refs {
		c, err := b.build(ref, bindings)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (b *Builder) datatype(d schema.Datatype, bindings []schema.TypeRef) (bcs.Codec, error) {
	// bind the arguments first so the cache key is concrete
	concrete := schema.Substitute(d, bindings).(schema.Datatype)
	key := concrete.String()
	if c, ok := b.cache[key]; ok {
		return c, nil
	}
	if entered, ok := b.building[key]; ok {
		if entered == b.guards {
			err := errors.Newf("%s contains itself outside a vector, option or enum", key)
			return nil, errors.Mark(err, errors.ErrUnguardedCycle)
		}
		return bcs.Lazy(func() bcs.Codec { return b.cache[key] }), nil
	}

	// a definition re-entered under other arguments, e.g. Foo<T> holding a
	// vector<Foo<vector<T>>>, yields a new instantiation at every level
	id := concrete.ID()
	if stack := b.active[id]; len(stack) > 0 {
		if stack[len(stack)-1] < b.guards {
			return b.deferred(concrete), nil
		}
		if len(stack) >= maxNesting {
			err := errors.Newf("%s nests %s more than %d times", key, id, maxNesting)
			err = errors.WithHint(err, "a definition instantiating itself with growing type arguments needs a vector, option or enum in between")
			return nil, errors.Mark(err, errors.ErrMalformedInput)
		}
	}

	def, err := b.idx.Lookup(concrete)
	if err != nil {
		return nil, err
	}
	if def == nil {
		err := errors.Newf("no definition loaded for external type %s", key)
		err = errors.WithHint(err, "add the package description to the inputs to decode its types")
		return nil, errors.Mark(err, errors.ErrDanglingReference)
	}
	if err := schema.CheckArity(concrete, def); err != nil {
		return nil, err
	}

	b.building[key] = b.guards
	defer delete(b.building, key)
	b.active[id] = append(b.active[id], b.guards)
	defer func() { b.active[id] = b.active[id][:len(b.active[id])-1] }()

	c, err := b.definition(concrete, def)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", key)
	}
	b.cache[key] = c
	return c, nil
}

// deferred builds d when its codec is first used, by which time the
// instantiations enclosing it are complete.
func (b *Builder) deferred(d schema.Datatype) bcs.Codec {
	return bcs.Lazy(func() bcs.Codec {
		c, err := b.Codec(d)
		if err != nil {
			return bcs.Failed(label(d), err)
		}
		return c
	})
}

func (b *Builder) definition(d schema.Datatype, def *schema.TypeDef) (bcs.Codec, error) {
	name := label(d)
	switch def.Kind {
	case schema.KindStruct:
		fields := make([]bcs.Field, len(def.Fields))
		for i, f := range def.Fields {
			c, err := b.build(f.Type, d.TypeArgs)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s", f.Name)
			}
			fields[i] = bcs.Field{Name: f.Name, Codec: c}
		}
		return bcs.StructOf(name, fields...), nil
	case schema.KindEnum:
		// with more than one variant a value can stop recursing
		if len(def.Variants) > 1 {
			b.guards++
			defer func() { b.guards-- }()
		}
		variants := make([]bcs.Variant, len(def.Variants))
		for i, v := range def.Variants {
			c, err := b.variant(def, v, d.TypeArgs)
			if err != nil {
				return nil, errors.Wrapf(err, "variant %s", v.Name)
			}
			variants[i] = bcs.Variant{Name: v.Name, Codec: c}
		}
		return bcs.EnumOf(name, variants...), nil
	default:
		return nil, errors.AssertionFailedf("unknown kind %s", def.Kind)
	}
}

func (b *Builder) variant(def *schema.TypeDef, v schema.Variant, args []schema.TypeRef) (bcs.Codec, error) {
	payload, err := b.buildAll(v.Payload, args)
	if err != nil {
		return nil, err
	}
	switch {
	case len(payload) == 0:
		return nil, nil
	case v.Named():
		fields := make([]bcs.Field, len(payload))
		for i, c := range payload {
			fields[i] = bcs.Field{Name: v.FieldNames[i], Codec: c}
		}
		return bcs.StructOf(def.Name+"::"+v.Name, fields...), nil
	case len(payload) == 1:
		return payload[0], nil
	default:
		return bcs.Tuple(payload...), nil
	}
}

// label names an instantiation the way generated codecs do: Pair<u64, bool>.
func label(d schema.Datatype) string {
	if len(d.TypeArgs) == 0 {
		return d.Name
	}
	args := make([]string, len(d.TypeArgs))
	for i, a := range d.TypeArgs {
		args[i] = argName(a)
	}
	return d.Name + "<" + strings.Join(args, ", ") + ">"
}

func argName(ref schema.TypeRef) string {
	switch t := ref.(type) {
	case schema.Datatype:
		return label(t)
	case schema.Vector:
		return "vector<" + argName(t.Elem) + ">"
	case schema.Option:
		return "Option<" + argName(t.Elem) + ">"
	default:
		return ref.String()
	}
}
