package schema

import (
	"strings"
	"unicode"

	"github.com/okra-platform/movegen/internal/errors"
)

// Well-known framework types that map onto runtime primitives
var (
	StdAddress   = MustParseAddress("0x1")
	optionModule = ModuleID{Address: StdAddress, Name: "option"}
	stringTypes  = map[TypeID]bool{
		{Module: ModuleID{Address: StdAddress, Name: "string"}, Name: "String"}: true,
		{Module: ModuleID{Address: StdAddress, Name: "ascii"}, Name: "String"}:  true,
	}
)

// Scope supplies the context a type string is parsed in.
type Scope struct {
	// Params are the enclosing definition's type parameter names, by position
	Params []string
	// Address and Module qualify partially qualified names ("Pair", "m::Pair")
	Address Address
	Module  string
}

// ParseTypeRef parses a type in Move syntax, e.g.
// "vector<0x2::m::Pair<u64, bool>>" or "T0".
func ParseTypeRef(s string, scope Scope) (TypeRef, error) {
	p := &typeParser{src: s, scope: scope}
	p.next()
	ref, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.tok != "" {
		return nil, p.errorf("unexpected %q after type", p.tok)
	}
	return ref, nil
}

// NormalizeDatatype maps framework types with a dedicated runtime codec
// (Option, String) onto their TypeRef shape and leaves everything else as is.
func NormalizeDatatype(d Datatype) TypeRef {
	id := d.ID()
	if id.Module == optionModule && id.Name == "Option" && len(d.TypeArgs) == 1 {
		return Option{Elem: d.TypeArgs[0]}
	}
	if stringTypes[id] && len(d.TypeArgs) == 0 {
		return Primitive{Kind: String}
	}
	return d
}

type typeParser struct {
	src   string
	pos   int
	tok   string
	start int
	scope Scope
}

func (p *typeParser) errorf(format string, args ...interface{}) error {
	err := errors.Newf(format, args...)
	err = errors.WithDetailf(err, "type %q, offset %d", p.src, p.start)
	return errors.Mark(err, errors.ErrMalformedInput)
}

// next advances to the next token; tok is "" at end of input.
func (p *typeParser) next() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	p.start = p.pos
	if p.pos >= len(p.src) {
		p.tok = ""
		return
	}
	c := p.src[p.pos]
	switch {
	case c == ':' && strings.HasPrefix(p.src[p.pos:], "::"):
		p.pos += 2
	case strings.ContainsRune("<>(),", rune(c)):
		p.pos++
	case isIdentChar(c):
		for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
			p.pos++
		}
	default:
		p.pos++
	}
	p.tok = p.src[p.start:p.pos]
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *typeParser) expect(tok string) error {
	if p.tok != tok {
		if p.tok == "" {
			return p.errorf("expected %q, got end of input", tok)
		}
		return p.errorf("expected %q, got %q", tok, p.tok)
	}
	p.next()
	return nil
}

func (p *typeParser) parseType() (TypeRef, error) {
	switch {
	case p.tok == "":
		return nil, p.errorf("expected type, got end of input")
	case p.tok == "(":
		p.next()
		elems, err := p.parseList(")")
		if err != nil {
			return nil, err
		}
		return Tuple{Elems: elems}, nil
	case p.tok == "vector":
		p.next()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errorf("vector takes 1 type argument, got %d", len(args))
		}
		return Vector{Elem: args[0]}, nil
	case !isIdentChar(p.tok[0]):
		return nil, p.errorf("unexpected %q", p.tok)
	}

	first := p.tok
	p.next()
	if p.tok != "::" {
		if kind, ok := PrimitiveByName(first); ok {
			return Primitive{Kind: kind}, nil
		}
		for i, name := range p.scope.Params {
			if name == first {
				return TypeParam{Index: i}, nil
			}
		}
		if idx, ok := positionalParam(first); ok {
			return TypeParam{Index: idx}, nil
		}
		if p.scope.Module == "" {
			return nil, p.errorf("unknown type %q", first)
		}
		return p.parseDatatype(p.scope.Address, p.scope.Module, first)
	}

	p.next()
	second := p.tok
	if second == "" || !isIdentChar(second[0]) {
		return nil, p.errorf("expected identifier after %q::", first)
	}
	p.next()
	if p.tok != "::" {
		// module::Name within the scope's address
		if p.scope.Address == "" {
			return nil, p.errorf("%s::%s needs an address", first, second)
		}
		return p.parseDatatype(p.scope.Address, first, second)
	}

	p.next()
	name := p.tok
	if name == "" || !isIdentChar(name[0]) {
		return nil, p.errorf("expected type name after %s::%s::", first, second)
	}
	p.next()
	addr, err := ParseAddress(first)
	if err != nil {
		return nil, errors.WithDetailf(err, "type %q", p.src)
	}
	return p.parseDatatype(addr, second, name)
}

// positionalParam accepts $0 style references when the scope does not name
// its parameters.
func positionalParam(s string) (int, bool) {
	if !strings.HasPrefix(s, "$") {
		return 0, false
	}
	digits := s[1:]
	if digits == "" {
		return 0, false
	}
	n := 0
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (p *typeParser) parseDatatype(addr Address, module, name string) (TypeRef, error) {
	d := Datatype{Address: addr, Module: module, Name: name}
	if p.tok == "<" {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		d.TypeArgs = args
	}
	return NormalizeDatatype(d), nil
}

func (p *typeParser) parseArgs() ([]TypeRef, error) {
	if err := p.expect("<"); err != nil {
		return nil, err
	}
	return p.parseList(">")
}

func (p *typeParser) parseList(closer string) ([]TypeRef, error) {
	var out []TypeRef
	if p.tok == closer {
		p.next()
		return out, nil
	}
	for {
		ref, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
		if p.tok == "," {
			p.next()
			continue
		}
		if err := p.expect(closer); err != nil {
			return nil, err
		}
		return out, nil
	}
}
