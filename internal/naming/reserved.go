package naming

import "strconv"

// Words that cannot be used as a bare identifier in generated code: TypeScript
// reserved and contextual keywords, the runtime's own binding and the names
// of the primitive codec constructors.
var reserved = map[string]bool{
	// keywords
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "as": true, "implements": true, "interface": true, "let": true,
	"package": true, "private": true, "protected": true, "public": true,
	"static": true, "yield": true, "any": true, "boolean": true, "constructor": true,
	"declare": true, "get": true, "module": true, "require": true, "number": true,
	"set": true, "string": true, "symbol": true, "type": true, "from": true,
	"of": true, "async": true, "await": true, "namespace": true, "never": true,
	"unknown": true, "object": true, "bigint": true, "undefined": true,
	"arguments": true, "eval": true,

	// runtime bindings and primitive constructors
	"bcs": true, "BcsType": true, "u8": true, "u16": true, "u32": true,
	"u64": true, "u128": true, "u256": true, "bool": true, "address": true,
	"vector": true, "option": true, "tuple": true, "lazy": true,
}

// IsReserved reports whether name cannot be used as a bare identifier.
func IsReserved(name string) bool {
	return reserved[name]
}

// TypeIdent returns the identifier under which a type constructor is exported.
func TypeIdent(name string) string {
	id := Sanitize(name, "Type")
	if IsReserved(id) {
		id += "_"
	}
	return id
}

// ParamIdent returns the identifier of the generic parameter at position i.
func ParamIdent(i int) string {
	return "T" + strconv.Itoa(i)
}
