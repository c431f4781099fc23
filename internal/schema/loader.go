package schema

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okra-platform/movegen/internal/errors"
)

// Format names an input description format
type Format string

const (
	// FormatMovegen is movegen's own YAML/JSON description
	FormatMovegen Format = "movegen"
	// FormatNormalized is the normalized module JSON served by Sui full nodes
	FormatNormalized Format = "normalized"
)

// LoadFile reads a package description from path. When format is empty it is
// detected from the file extension and contents.
func LoadFile(path string, format Format) ([]*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	if format == "" {
		format = DetectFormat(path, data)
	}

	var pkgs []*Package
	switch format {
	case FormatMovegen:
		pkgs, err = ParseDescription(data)
	case FormatNormalized:
		var pkg *Package
		pkg, err = ParseNormalized(data)
		if pkg != nil {
			pkgs = []*Package{pkg}
		}
	default:
		return nil, errors.Newf("unknown input format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return pkgs, nil
}

// DetectFormat guesses the description format of a file.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatMovegen
	}
	if bytes.Contains(data, []byte(`"fileFormatVersion"`)) || bytes.Contains(data, []byte(`"structs"`)) {
		return FormatNormalized
	}
	return FormatMovegen
}

type descriptionFile struct {
	Packages []packageDesc `yaml:"packages"`
	packageDesc `yaml:",inline"`
}

type packageDesc struct {
	Address string       `yaml:"address"`
	Modules []moduleDesc `yaml:"modules"`
}

type moduleDesc struct {
	Name  string     `yaml:"name"`
	Types []typeDesc `yaml:"types"`
}

type typeDesc struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"`
	TypeParams []string      `yaml:"type_params"`
	Fields     []fieldDesc   `yaml:"fields"`
	Variants   []variantDesc `yaml:"variants"`
}

type fieldDesc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type variantDesc struct {
	Name    string      `yaml:"name"`
	Payload []string    `yaml:"payload"`
	Fields  []fieldDesc `yaml:"fields"`
}

// ParseDescription decodes movegen's description format. A document holds
// either a single package (address + modules) or a list under "packages".
// Type strings use Move syntax and may be partially qualified relative to the
// enclosing module.
func ParseDescription(data []byte) ([]*Package, error) {
	var file descriptionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid description"), errors.ErrMalformedInput)
	}
	descs := file.Packages
	if file.Address != "" || len(file.Modules) > 0 {
		descs = append([]packageDesc{file.packageDesc}, descs...)
	}
	if len(descs) == 0 {
		return nil, errors.Mark(errors.New("description declares no packages"), errors.ErrMalformedInput)
	}

	pkgs := make([]*Package, 0, len(descs))
	for _, pd := range descs {
		pkg, err := pd.build()
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

func (pd packageDesc) build() (*Package, error) {
	addr, err := ParseAddress(pd.Address)
	if err != nil {
		return nil, err
	}
	pkg := &Package{Address: addr}
	for _, md := range pd.Modules {
		m := &Module{Address: addr, Name: md.Name}
		if md.Name == "" {
			return nil, errors.Mark(errors.Newf("package %s has a module without a name", addr.Short()), errors.ErrMalformedInput)
		}
		for _, td := range md.Types {
			def, err := td.build(addr, md.Name)
			if err != nil {
				return nil, err
			}
			m.Types = append(m.Types, def)
		}
		pkg.Modules = append(pkg.Modules, m)
	}
	return pkg, nil
}

func (td typeDesc) build(addr Address, module string) (*TypeDef, error) {
	where := Location{Module: ModuleID{Address: addr, Name: module}, Type: td.Name}
	def := &TypeDef{Name: td.Name, TypeParams: td.TypeParams}
	scope := Scope{Params: td.TypeParams, Address: addr, Module: module}

	switch td.Kind {
	case "", "struct":
		def.Kind = KindStruct
		if len(td.Variants) > 0 {
			def.Kind = KindEnum
		}
	case "enum":
		def.Kind = KindEnum
	default:
		return nil, where.Wrap(errors.Newf("unknown kind %q", td.Kind), errors.ErrMalformedInput)
	}

	for i, fd := range td.Fields {
		fw := where
		fw.Field = fd.Name
		fw.Index = i
		ref, err := parseFieldType(fd.Type, scope, fw)
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, Field{Name: fd.Name, Type: ref})
	}

	for i, vd := range td.Variants {
		vw := where
		vw.Variant = vd.Name
		vw.Index = i
		v := Variant{Name: vd.Name}
		if len(vd.Payload) > 0 && len(vd.Fields) > 0 {
			return nil, vw.Wrap(errors.New("variant declares both payload and fields"), errors.ErrMalformedInput)
		}
		for _, p := range vd.Payload {
			ref, err := parseFieldType(p, scope, vw)
			if err != nil {
				return nil, err
			}
			v.Payload = append(v.Payload, ref)
		}
		for _, fd := range vd.Fields {
			fw := vw
			fw.Field = fd.Name
			ref, err := parseFieldType(fd.Type, scope, fw)
			if err != nil {
				return nil, err
			}
			v.Payload = append(v.Payload, ref)
			v.FieldNames = append(v.FieldNames, fd.Name)
		}
		def.Variants = append(def.Variants, v)
	}
	return def, nil
}

func parseFieldType(s string, scope Scope, where Location) (TypeRef, error) {
	if strings.TrimSpace(s) == "" {
		return nil, where.Wrap(errors.New("missing type"), errors.ErrMalformedInput)
	}
	ref, err := ParseTypeRef(s, scope)
	if err != nil {
		return nil, where.Wrap(err, nil)
	}
	return ref, nil
}
