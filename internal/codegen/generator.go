package codegen

import "github.com/okra-platform/movegen/internal/codegen/target"

// Generator is the interface that all language-specific code generators must implement
type Generator interface {
	// Generate renders every generated module of the input. Per-module
	// failures are reported in the result, not as an error.
	Generate(in *target.Input) (*target.Result, error)

	// Language returns the name of the target language (e.g., "typescript")
	Language() string

	// FileExtension returns the file extension for generated files (e.g., ".ts")
	FileExtension() string
}

// Options contains common options for code generation
type Options struct {
	// Runtime is the codec library generated code imports
	Runtime string
}
