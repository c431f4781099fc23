package codegen

import (
	"github.com/okra-platform/movegen/internal/codegen/typescript"
)

// DefaultRegistry is the global registry instance with pre-registered generators
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("typescript", func(opts Options) Generator {
		return typescript.NewGenerator(opts.Runtime)
	})

	// ts is an alias for typescript
	DefaultRegistry.Register("ts", func(opts Options) Generator {
		return typescript.NewGenerator(opts.Runtime)
	})
}
