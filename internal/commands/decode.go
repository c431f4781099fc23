package commands

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/okra-platform/movegen/internal/bcs"
	"github.com/okra-platform/movegen/internal/codec"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/schema"
)

type DecodeOptions struct {
	// Type is a fully qualified Move type, e.g. 0x2::coin::Coin<0x2::sui::SUI>
	Type string
	// Hex holds the encoded bytes, with or without a 0x prefix
	Hex string
	// Inputs are description files; the config's inputs are used when empty
	Inputs []string
	Format schema.Format
}

// DecodeCommand decodes BCS bytes against package descriptions and prints
// the value as JSON
type DecodeCommand struct {
	deps Dependencies
}

func NewDecodeCommand(deps Dependencies) *DecodeCommand {
	return &DecodeCommand{deps: deps}
}

// Execute runs the decode command
func (dc *DecodeCommand) Execute(ctx context.Context, opts DecodeOptions) error {
	if opts.Type == "" {
		return errors.New("a type is required")
	}
	data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(opts.Hex), "0x"))
	if err != nil {
		return errors.Wrap(err, "invalid hex input")
	}

	inputs := opts.Inputs
	if len(inputs) == 0 {
		cfg, root, err := dc.deps.ConfigLoader.LoadConfig()
		if err != nil {
			return errors.WithHint(errors.Wrap(err, "failed to load project config"), "pass --input to decode without a config")
		}
		inputs = cfg.InputFiles(root)
	}

	idx, err := loadIndex(inputs, opts.Format)
	if err != nil {
		return err
	}
	c, err := codec.NewBuilder(idx).Parse(opts.Type)
	if err != nil {
		return errors.Wrapf(err, "no codec for %s", opts.Type)
	}
	dc.deps.Logger.Debug().Str("codec", c.Name()).Int("bytes", len(data)).Msg("decoding")

	value, err := bcs.Unmarshal(c, data)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode value")
	}
	dc.deps.Output.Println(string(out))
	return nil
}

// loadIndex indexes every package of the given files. A package described
// by several files is taken from the first.
func loadIndex(paths []string, format schema.Format) (*schema.Index, error) {
	var pkgs []*schema.Package
	seen := make(map[schema.Address]bool)
	for _, path := range paths {
		loaded, err := schema.LoadFile(path, format)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			if !seen[p.Address] {
				seen[p.Address] = true
				pkgs = append(pkgs, p)
			}
		}
	}
	return schema.NewIndex(pkgs)
}
