package commands

import (
	"context"

	"github.com/okra-platform/movegen/internal/codegen"
	"github.com/okra-platform/movegen/internal/codegen/target"
	"github.com/okra-platform/movegen/internal/config"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/output"
)

// GenerateCommand regenerates every target and writes the files to disk
type GenerateCommand struct {
	deps Dependencies
}

func NewGenerateCommand(deps Dependencies) *GenerateCommand {
	return &GenerateCommand{deps: deps}
}

// Execute runs the generate command. Files of modules that generated are
// written even when other modules failed; the failures are then returned as
// an error.
func (gc *GenerateCommand) Execute(ctx context.Context) error {
	cfg, root, err := gc.deps.ConfigLoader.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load project config")
	}

	results, err := generateTargets(ctx, gc.deps, cfg, root)
	if err != nil {
		return err
	}

	writer := output.NewWriter(gc.deps.FileSystem, gc.deps.Logger)
	failed := 0
	for i, res := range results {
		dir := cfg.Targets[i].OutputDir(root)
		written, err := writer.Write(dir, res.Files)
		if err != nil {
			return errors.Wrapf(err, "target %s", res.Target)
		}
		gc.deps.Output.Printf("%s", res.Summary())
		gc.deps.Output.Printf("  %d of %d files updated in %s\n", len(written), len(res.Files), dir)
		failed += len(res.Failures)
	}

	if failed > 0 {
		return errors.Newf("%d modules failed to generate", failed)
	}
	return nil
}

// generateTargets runs every target of cfg. Results are in target order.
func generateTargets(ctx context.Context, deps Dependencies, cfg *config.Config, root string) ([]*target.Result, error) {
	inputs, err := cfg.LoadTargets(root, deps.Logger)
	if err != nil {
		return nil, err
	}

	jobs := make([]codegen.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = codegen.Job{
			Language: cfg.Language,
			Options:  codegen.Options{Runtime: cfg.Runtime},
			Input:    in,
		}
	}
	return codegen.Run(ctx, deps.Registry, jobs)
}
