package commands

import (
	"context"

	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/output"
)

// CheckCommand regenerates in memory and reports files on disk that are
// missing or out of date
type CheckCommand struct {
	deps Dependencies
}

func NewCheckCommand(deps Dependencies) *CheckCommand {
	return &CheckCommand{deps: deps}
}

// Execute runs the check command
func (cc *CheckCommand) Execute(ctx context.Context) error {
	cfg, root, err := cc.deps.ConfigLoader.LoadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load project config")
	}

	results, err := generateTargets(ctx, cc.deps, cfg, root)
	if err != nil {
		return err
	}

	stale, failed := 0, 0
	for i, res := range results {
		drift, err := output.Diff(cc.deps.FileSystem, cfg.Targets[i].OutputDir(root), res.Files)
		if err != nil {
			return errors.Wrapf(err, "target %s", res.Target)
		}
		for _, d := range drift {
			cc.deps.Output.Printf("  %s\n", d)
		}
		for _, f := range res.Failures {
			cc.deps.Output.Printf("  FAIL  %s: %v\n", f.Module, f.Err)
		}
		stale += len(drift)
		failed += len(res.Failures)
	}

	if failed > 0 {
		return errors.Newf("%d modules failed to generate", failed)
	}
	if stale > 0 {
		err := errors.Newf("%d generated files are out of date", stale)
		return errors.WithHint(err, "run movegen generate")
	}
	cc.deps.Output.Println("generated files are up to date")
	return nil
}
