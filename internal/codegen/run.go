package codegen

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/okra-platform/movegen/internal/codegen/target"
	"github.com/okra-platform/movegen/internal/errors"
)

// Job is one target to generate.
type Job struct {
	Language string
	Options  Options
	Input    *target.Input
}

// Run generates every job. Jobs share no mutable state and run concurrently;
// each gets its own generator instance. Results are returned in job order.
// An error is returned only when a whole job could not run, in which case
// the other jobs are cancelled.
func Run(ctx context.Context, registry *Registry, jobs []Job) ([]*target.Result, error) {
	results := make([]*target.Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gen, err := registry.Get(job.Language, job.Options)
			if err != nil {
				return errors.Wrapf(err, "target %s", job.Input.Name)
			}
			res, err := gen.Generate(job.Input)
			if err != nil {
				return errors.Wrapf(err, "target %s", job.Input.Name)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
