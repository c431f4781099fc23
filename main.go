package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/movegen/internal/commands"
	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/schema"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:    "movegen",
		Usage:   "Generate TypeScript BCS codecs from Move type descriptions",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("MOVEGEN_LOG_LEVEL"),
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to movegen.yaml (default: search upwards from the working directory)",
				Destination: &ctrl.Flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, errors.Wrap(err, "failed to parse log level")
			}

			ctrl.Flags.LogLevel = level.String()
			log.Logger = log.Level(level)
			ctrl.Logger = log.Logger.With().Timestamp().Logger()

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create a movegen.yaml in the current directory",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
			{
				Name:  "generate",
				Usage: "Generate codec files for every configured target",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Generate(ctx)
				},
			},
			{
				Name:  "check",
				Usage: "Fail if generated files are missing or out of date",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Check(ctx)
				},
			},
			{
				Name:  "watch",
				Usage: "Regenerate whenever a description changes",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx)
				},
			},
			{
				Name:      "decode",
				Usage:     "Decode BCS bytes as a Move type and print JSON",
				ArgsUsage: "<hex>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type",
						Aliases:  []string{"t"},
						Usage:    "fully qualified Move type, e.g. 0x2::coin::Coin<0x2::sui::SUI>",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "description file (repeatable); defaults to the config's inputs",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "input format (movegen, normalized); detected when empty",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Decode(ctx, commands.DecodeOptions{
						Type:   c.String("type"),
						Hex:    c.Args().First(),
						Inputs: c.StringSlice("input"),
						Format: schema.Format(c.String("format")),
					})
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		if hints := errors.FlattenHints(err); hints != "" {
			log.Error().Str("hint", hints).Msg("")
		}
		log.Fatal().Err(err).Msg("movegen failed")
	}
}
