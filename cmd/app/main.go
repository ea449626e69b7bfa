package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wormbox/internal"
	"github.com/starford/wormbox/internal/apperr"
	pkgconfig "github.com/starford/wormbox/pkg/config"
)

// loadConfig reads the config file when present and applies the flags
// shared by every command on top of it.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	found, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	if cmd.IsSet("folder") {
		cfg.Data.Folder = cmd.String("folder")
	}
	if cmd.IsSet("suffix") {
		cfg.Data.Suffix = cmd.String("suffix")
	}
	if cmd.IsSet("aspects") {
		cfg.Aspects.File = cmd.String("aspects")
	}
	if cmd.IsSet("output") {
		cfg.Output.Name = cmd.String("output")
	}
	if cmd.IsSet("no-prompt") {
		cfg.Output.Interactive = !cmd.Bool("no-prompt")
	}
	if cmd.IsSet("history") {
		cfg.SQLite.Enabled = cmd.Bool("history")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func runMode(mode internal.Mode) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithMode(mode),
		}
		if mode == internal.ModeRuns {
			opts = append(opts, internal.WithLimit(int(cmd.Int("limit"))))
		}

		if err := internal.Run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "wormbox",
		Usage:  "Landmark morphometrics: evaluate aspects per image and summarize them across a folder",
		Action: runMode(internal.ModeAnalyze),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "folder",
				Aliases: []string{"f"},
				Usage:   "Data folder holding the coordinate files",
				Sources: cli.EnvVars("WORMBOX_FOLDER"),
			},
			&cli.StringFlag{
				Name:  "suffix",
				Usage: "Suffix of coordinate file names",
			},
			&cli.StringFlag{
				Name:    "aspects",
				Aliases: []string{"a"},
				Usage:   "Aspects file, relative to the data folder or absolute",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report name; .csv is appended",
			},
			&cli.BoolFlag{
				Name:  "no-prompt",
				Usage: "Never ask for the aspects file or the output name",
			},
			&cli.BoolFlag{
				Name:  "history",
				Usage: "Record runs in the SQLite run history",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Evaluate the aspects once and write the report (default)",
				Action: runMode(internal.ModeAnalyze),
			},
			{
				Name:   "watch",
				Usage:  "Re-run the analysis whenever coordinate files or the aspects file change",
				Action: runMode(internal.ModeWatch),
			},
			{
				Name:   "serve",
				Usage:  "Serve the REST API and watch the data folder",
				Action: runMode(internal.ModeServe),
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools on stdio",
				Action: runMode(internal.ModeMCP),
			},
			{
				Name:   "runs",
				Usage:  "List recorded runs of the data folder",
				Action: runMode(internal.ModeRuns),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs",
						Value: 20,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, apperr.ErrCanceled) {
			fmt.Fprintln(os.Stderr, "aborting")
			os.Exit(1)
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
