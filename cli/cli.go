package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/perfgo/coverpipe/cli/ncover"
	"github.com/perfgo/coverpipe/config"
	"github.com/perfgo/coverpipe/coverage"
	"github.com/perfgo/coverpipe/history"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "coverpipe"

type App struct {
	logger zerolog.Logger
	cli    *cli.App

	// runner executes the NCover tools; nil means local child processes.
	runner coverage.Runner
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Generate NCover code coverage reports",
			Authors: []*cli.Author{
				{Name: "Christian Simon", Email: fmt.Sprintf("simon+%s@swine.de", AppName)},
			},
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "config",
					Usage:   "Path of the configuration file",
					Value:   config.DefaultPath(),
					EnvVars: []string{"COVERPIPE_CONFIG"},
				},
				&cli.StringFlag{
					Name:  "history-dir",
					Usage: "Directory reports are stored in (default: .coverpipe/history in the repository root)",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}

	runFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "target",
			Aliases:  []string{"t"},
			Usage:    "Executable to profile",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "args",
			Usage: "Arguments for the target, split using shell quoting rules (single-quote Windows paths)",
		},
		ncover.ReportTypeFlag(),
		&cli.StringFlag{
			Name:  "output-name",
			Usage: "Report label (default: NCover <report type>)",
		},
		&cli.StringFlag{
			Name:  "data-file",
			Usage: "Coverage data file to keep, relative to --target-dir (default: temporary file removed after the run)",
		},
		&cli.StringFlag{
			Name:  "build-id",
			Usage: "Build identifier passed to NCover (default: short git commit)",
		},
		&cli.StringFlag{
			Name:  "application",
			Usage: "Application name passed to NCover (default: repository name)",
		},
		&cli.StringFlag{
			Name:  "source-dir",
			Usage: "Working directory for NCover (default: current directory)",
		},
		&cli.StringFlag{
			Name:  "target-dir",
			Usage: "Base directory for a relative --data-file (default: --source-dir)",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Also write the zipped report to this file",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "Don't store the report in the history directory",
		},
	}
	runFlags = append(runFlags, ncover.FilterFlags()...)

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "run",
		Usage:  "Profile an executable with NCover and generate a zipped HTML report",
		Action: app.runCoverage,
		Flags:  runFlags,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "configure",
		Usage:  "Show or change the NCover installation used",
		Action: app.configure,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ncover-path",
				Usage: "NCover installation directory",
			},
			&cli.BoolFlag{
				Name:  "detect",
				Usage: "Look up the installed NCover directory again",
			},
			&cli.StringFlag{
				Name:  "set-history-dir",
				Usage: "Persist a history directory",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "report-types",
		Usage:  "List the report types NCover can generate",
		Action: app.reportTypes,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous coverage runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Filter by relative path (e.g., src/App)",
			},
			&cli.StringFlag{
				Name:    "report-type",
				Aliases: []string{"r"},
				Usage:   "Filter by report type",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "Show a stored coverage report",
		ArgsUsage:       "[ID|INDEX] [--extract DIR]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `Show a stored coverage report.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  -2          View 3rd last run
  <hex-id>    View run matching the hex ID prefix

Flags:
  -x, --extract DIR   Extract the report archive into DIR

Examples:
  coverpipe view                     # Show last run
  coverpipe view -1                  # Show 2nd last run
  coverpipe view abc123 -x ./report  # Extract run abc123 and print its HTML entry point`,
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

func (a *App) loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.String("config")
	cfg, err := config.Load(a.logger, path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().
		Str("config", path).
		Str("ncover", cfg.NCover.Path).
		Str("source", string(cfg.NCover.Source)).
		Msg("Loaded configuration")
	return cfg, nil
}

// historyStore opens the report history. repoRoot is the git repository root
// of the working directory, or "" outside a repository.
func (a *App) historyStore(ctx *cli.Context, cfg *config.Config, repoRoot string) (*history.Store, error) {
	root := ctx.String("history-dir")
	if root == "" && cfg != nil {
		root = cfg.HistoryDir
	}
	if root == "" {
		var err error
		root, err = history.DefaultRoot(repoRoot)
		if err != nil {
			return nil, err
		}
	}
	return history.NewStore(a.logger, root), nil
}

func (a *App) coverageRunner() coverage.Runner {
	if a.runner != nil {
		return a.runner
	}
	return coverage.NewExecRunner(a.logger)
}
