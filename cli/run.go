package cli

// This file contains the run command: profiling a target with NCover,
// packaging the report and recording it in the history.

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/perfgo/coverpipe/cli/ncover"
	"github.com/perfgo/coverpipe/coverage"
	"github.com/perfgo/coverpipe/model"
	"github.com/urfave/cli/v2"
)

func (a *App) runCoverage(ctx *cli.Context) error {
	startTime := time.Now()

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	sourceDir := ctx.String("source-dir")
	if sourceDir == "" {
		if sourceDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	targetDir := ctx.String("target-dir")
	if targetDir == "" {
		targetDir = sourceDir
	}

	// Capture git info (non-fatal if it fails)
	gitInfo, gitErr := a.getGitInfo()
	if gitErr != nil {
		a.logger.Debug().Err(gitErr).Msg("No git information available")
	}

	job := coverage.Job{
		BuildID:     ctx.String("build-id"),
		Application: ctx.String("application"),
		SourceDir:   sourceDir,
		TargetDir:   targetDir,
	}
	if job.BuildID == "" {
		job.BuildID = defaultBuildID(gitInfo)
	}
	if job.Application == "" {
		job.Application = defaultApplication(gitInfo, sourceDir)
	}

	runCfg := coverage.RunConfig{
		Target:     ctx.String("target"),
		Arguments:  ctx.String("args"),
		DataFile:   ctx.String("data-file"),
		ReportType: ctx.String("report-type"),
		OutputName: ctx.String("output-name"),
		Filters:    ncover.FiltersFromContext(ctx),
	}

	// Generate random 16-byte ID
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return fmt.Errorf("failed to generate run ID: %w", err)
	}

	report := &model.Report{
		ID:          hex.EncodeToString(idBytes),
		Timestamp:   startTime,
		Args:        os.Args,
		WorkDir:     sourceDir,
		Git:         gitInfo,
		BuildID:     job.BuildID,
		Application: job.Application,
		Target:      runCfg.Target,
		Arguments:   runCfg.Arguments,
		ReportType:  runCfg.ReportType,
		Filters:     runCfg.Filters,
		Tool:        &cfg.NCover,
	}
	if gitInfo != nil && gitInfo.Root != "" {
		if rel, err := filepath.Rel(gitInfo.Root, sourceDir); err == nil {
			report.WorkDir = rel
		}
	}

	a.logger.Info().
		Str("target", runCfg.Target).
		Str("report_type", runCfg.ReportType).
		Str("build_id", job.BuildID).
		Str("application", job.Application).
		Str("ncover", cfg.NCover.Path).
		Msg("Starting coverage run")

	pipeline := coverage.NewPipeline(a.logger, cfg.NCover, a.coverageRunner())
	res, runErr := pipeline.Run(ctx.Context, runCfg, job)

	report.Duration = time.Since(startTime)
	if runErr != nil {
		report.ExitCode = exitCode(runErr)
		report.Error = runErr.Error()
		a.logger.Error().Err(runErr).Msg("Coverage run failed")
	} else {
		report.Label = res.Label
		report.Format = res.Format
		report.EntryPoint = res.EntryPoint
		report.Commands = []string{res.ConsoleCommand, res.ReportingCommand}
		report.DataFile = res.DataFile
	}

	// Configuration errors never reach NCover and are not worth a history entry
	if !ctx.Bool("no-history") && !errors.Is(runErr, coverage.ErrInvalidConfig) {
		root := ""
		if gitInfo != nil {
			root = gitInfo.Root
		}
		store, err := a.historyStore(ctx, cfg, root)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Failed to open history")
		} else if runDir, err := store.Record(report, res.Archive); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to record history")
		} else if runErr == nil {
			a.logger.Info().Str("dir", runDir).Msg("Report stored")
		}
	}

	if runErr != nil {
		return runErr
	}

	if out := ctx.String("out"); out != "" {
		if err := os.WriteFile(out, res.Archive, 0644); err != nil {
			return fmt.Errorf("failed to write report archive: %w", err)
		}
		a.logger.Info().Str("file", out).Msg("Report archive written")
	}

	fmt.Printf("%s (%s, %.1f KB, id=%s)\n", res.Label, res.EntryPoint, float64(len(res.Archive))/1024, report.ID[:8])
	return nil
}

func exitCode(err error) int {
	var procErr *coverage.ProcessError
	if errors.As(err, &procErr) && procErr.ExitCode > 0 {
		return procErr.ExitCode
	}
	return 1
}

func defaultBuildID(g *model.Git) string {
	if g != nil && len(g.Commit) >= 8 {
		return g.Commit[:8]
	}
	return "local"
}

func defaultApplication(g *model.Git, sourceDir string) string {
	if g != nil && g.Repo != "" {
		return g.Repo
	}
	return filepath.Base(sourceDir)
}
