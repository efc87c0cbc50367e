package coverage

// pipeline.go runs NCover.Console and NCover.Reporting in sequence and
// packages the generated HTML report.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/perfgo/coverpipe/cli/ncover"
	"github.com/rs/zerolog"
)

// FormatZippedHTML tags an archive holding an HTML report directory.
const FormatZippedHTML = "zipped-html"

// ErrReportOutput is returned when NCover.Reporting finished but did not
// produce the expected HTML entry point.
var ErrReportOutput = errors.New("report output missing")

// Job carries the build context a run executes in.
type Job struct {
	BuildID     string
	Application string
	SourceDir   string // Working directory for both NCover processes
	TargetDir   string // Base for relative data file paths
}

// Result is the packaged output of a successful run.
type Result struct {
	Archive    []byte
	Label      string
	Format     string
	ReportType ncover.ReportType
	EntryPoint string

	ConsoleCommand   string
	ReportingCommand string
	// DataFile is set when the data file was supplied by the caller and
	// therefore still exists after the run.
	DataFile string
	Duration time.Duration
}

// Pipeline profiles a target with NCover and builds a zipped report.
type Pipeline struct {
	logger  zerolog.Logger
	tool    ncover.ToolLocation
	runner  Runner
	tempDir string

	remove    func(string) error
	removeAll func(string) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTempDir sets the directory temporary data files and report
// directories are created in.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) {
		p.tempDir = dir
	}
}

// NewPipeline creates a pipeline that runs the NCover executables found in
// tool through runner.
func NewPipeline(logger zerolog.Logger, tool ncover.ToolLocation, runner Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: logger,
		tool:   tool,
		runner: runner,

		remove:    os.Remove,
		removeAll: os.RemoveAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one coverage run. Temporary resources are removed on every
// exit path; a failure in any step fails the whole run and no result is
// returned.
func (p *Pipeline) Run(ctx context.Context, cfg RunConfig, job Job) (res Result, err error) {
	startTime := time.Now()

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	reportType, _ := ncover.LookupReportType(cfg.ReportType)

	targetArgs, err := cfg.TargetArgs()
	if err != nil {
		return Result{}, err
	}

	if err := p.checkTools(); err != nil {
		return Result{}, err
	}

	run, err := Resolve(cfg, job.TargetDir, p.tempDir)
	if err != nil {
		return Result{}, err
	}
	if run.OwnsDataFile {
		defer func() {
			if rmErr := p.remove(run.DataFilePath); rmErr != nil && !os.IsNotExist(rmErr) {
				p.logger.Warn().Err(rmErr).Str("file", run.DataFilePath).Msg("Failed to clean up coverage data file")
				err = errors.Join(err, fmt.Errorf("failed to remove coverage data file: %w", rmErr))
			} else {
				p.logger.Debug().Str("file", run.DataFilePath).Msg("Cleaned up coverage data file")
			}
			if err != nil {
				res = Result{}
			}
		}()
	}

	console := Command{
		Path: p.tool.ConsoleExe(),
		Args: ncover.BuildConsoleArgs(ncover.ConsoleOptions{
			Target:      cfg.Target,
			TargetArgs:  targetArgs,
			BuildID:     job.BuildID,
			Application: job.Application,
			Filters:     cfg.Filters,
			OutputPath:  run.DataFilePath,
		}),
		Dir: job.SourceDir,
	}

	p.logger.Info().
		Str("target", cfg.Target).
		Str("data_file", run.DataFilePath).
		Msg("Profiling target with NCover")

	if err := p.runner.Run(ctx, console); err != nil {
		return Result{}, fmt.Errorf("failed to profile %s: %w", cfg.Target, err)
	}

	reportDir, err := p.createReportDir()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if rmErr := p.removeAll(reportDir); rmErr != nil {
			p.logger.Warn().Err(rmErr).Str("dir", reportDir).Msg("Failed to clean up report directory")
			err = errors.Join(err, fmt.Errorf("failed to remove report directory: %w", rmErr))
			res = Result{}
		} else {
			p.logger.Debug().Str("dir", reportDir).Msg("Cleaned up report directory")
		}
	}()

	reporting := Command{
		Path: p.tool.ReportingExe(),
		Args: ncover.BuildReportingArgs(ncover.ReportingOptions{
			DataFile:    run.DataFilePath,
			BuildID:     job.BuildID,
			Application: job.Application,
			OutputDir:   reportDir,
			ReportType:  reportType.Name,
		}),
		Dir: job.SourceDir,
	}

	p.logger.Info().
		Str("report_type", reportType.Name).
		Str("output", reportDir).
		Msg("Generating coverage report")

	if err := p.runner.Run(ctx, reporting); err != nil {
		return Result{}, fmt.Errorf("failed to generate %s report: %w", reportType.Name, err)
	}

	entryPoint := reportType.EntryPoint()
	if _, err := os.Stat(filepath.Join(reportDir, entryPoint)); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrReportOutput, entryPoint, err)
	}

	archive, err := ZipDirectory(reportDir)
	if err != nil {
		return Result{}, err
	}

	label := cfg.OutputName
	if label == "" {
		label = "NCover " + reportType.FriendlyName
	}

	res = Result{
		Archive:          archive,
		Label:            label,
		Format:           FormatZippedHTML,
		ReportType:       reportType,
		EntryPoint:       entryPoint,
		ConsoleCommand:   console.String(),
		ReportingCommand: reporting.String(),
		Duration:         time.Since(startTime),
	}
	if !run.OwnsDataFile {
		res.DataFile = run.DataFilePath
	}

	p.logger.Info().
		Str("label", label).
		Int("size_bytes", len(archive)).
		Msg("Coverage report packaged")

	return res, nil
}

func (p *Pipeline) checkTools() error {
	if p.tool.Path == "" {
		return fmt.Errorf("%w: ncover path is not configured", ErrToolNotFound)
	}
	for _, exe := range []string{p.tool.ConsoleExe(), p.tool.ReportingExe()} {
		info, err := os.Stat(exe)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrToolNotFound, exe)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrToolNotFound, exe)
		}
	}
	return nil
}

func (p *Pipeline) createReportDir() (string, error) {
	base := p.tempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, uuid.NewString())
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	return dir, nil
}
