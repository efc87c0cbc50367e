package coverage

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/perfgo/coverpipe/cli/ncover"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner imitates NCover: the console writes the data file and the
// reporting tool writes an HTML report into its output directory.
type fakeRunner struct {
	calls        []Command
	fail         map[string]error
	skipEntry    bool
	dataFileSeen bool
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) error {
	f.calls = append(f.calls, cmd)
	exe := filepath.Base(cmd.Path)
	if err := f.fail[exe]; err != nil {
		return err
	}

	switch exe {
	case ncover.ConsoleExeName:
		return os.WriteFile(argAfter(cmd.Args, "//x"), []byte("<coverage/>"), 0644)
	case ncover.ReportingExeName:
		if _, err := os.Stat(cmd.Args[0]); err == nil {
			f.dataFileSeen = true
		}
		outDir := argAfter(cmd.Args, "//op")
		if err := os.MkdirAll(filepath.Join(outDir, "images"), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, "images", "bar.png"), []byte("png"), 0644); err != nil {
			return err
		}
		if f.skipEntry {
			return nil
		}
		entry := strings.ToLower(argAfter(cmd.Args, "//or")) + ".html"
		return os.WriteFile(filepath.Join(outDir, entry), []byte("<html></html>"), 0644)
	}
	return nil
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

type fixture struct {
	tool     ncover.ToolLocation
	tempDir  string
	jobDir   string
	runner   *fakeRunner
	pipeline *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	toolDir := t.TempDir()
	for _, exe := range []string{ncover.ConsoleExeName, ncover.ReportingExeName} {
		require.NoError(t, os.WriteFile(filepath.Join(toolDir, exe), nil, 0755))
	}

	f := &fixture{
		tool:    ncover.ToolLocation{Path: toolDir, Source: ncover.LocationConfigured},
		tempDir: t.TempDir(),
		jobDir:  t.TempDir(),
		runner:  &fakeRunner{fail: map[string]error{}},
	}
	f.pipeline = NewPipeline(zerolog.Nop(), f.tool, f.runner, WithTempDir(f.tempDir))
	return f
}

func (f *fixture) job() Job {
	return Job{BuildID: "17", Application: "App", SourceDir: f.jobDir, TargetDir: f.jobDir}
}

func (f *fixture) assertTempDirEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary resources left behind")
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPipelineRun_EndToEnd(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		ReportType: ncover.FullCoverageReport,
	}, f.job())
	require.NoError(t, err)

	require.Len(t, f.runner.calls, 2)
	console, reporting := f.runner.calls[0], f.runner.calls[1]

	dataFile := argAfter(console.Args, "//x")
	require.NotEmpty(t, dataFile)
	assert.Equal(t, f.tempDir, filepath.Dir(dataFile))

	assert.Equal(t, f.tool.ConsoleExe(), console.Path)
	assert.Equal(t, f.jobDir, console.Dir)
	if diff := cmp.Diff([]string{"build.exe", "//bi", "17", "//p", "App", "//x", dataFile}, console.Args); diff != "" {
		t.Errorf("console args mismatch (-want +got):\n%s", diff)
	}

	reportDir := argAfter(reporting.Args, "//op")
	assert.Equal(t, f.tool.ReportingExe(), reporting.Path)
	assert.Equal(t, f.jobDir, reporting.Dir)
	if diff := cmp.Diff([]string{dataFile, "//bi", "17", "//p", "App", "//op", reportDir, "//or", "FullCoverageReport"}, reporting.Args); diff != "" {
		t.Errorf("reporting args mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, f.runner.dataFileSeen, "reporting must run after the data file is written")

	assert.Equal(t, "NCover Full Coverage Report", res.Label)
	assert.Equal(t, FormatZippedHTML, res.Format)
	assert.Equal(t, "fullcoveragereport.html", res.EntryPoint)
	assert.Empty(t, res.DataFile)
	assert.Contains(t, zipNames(t, res.Archive), "fullcoveragereport.html")
	assert.Contains(t, zipNames(t, res.Archive), "images/bar.png")

	assert.NoFileExists(t, dataFile)
	assert.NoDirExists(t, reportDir)
	f.assertTempDirEmpty(t)
}

func TestPipelineRun_SuppliedDataFileIsKept(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		Arguments:  `/verbose 'C:\My Tests'`,
		DataFile:   "coverage.xml",
		ReportType: ncover.Summary,
	}, f.job())
	require.NoError(t, err)

	want := filepath.Join(f.jobDir, "coverage.xml")
	console := f.runner.calls[0]
	assert.Equal(t, []string{"build.exe", "/verbose", `C:\My Tests`}, console.Args[:3])
	assert.Equal(t, want, argAfter(console.Args, "//x"))
	assert.Equal(t, want, res.DataFile)
	assert.FileExists(t, want)
	f.assertTempDirEmpty(t)
}

func TestPipelineRun_AbsoluteDataFile(t *testing.T) {
	f := newFixture(t)
	abs := filepath.Join(t.TempDir(), "cov.xml")

	_, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		DataFile:   abs,
		ReportType: ncover.Summary,
	}, f.job())
	require.NoError(t, err)
	assert.FileExists(t, abs)
}

func TestPipelineRun_OutputNameOverridesLabel(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		ReportType: ncover.SymbolCCByGroup,
		OutputName: "Nightly Complexity",
	}, f.job())
	require.NoError(t, err)
	assert.Equal(t, "Nightly Complexity", res.Label)
	assert.Contains(t, zipNames(t, res.Archive), "symbolccbygroup.html")
}

func TestPipelineRun_FiltersAreForwarded(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		ReportType: ncover.Summary,
		Filters: ncover.Filters{
			AssemblyIncludes: "App.*",
			TypeExcludes:     "*Tests",
		},
	}, f.job())
	require.NoError(t, err)

	args := f.runner.calls[0].Args
	assert.Equal(t, "App.*", argAfter(args, "//ias"))
	assert.Equal(t, "*Tests", argAfter(args, "//et"))
	assert.Empty(t, argAfter(args, "//eas"))
}

func TestPipelineRun_ProfilerFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.fail[ncover.ConsoleExeName] = &ProcessError{Path: ncover.ConsoleExeName, ExitCode: 2}

	res, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		ReportType: ncover.FullCoverageReport,
	}, f.job())
	require.Error(t, err)

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, 2, procErr.ExitCode)
	assert.Empty(t, res.Archive)

	require.Len(t, f.runner.calls, 1, "reporting must not run after a profiler failure")
	assert.NoFileExists(t, argAfter(f.runner.calls[0].Args, "//x"))
	f.assertTempDirEmpty(t)
}

func TestPipelineRun_ReportingFailureRemovesReportDir(t *testing.T) {
	f := newFixture(t)
	f.runner.fail[ncover.ReportingExeName] = &ProcessError{Path: ncover.ReportingExeName, ExitCode: 1}

	dataFile := filepath.Join(f.jobDir, "keep.xml")
	_, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		DataFile:   dataFile,
		ReportType: ncover.Summary,
	}, f.job())
	require.Error(t, err)

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))

	require.Len(t, f.runner.calls, 2)
	assert.NoDirExists(t, argAfter(f.runner.calls[1].Args, "//op"))
	assert.FileExists(t, dataFile)
	f.assertTempDirEmpty(t)
}

func TestPipelineRun_MissingEntryPoint(t *testing.T) {
	f := newFixture(t)
	f.runner.skipEntry = true

	_, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		ReportType: ncover.Summary,
	}, f.job())
	require.ErrorIs(t, err, ErrReportOutput)
	f.assertTempDirEmpty(t)
}

func TestPipelineRun_ToolNotFound(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.tool.ReportingExe()))

	_, err := f.pipeline.Run(context.Background(), RunConfig{
		Target:     "build.exe",
		ReportType: ncover.Summary,
	}, f.job())
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.Empty(t, f.runner.calls)
	f.assertTempDirEmpty(t)
}

func TestPipelineRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  RunConfig
		msg  string
	}{
		{"missing target", RunConfig{ReportType: ncover.Summary}, "target is required"},
		{"unknown report type", RunConfig{Target: "build.exe", ReportType: "unknown"}, `unknown report type "unknown"`},
		{"missing report type", RunConfig{Target: "build.exe"}, "reporttype is required"},
		{"unbalanced quotes", RunConfig{Target: "build.exe", ReportType: ncover.Summary, Arguments: `"open`}, "failed to parse arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.pipeline.Run(context.Background(), tt.cfg, f.job())
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Empty(t, f.runner.calls)
			f.assertTempDirEmpty(t)
		})
	}
}

func TestPipelineRun_UniqueTemporaryNames(t *testing.T) {
	f := newFixture(t)
	cfg := RunConfig{Target: "build.exe", ReportType: ncover.Summary}

	_, err := f.pipeline.Run(context.Background(), cfg, f.job())
	require.NoError(t, err)
	_, err = f.pipeline.Run(context.Background(), cfg, f.job())
	require.NoError(t, err)

	require.Len(t, f.runner.calls, 4)
	assert.NotEqual(t, argAfter(f.runner.calls[0].Args, "//x"), argAfter(f.runner.calls[2].Args, "//x"))
	assert.NotEqual(t, argAfter(f.runner.calls[1].Args, "//op"), argAfter(f.runner.calls[3].Args, "//op"))
}

func TestPipelineRun_CleanupFailureStillRemovesOtherResources(t *testing.T) {
	errBusy := errors.New("directory busy")

	tests := []struct {
		name           string
		failRemoval    func(t *testing.T, p *Pipeline)
		keepsReportDir bool
	}{
		{
			name: "report directory removal fails",
			failRemoval: func(t *testing.T, p *Pipeline) {
				p.removeAll = func(string) error {
					return errBusy
				}
			},
			keepsReportDir: true,
		},
		{
			name: "data file removal fails",
			failRemoval: func(t *testing.T, p *Pipeline) {
				p.remove = func(path string) error {
					require.NoError(t, os.Remove(path))
					return errBusy
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.failRemoval(t, f.pipeline)

			res, err := f.pipeline.Run(context.Background(), RunConfig{
				Target:     "build.exe",
				ReportType: ncover.FullCoverageReport,
			}, f.job())
			require.Error(t, err)
			assert.ErrorIs(t, err, errBusy)
			assert.Empty(t, res.Archive)
			assert.Empty(t, res.Label)

			require.Len(t, f.runner.calls, 2)
			assert.NoFileExists(t, argAfter(f.runner.calls[0].Args, "//x"))

			reportDir := argAfter(f.runner.calls[1].Args, "//op")
			if tt.keepsReportDir {
				assert.DirExists(t, reportDir)
				require.NoError(t, os.RemoveAll(reportDir))
			} else {
				assert.NoDirExists(t, reportDir)
			}
			f.assertTempDirEmpty(t)
		})
	}
}
