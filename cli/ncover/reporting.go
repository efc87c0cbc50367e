package ncover

// reporting.go contains utilities for building NCover.Reporting command lines.

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// ReportingExeName is the report generator executable shipped with NCover.
const ReportingExeName = "NCover.Reporting.exe"

// ReportingOptions contains options for an NCover.Reporting run.
type ReportingOptions struct {
	DataFile    string // Coverage data file produced by the console
	BuildID     string // Build identifier (//bi)
	Application string // Profiled application name (//p)
	OutputDir   string // Directory the HTML report is written to (//op)
	ReportType  string // Report type machine name (//or)
}

// BuildReportingArgs builds NCover.Reporting arguments.
func BuildReportingArgs(opts ReportingOptions) []string {
	return []string{
		opts.DataFile,
		"//bi", opts.BuildID,
		"//p", opts.Application,
		"//op", opts.OutputDir,
		"//or", opts.ReportType,
	}
}

// ReportTypeFlag returns the report type flag.
func ReportTypeFlag() cli.Flag {
	names := make([]string, 0, len(catalog))
	for _, rt := range catalog {
		names = append(names, rt.Name)
	}
	return &cli.StringFlag{
		Name:    "report-type",
		Aliases: []string{"r"},
		Usage:   "Report to generate (" + strings.Join(names, ", ") + ")",
		Value:   FullCoverageReport,
	}
}
