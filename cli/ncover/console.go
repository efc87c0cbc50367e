package ncover

// console.go contains utilities for building NCover.Console command lines.

import (
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/urfave/cli/v2"
)

// ConsoleExeName is the profiler executable shipped with NCover.
const ConsoleExeName = "NCover.Console.exe"

// Filters restricts what NCover instruments. Each value is an opaque
// semicolon-separated pattern list in NCover's own syntax.
type Filters struct {
	AssemblyIncludes  string `json:"assembly_includes,omitempty" yaml:"assembly_includes,omitempty"`
	AssemblyExcludes  string `json:"assembly_excludes,omitempty" yaml:"assembly_excludes,omitempty"`
	AttributeIncludes string `json:"attribute_includes,omitempty" yaml:"attribute_includes,omitempty"`
	AttributeExcludes string `json:"attribute_excludes,omitempty" yaml:"attribute_excludes,omitempty"`
	SourceIncludes    string `json:"source_includes,omitempty" yaml:"source_includes,omitempty"`
	SourceExcludes    string `json:"source_excludes,omitempty" yaml:"source_excludes,omitempty"`
	TypeIncludes      string `json:"type_includes,omitempty" yaml:"type_includes,omitempty"`
	TypeExcludes      string `json:"type_excludes,omitempty" yaml:"type_excludes,omitempty"`
}

type filterArg struct {
	flag  string
	value string
}

// args returns the filter flags in the order NCover's argument grammar expects.
func (f Filters) args() []filterArg {
	return []filterArg{
		{"//ias", f.AssemblyIncludes},
		{"//eas", f.AssemblyExcludes},
		{"//ia", f.AttributeIncludes},
		{"//ea", f.AttributeExcludes},
		{"//if", f.SourceIncludes},
		{"//ef", f.SourceExcludes},
		{"//it", f.TypeIncludes},
		{"//et", f.TypeExcludes},
	}
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	for _, a := range f.args() {
		if a.value != "" {
			return false
		}
	}
	return true
}

// ConsoleOptions contains options for an NCover.Console profiling run.
type ConsoleOptions struct {
	Target      string   // Executable to profile
	TargetArgs  []string // Arguments for the target
	BuildID     string   // Build identifier (//bi)
	Application string   // Profiled application name (//p)
	Filters     Filters
	OutputPath  string // Coverage data file to write (//x)
}

// BuildConsoleArgs builds NCover.Console arguments.
func BuildConsoleArgs(opts ConsoleOptions) []string {
	args := make([]string, 0, len(opts.TargetArgs)+16)

	if opts.Target != "" {
		args = append(args, opts.Target)
		args = append(args, opts.TargetArgs...)
	}

	args = append(args, "//bi", opts.BuildID)
	args = append(args, "//p", opts.Application)

	for _, f := range opts.Filters.args() {
		if f.value != "" {
			args = append(args, f.flag, f.value)
		}
	}

	args = append(args, "//x", opts.OutputPath)

	return args
}

// BuildCommand renders an executable and its arguments as a single
// shell-escaped string, for logging and run records.
func BuildCommand(exe string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellescape.Quote(exe))

	for _, arg := range args {
		parts = append(parts, shellescape.Quote(arg))
	}

	return strings.Join(parts, " ")
}

// FilterFlags returns the eight include/exclude flags.
func FilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "assembly-include", Usage: "Assemblies to include in analysis (semicolon-separated)"},
		&cli.StringFlag{Name: "assembly-exclude", Usage: "Assemblies to exclude from analysis (semicolon-separated)"},
		&cli.StringFlag{Name: "attribute-include", Usage: "Attributes to include in analysis (semicolon-separated)"},
		&cli.StringFlag{Name: "attribute-exclude", Usage: "Attributes to exclude from analysis (semicolon-separated)"},
		&cli.StringFlag{Name: "source-include", Usage: "Source files to include in analysis (semicolon-separated)"},
		&cli.StringFlag{Name: "source-exclude", Usage: "Source files to exclude from analysis (semicolon-separated)"},
		&cli.StringFlag{Name: "type-include", Usage: "Types to include in analysis (semicolon-separated)"},
		&cli.StringFlag{Name: "type-exclude", Usage: "Types to exclude from analysis (semicolon-separated)"},
	}
}

// FiltersFromContext reads the flags registered by FilterFlags.
func FiltersFromContext(ctx *cli.Context) Filters {
	return Filters{
		AssemblyIncludes:  ctx.String("assembly-include"),
		AssemblyExcludes:  ctx.String("assembly-exclude"),
		AttributeIncludes: ctx.String("attribute-include"),
		AttributeExcludes: ctx.String("attribute-exclude"),
		SourceIncludes:    ctx.String("source-include"),
		SourceExcludes:    ctx.String("source-exclude"),
		TypeIncludes:      ctx.String("type-include"),
		TypeExcludes:      ctx.String("type-exclude"),
	}
}
