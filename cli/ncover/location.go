package ncover

// location.go resolves the NCover installation directory.

import (
	"errors"
	"os"
	"path/filepath"
)

// LocationSource records how a tool location was obtained.
type LocationSource string

const (
	LocationDiscovered LocationSource = "discovered"
	LocationDefault    LocationSource = "default"
	LocationConfigured LocationSource = "configured"
)

const defaultProgramFiles = `C:\Program Files`

var errLookupUnsupported = errors.New("install directory lookup is not supported on this platform")

// ToolLocation is the directory NCover is installed in.
type ToolLocation struct {
	Path   string         `json:"path" yaml:"path"`
	Source LocationSource `json:"source" yaml:"source"`
}

// ConsoleExe returns the path of NCover.Console.exe.
func (l ToolLocation) ConsoleExe() string {
	return filepath.Join(l.Path, ConsoleExeName)
}

// ReportingExe returns the path of NCover.Reporting.exe.
func (l ToolLocation) ReportingExe() string {
	return filepath.Join(l.Path, ReportingExeName)
}

// ResolveToolLocation looks up the installed NCover directory and falls back
// to <Program Files>/NCover when the lookup fails for any reason.
func ResolveToolLocation() ToolLocation {
	return resolveToolLocation(lookupInstallDir, programFilesDir())
}

func resolveToolLocation(lookup func() (string, error), programFiles string) ToolLocation {
	if dir, err := lookup(); err == nil && dir != "" {
		return ToolLocation{Path: dir, Source: LocationDiscovered}
	}
	return ToolLocation{
		Path:   filepath.Join(programFiles, "NCover"),
		Source: LocationDefault,
	}
}

func programFilesDir() string {
	if dir := os.Getenv("ProgramFiles"); dir != "" {
		return dir
	}
	return defaultProgramFiles
}
