package model

import (
	"time"

	"github.com/perfgo/coverpipe/cli/ncover"
)

// Report represents a single coverpipe coverage run and the report it produced.
type Report struct {
	// Unique ID for this run (16 random bytes, hex encoded)
	ID string `json:"id"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Working directory where command was run (relative to repo root)
	WorkDir string `json:"workdir"`
	// Exit code of the run (0 on success)
	ExitCode int `json:"exit_code"`
	// Error message when the run failed
	Error string `json:"error,omitempty"`
	// Duration of the run
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`

	// Build identifier passed to NCover
	BuildID string `json:"build_id"`
	// Profiled application name passed to NCover
	Application string `json:"application"`
	// Profiled executable and its arguments
	Target    string `json:"target"`
	Arguments string `json:"arguments,omitempty"`
	// Report type machine name (e.g. "Summary")
	ReportType string `json:"report_type"`
	// Human readable report label (e.g. "NCover Summary")
	Label string `json:"label,omitempty"`
	// Archive format tag
	Format string `json:"format,omitempty"`
	// HTML entry point inside the archive
	EntryPoint string `json:"entry_point,omitempty"`
	// Coverage filters used
	Filters ncover.Filters `json:"filters,omitempty"`
	// NCover installation used
	Tool *ncover.ToolLocation `json:"tool,omitempty"`
	// NCover command lines that were executed
	Commands []string `json:"commands,omitempty"`
	// Caller supplied coverage data file that was kept after the run
	DataFile string `json:"data_file,omitempty"`

	// Artifacts stored with this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
	// Repository name
	Repo string `json:"repo,omitempty"`
	// Repository root on the machine the run happened on
	Root string `json:"-"`
}

// Failed reports whether the run did not produce a report.
func (r *Report) Failed() bool {
	return r.ExitCode != 0
}

// Archive returns the report archive artifact, if any.
func (r *Report) Archive() *Artifact {
	for i := range r.Artifacts {
		if r.Artifacts[i].Type == ArtifactTypeReportArchive {
			return &r.Artifacts[i]
		}
	}
	return nil
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeReportArchive ArtifactType = iota
)

func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeReportArchive:
		return "report"
	}
	return "unknown"
}

// Artifact represents a file stored with a run
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}
