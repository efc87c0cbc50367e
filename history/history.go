package history

// This file contains the report history store: saving coverage runs with
// their report archives and loading them back.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/perfgo/coverpipe/model"
	"github.com/rs/zerolog"
)

const (
	reportFile  = "report.json"
	archiveFile = "report.zip"
)

type Entry struct {
	Report   model.Report
	FullPath string
}

// ArchivePath returns the path of the stored report archive, or "" when the
// run has none.
func (e Entry) ArchivePath() string {
	a := e.Report.Archive()
	if a == nil {
		return ""
	}
	return filepath.Join(e.FullPath, a.File)
}

// DefaultRoot returns the .coverpipe/history directory in repoRoot, or in the
// working directory when repoRoot is empty.
func DefaultRoot(repoRoot string) (string, error) {
	if repoRoot != "" {
		return filepath.Join(repoRoot, ".coverpipe", "history"), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return filepath.Join(cwd, ".coverpipe", "history"), nil
}

// Store keeps coverage reports below a root directory, one directory per run.
type Store struct {
	logger zerolog.Logger
	root   string
}

// NewStore returns a store rooted at root.
func NewStore(logger zerolog.Logger, root string) *Store {
	return &Store{logger: logger, root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Record saves a run and, when archive is non-empty, its zipped report. The
// run directory is named <timestamp>-<short id>. It returns the run directory.
func (s *Store) Record(report *model.Report, archive []byte) (string, error) {
	timestamp := report.Timestamp.Format("20060102-150405")
	shortID := report.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	runDir := filepath.Join(s.root, fmt.Sprintf("%s-%s", timestamp, shortID))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	if len(archive) > 0 {
		if err := os.WriteFile(filepath.Join(runDir, archiveFile), archive, 0644); err != nil {
			return "", fmt.Errorf("failed to write report archive: %w", err)
		}
		report.Artifacts = append(report.Artifacts, model.Artifact{
			Type: model.ArtifactTypeReportArchive,
			Size: uint64(len(archive)),
			File: archiveFile,
		})
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(filepath.Join(runDir, reportFile), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report metadata: %w", err)
	}

	s.logger.Debug().Str("dir", runDir).Str("id", report.ID).Msg("Recorded coverage run")
	return runDir, nil
}

// LoadEntries loads all runs below the store root, newest first. A missing
// root yields no entries.
func (s *Store) LoadEntries() ([]Entry, error) {
	var entries []Entry

	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return nil, nil
	}

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			reportPath := filepath.Join(path, reportFile)
			if _, err := os.Stat(reportPath); err == nil {
				report, err := parseReportJSON(reportPath)
				if err != nil {
					s.logger.Warn().Err(err).Str("path", reportPath).Msg("Failed to parse report.json")
					return nil
				}

				entries = append(entries, Entry{
					Report:   report,
					FullPath: path,
				})
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk history directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Report.Timestamp.After(entries[j].Report.Timestamp)
	})

	return entries, nil
}

// Find selects an entry from entries sorted newest first. arg is either an
// index (0 for the newest, -1 for the one before, ...) or a hex ID prefix.
func Find(entries []Entry, arg string) (*Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no history entries found")
	}

	parsed, parseErr := strconv.ParseInt(arg, 10, 64)
	if parseErr == nil && parsed <= 0 {
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d history entries)", arg, len(entries))
		}
		return &entries[index], nil
	}

	// Positive numbers may still be an ID prefix made of digits only.
	hexID := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].Report.ID), hexID) {
			return &entries[i], nil
		}
	}
	if parseErr == nil {
		return nil, fmt.Errorf("invalid index: %s (use 0 for last, -1 for second-to-last, -2 for third-to-last, etc.)", arg)
	}
	return nil, fmt.Errorf("no history entry found matching ID: %s", arg)
}

// parseReportJSON parses a report.json file.
func parseReportJSON(reportPath string) (model.Report, error) {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return model.Report{}, err
	}

	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return model.Report{}, err
	}

	return report, nil
}
