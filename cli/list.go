package cli

// This file contains the list command for displaying previous coverage runs.

import (
	"fmt"
	"strings"
	"time"

	"github.com/perfgo/coverpipe/history"
	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	filterPath := ctx.String("path")
	filterType := ctx.String("report-type")
	limit := ctx.Int("limit")

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	store, err := a.historyStore(ctx, cfg, repoRoot())
	if err != nil {
		return err
	}

	// Load all history entries
	historyEntries, err := store.LoadEntries()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	var filteredEntries []history.Entry
	for _, entry := range historyEntries {
		if filterPath != "" && !strings.Contains(entry.Report.WorkDir, filterPath) {
			continue
		}
		if filterType != "" && entry.Report.ReportType != filterType {
			continue
		}
		filteredEntries = append(filteredEntries, entry)
	}

	if len(filteredEntries) == 0 {
		if filterPath != "" || filterType != "" {
			fmt.Println("No history entries found matching filters")
		} else {
			fmt.Println("No history entries found")
			fmt.Printf("Reports are saved to %s/<timestamp>-<id>/\n", store.Root())
		}
		return nil
	}

	// Apply limit
	displayRuns := filteredEntries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Printf("\n=== Coverage Reports (%d total) ===\n\n", len(filteredEntries))

	for _, entry := range displayRuns {
		r := entry.Report
		timestamp := r.Timestamp.Format("2006-01-02 15:04:05")

		// Format duration
		duration := r.Duration.Round(time.Millisecond)

		// Determine status indicator
		status := "✓"
		if r.Failed() {
			status = "✗"
		}

		// Show short ID (first 8 chars)
		shortID := r.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		fmt.Printf("%s  %s  [%s]  exit=%d  id=%s\n", status, timestamp, duration, r.ExitCode, shortID)
		if r.Label != "" {
			fmt.Printf("   Report: %s (%s)\n", r.Label, r.ReportType)
		} else {
			fmt.Printf("   Report type: %s\n", r.ReportType)
		}
		fmt.Printf("   Target: %s", r.Target)
		if r.Arguments != "" {
			fmt.Printf(" %s", r.Arguments)
		}
		fmt.Println()
		fmt.Printf("   Build: %s  Application: %s\n", r.BuildID, r.Application)
		if r.WorkDir != "" {
			fmt.Printf("   Path: %s\n", r.WorkDir)
		}
		if r.Git != nil && r.Git.Commit != "" {
			shortCommit := r.Git.Commit
			if len(shortCommit) > 8 {
				shortCommit = shortCommit[:8]
			}
			fmt.Printf("   Commit: %s", shortCommit)
			if r.Git.Branch != "" {
				fmt.Printf(" (%s)", r.Git.Branch)
			}
			fmt.Println()
		}
		if r.Error != "" {
			fmt.Printf("   Error: %s\n", r.Error)
		}
		for _, artifact := range r.Artifacts {
			fmt.Printf("   %s: %s (%.1f KB)\n", artifact.Type, artifact.File, float64(artifact.Size)/1024)
		}
		fmt.Printf("   %s\n", entry.FullPath)
		fmt.Println()
	}

	fmt.Println("\nView report: coverpipe view <ID> --extract <dir>")

	return nil
}
