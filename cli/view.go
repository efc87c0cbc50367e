package cli

// This file contains the view command for displaying a stored coverage report.

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/perfgo/coverpipe/history"
	"github.com/urfave/cli/v2"
)

// parseViewArgs splits view arguments into the ID/index and the extract
// directory. Flag parsing is done here because negative indexes such as -1
// would otherwise be taken for flags.
func parseViewArgs(in []string) (idArg, extractDir string, err error) {
	idArg = "0"
	idSet := false

	for i := 0; i < len(in); i++ {
		arg := in[i]
		switch {
		case arg == "--":
			continue
		case arg == "-x" || arg == "--extract" || arg == "-extract":
			if i+1 >= len(in) {
				return "", "", fmt.Errorf("%s requires a directory", arg)
			}
			i++
			extractDir = in[i]
		case strings.HasPrefix(arg, "--extract=") || strings.HasPrefix(arg, "-extract=") || strings.HasPrefix(arg, "-x="):
			extractDir = arg[strings.Index(arg, "=")+1:]
		case idSet:
			return "", "", fmt.Errorf("unexpected argument: %s", arg)
		case strings.HasPrefix(arg, "-"):
			// A negative index is "-" followed by only digits (e.g., "-1", "-2")
			if _, err := strconv.ParseInt(arg, 10, 64); err != nil {
				return "", "", fmt.Errorf("unknown flag: %s", arg)
			}
			idArg, idSet = arg, true
		default:
			idArg, idSet = arg, true
		}
	}

	return idArg, extractDir, nil
}

func (a *App) view(ctx *cli.Context) error {
	for _, arg := range ctx.Args().Slice() {
		if arg == "-h" || arg == "--help" {
			return cli.ShowSubcommandHelp(ctx)
		}
	}

	arg, dest, err := parseViewArgs(ctx.Args().Slice())
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	store, err := a.historyStore(ctx, cfg, repoRoot())
	if err != nil {
		return err
	}

	historyEntries, err := store.LoadEntries()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	targetEntry, err := history.Find(historyEntries, arg)
	if err != nil {
		return err
	}

	displayHistoryEntry(targetEntry)

	if dest == "" {
		return nil
	}

	archivePath := targetEntry.ArchivePath()
	if archivePath == "" {
		return fmt.Errorf("run %s has no report archive", targetEntry.Report.ID)
	}
	if err := history.Extract(archivePath, dest); err != nil {
		return err
	}

	entryPoint := filepath.Join(dest, targetEntry.Report.EntryPoint)
	a.logger.Info().Str("dir", dest).Msg("Report extracted")
	fmt.Printf("Open: %s\n", entryPoint)
	return nil
}

func displayHistoryEntry(entry *history.Entry) {
	r := entry.Report

	shortID := r.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	fmt.Printf("=== Coverage Run: %s ===\n", shortID)
	fmt.Printf("Time: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Duration: %s\n", r.Duration)
	fmt.Printf("Exit Code: %d\n", r.ExitCode)
	if r.WorkDir != "" {
		fmt.Printf("Working Dir: %s\n", r.WorkDir)
	}
	if r.Git != nil && r.Git.Commit != "" {
		commit := r.Git.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		fmt.Printf("Git Commit: %s", commit)
		if r.Git.Branch != "" {
			fmt.Printf(" (%s)", r.Git.Branch)
		}
		fmt.Println()
	}
	fmt.Printf("Build: %s\n", r.BuildID)
	fmt.Printf("Application: %s\n", r.Application)
	fmt.Printf("Target: %s %s\n", r.Target, r.Arguments)
	fmt.Printf("Report Type: %s\n", r.ReportType)
	if r.Label != "" {
		fmt.Printf("Label: %s\n", r.Label)
	}
	if r.Tool != nil {
		fmt.Printf("NCover: %s (%s)\n", r.Tool.Path, r.Tool.Source)
	}
	if r.DataFile != "" {
		fmt.Printf("Data File: %s\n", r.DataFile)
	}
	for _, c := range r.Commands {
		fmt.Printf("Command: %s\n", c)
	}
	if r.Error != "" {
		fmt.Printf("Error: %s\n", r.Error)
	}
	if a := r.Archive(); a != nil {
		fmt.Printf("Archive: %s (%.1f KB, %s, entry %s)\n", filepath.Join(entry.FullPath, a.File), float64(a.Size)/1024, r.Format, r.EntryPoint)
	}
	fmt.Println()
}
