package cli

// This file contains the configure and report-types commands.

import (
	"fmt"

	"github.com/perfgo/coverpipe/cli/ncover"
	"github.com/urfave/cli/v2"
)

func (a *App) configure(ctx *cli.Context) error {
	path := ctx.String("config")
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	changed := false
	if ctx.Bool("detect") {
		cfg.NCover = ncover.ResolveToolLocation()
		changed = true
		a.logger.Info().
			Str("path", cfg.NCover.Path).
			Str("source", string(cfg.NCover.Source)).
			Msg("Resolved NCover installation")
	}
	if dir := ctx.String("ncover-path"); dir != "" {
		cfg.NCover = ncover.ToolLocation{Path: dir, Source: ncover.LocationConfigured}
		changed = true
	}
	if dir := ctx.String("set-history-dir"); dir != "" {
		cfg.HistoryDir = dir
		changed = true
	}

	if changed {
		if err := cfg.Save(path); err != nil {
			return err
		}
		a.logger.Info().Str("config", path).Msg("Configuration saved")
	}

	fmt.Printf("Config:      %s\n", path)
	fmt.Printf("NCover:      %s (%s)\n", cfg.NCover.Path, cfg.NCover.Source)
	if cfg.HistoryDir != "" {
		fmt.Printf("History dir: %s\n", cfg.HistoryDir)
	}
	return nil
}

func (a *App) reportTypes(ctx *cli.Context) error {
	for _, rt := range ncover.ReportTypes() {
		fmt.Printf("%-24s %s\n", rt.Name, rt.FriendlyName)
	}
	return nil
}
