// Package main is the entry point for the model viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/vmdlview/internal/assets"
	"github.com/Faultbox/vmdlview/internal/config"
	"github.com/Faultbox/vmdlview/internal/engine/material"
	"github.com/Faultbox/vmdlview/internal/library"
	"github.com/Faultbox/vmdlview/internal/logger"
	"github.com/Faultbox/vmdlview/internal/viewer"
)

var (
	flagLibraries = flag.Bool("libraries", false, "List installed game archives and exit")
	flagFilter    = flag.String("filter", "", "Only list files whose name contains this text")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vmdlview [flags] <model.vmdl_c | archive.vpk:path/model.vmdl_c>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flagLibraries {
		if err := listLibraries(ctx, cfg); err != nil {
			logger.Error("library scan failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	args := config.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger.Info("=== vmdlview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	// Materials are cached for the life of the process and bound to a
	// device by each viewer.
	materials := material.NewCache(nil, 0)

	target := assets.ParseTarget(args[0])
	v, err := viewer.New(cfg, target, materials)
	if err != nil {
		logger.Error("failed to open model", zap.Error(err))
		os.Exit(1)
	}

	runErr := v.Run(ctx)
	v.Close()
	if runErr != nil {
		logger.Error("viewer error", zap.Error(runErr))
		os.Exit(1)
	}

	cfg.AddRecentFile(target.String())
	if err := cfg.Save(); err != nil {
		logger.Warn("failed to save config", zap.Error(err))
	}
	logger.Info("viewer closed normally")
}

func listLibraries(ctx context.Context, cfg *config.Config) error {
	steam := cfg.Data.SteamPath
	if steam == "" {
		var err error
		if steam, err = library.SteamPath(); err != nil {
			return err
		}
	}

	roots, err := library.Roots(steam, cfg.Data.LibraryPaths)
	if err != nil {
		return err
	}
	lib, err := library.Scan(ctx, roots, cfg.Viewer.RecentFiles)
	if err != nil {
		return err
	}

	for _, app := range lib.Filter(*flagFilter) {
		fmt.Println(app.Title())
		for _, f := range app.Files {
			fmt.Printf("  %s\n", f.Path)
		}
	}
	return nil
}
