package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/nifs/adapters"
	"github.com/brettbedarf/nifs/config"
	"github.com/brettbedarf/nifs/internal/util"
	"github.com/brettbedarf/nifs/requests"
	"github.com/brettbedarf/nifs/server"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		verbose    int
		nodesDef   string
		umount     bool
		readOnly   bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&nodesDef, "nodes", "", "Path to nodes def file")
	flag.StringVar(&nodesDef, "n", "", "--nodes (shorthand)")
	flag.BoolVar(&umount, "umount", false,
		"Unmount the fs first if needed before mounting again. Useful for debuggers that don't exit properly.")
	flag.BoolVar(&umount, "u", false, "--umount (shorthand)")
	flag.BoolVar(&readOnly, "read-only", false, "Reject every change made through the mount")
	flag.IntVar(&verbose, "verbose", config.InfoVerbose,
		"Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", config.InfoVerbose, "--verbose (shorthand)")
	flag.Parse()

	// Build config; flags win over the config file
	var cfg *config.Config
	if configPath != "" {
		var err error
		if cfg, err = config.NewConfigFromFile(configPath); err != nil {
			util.InitializeLogger(util.ErrorLevel)
			logger := util.GetLogger("main")
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
	} else {
		cfg = config.NewDefaultConfig()
	}
	override := &config.ConfigOverride{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbose", "v":
			override.LogLvl = &verbose
		case "read-only":
			override.ReadOnly = &readOnly
		}
	})
	if configPath == "" && override.LogLvl == nil {
		override.LogLvl = &verbose
	}
	if err := cfg.Merge(override); err != nil {
		util.InitializeLogger(util.ErrorLevel)
		logger := util.GetLogger("main")
		logger.Fatal().Err(err).Msg("Invalid flags")
	}

	util.InitializeLogger(cfg.LogLvl)
	logger := util.GetLogger("main")

	mnt := flag.Arg(0)
	logger.Info().Str("config", configPath).Str("nodes", nodesDef).Str("mnt", mnt).Msg("NIFS server initializing")
	// Check if mount point is provided
	if mnt == "" {
		logger.Fatal().Msg("Mount point not specified; it must be passed as the argument")
	}
	// Try unmount if requested
	if umount { // send cli command
		cmd := exec.Command("fusermount", "-u", mnt)
		// we ignore error here if not already mounted
		cmd.Run() // nolint:errcheck
	}

	fs := server.New(cfg)

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// Load nodes
	if nodesDef != "" {
		defData, err := os.ReadFile(nodesDef)
		if err != nil {
			logger.Fatal().Err(err).Str("nodes", nodesDef).Msg("Failed to read nodes file")
		}
		logger.Debug().Str("nodes", nodesDef).Msg("Nodes file loaded successfully")

		nodes, err := requests.UnmarshalNodes(defData, adapters.NewDefaultRegistry())
		if err != nil {
			// keep going with whatever parsed
			logger.Error().Err(err).Msg("Failed to unmarshal some node definitions")
		}
		if nodes != nil {
			logger.Debug().
				Int("files", len(nodes.Files)).
				Int("directories", len(nodes.Dirs)).
				Msg("Successfully loaded node requests")
			if _, err := fs.Seed(ctx, nodes); err != nil {
				logger.Warn().Err(err).Msg("Some nodes could not be added")
			}
		}
	} else {
		logger.Warn().Msg("No nodes file provided")
	}

	// Serve
	if err := fs.Serve(mnt); err != nil {
		logger.Fatal().Err(err).Msg("Failed to mount filesystem")
	}

	logger.Info().Str("mountpoint", mnt).Msg("Filesystem mounted successfully")

	// Wait for termination signal
	<-ctx.Done()
	logger.Info().Msg("Received signal, unmounting filesystem")

	// Unmount the filesystem
	if err := fs.Unmount(); err != nil {
		logger.Error().Err(err).Msg("Failed to unmount filesystem")
	} else {
		logger.Info().Msg("Filesystem unmounted successfully")
	}
}
