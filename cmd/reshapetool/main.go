// reshapetool is a CLI utility that exercises the multires reshape pipeline
// on synthetic meshes.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/multires/internal/config"
	"github.com/Faultbox/multires/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "demo":
		cmdDemo(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`reshapetool - multires reshape utility

Usage:
  reshapetool <command> [options]

Commands:
  demo [flags]        Sculpt a synthetic mesh, reshape it and walk the undo history
  config [path]       Write the default config (to the user config dir without path)

Demo flags:
  -config <file>      Config file (default ./multires.yaml or user config dir)
  -debug              Debug logging
  -workers <n>        Goroutines per sync pass
  -level <n>          Multires level of the demo mesh
  -no-mask            Demo mesh without a paint mask layer

Examples:
  reshapetool demo -level 3 -workers 4
  reshapetool demo -no-mask -debug
  reshapetool config ./multires.yaml`)
}

func cmdConfig(args []string) {
	cfg := config.Default()
	var err error
	if len(args) > 0 {
		err = cfg.SaveTo(args[0])
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config written")
}

func cmdDemo(args []string) {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := runDemo(cfg, os.Stdout); err != nil {
		logger.Fatal("demo failed", zap.Error(err))
	}
}
