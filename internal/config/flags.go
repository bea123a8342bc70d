package config

import "flag"

type flagValues struct {
	config  string
	debug   bool
	workers int
	level   int
	noMask  bool
}

var flags = flagValues{level: -1}

// RegisterFlags binds the config overrides to fs. Call once per process,
// before fs.Parse.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&flags.config, "config", "", "Path to config file")
	fs.BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	fs.IntVar(&flags.workers, "workers", 0, "Goroutines per sync pass (0 = config value)")
	fs.IntVar(&flags.level, "level", -1, "Demo multires level (-1 = config value)")
	fs.BoolVar(&flags.noMask, "no-mask", false, "Demo mesh without a paint mask layer")
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return flags.config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if flags.debug {
		cfg.Logging.Level = "debug"
	}
	if flags.workers > 0 {
		cfg.Reshape.Workers = flags.workers
	}
	if flags.level >= 0 {
		cfg.Demo.Level = flags.level
	}
	if flags.noMask {
		cfg.Demo.WithMask = false
	}
}
