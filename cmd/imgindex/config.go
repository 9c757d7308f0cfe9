package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"image-index/internal/startup"
)

const envPrefix = "IMGINDEX"

// loadConfig merges defaults, the config file, IMGINDEX_* variables and the
// command's flags, in increasing precedence, then validates the result.
func loadConfig(cmd *cobra.Command, requireRoot bool) (*startup.Config, error) {
	v := viper.New()

	def := startup.DefaultConfig()
	v.SetDefault("database", def.DatabasePath)
	v.SetDefault("table", def.Table)
	v.SetDefault("root", def.Root)
	v.SetDefault("force", def.Force)
	v.SetDefault("ext", def.Extensions)
	v.SetDefault("case-sensitive", def.CaseSensitive)
	v.SetDefault("skip-hidden", def.SkipHidden)
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("hash", def.HashAlgorithm)
	v.SetDefault("keep", def.KeepPolicy)
	v.SetDefault("batch-size", def.BatchSize)
	v.SetDefault("log-level", def.LogLevel)
	v.SetDefault("log-file", def.LogFile)
	v.SetDefault("metrics-file", def.MetricsFile)
	v.SetDefault("memory-limit", def.MemoryLimit)
	v.SetDefault("interval", def.Interval)

	explicit := false
	if f := cmd.Flag("config"); f != nil && f.Changed {
		v.SetConfigFile(f.Value.String())
		explicit = true
	} else {
		v.AddConfigPath(startup.HomeDir())
		v.SetConfigName(strings.TrimSuffix(startup.ConfigFileName, ".yaml"))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg startup.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(requireRoot); err != nil {
		return nil, err
	}
	return &cfg, nil
}
