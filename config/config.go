package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug                 = "debug"
	ConfigSearchStrategy        = "search-strategy"
	ConfigLookAhead             = "lookahead"
	ConfigAlphaBeta             = "alpha-beta"
	ConfigQuiescence            = "quiescence"
	ConfigMaxQuiescentDepth     = "max-quiescent-depth"
	ConfigPercentageBestMoves   = "percentage-best-moves"
	ConfigMinBestMoves          = "min-best-moves"
	ConfigTranspositionTable    = "transposition-table"
	ConfigTTableMemoryFraction  = "ttable-memory-fraction"
	ConfigCheckSymmetry         = "check-symmetry"
	ConfigPollInterval          = "poll-interval"
	ConfigCPUProfile            = "cpu-profile"
	ConfigHistoryFile           = "history-file"
	ConfigTreeDir               = "tree-dir"
	ConfigDataPath              = "data-path"
	ConfigProgressLogIntervalMS = "progress-log-interval-ms"
)

type Config struct {
	*viper.Viper
	args []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigSearchStrategy, "minimax")
	v.SetDefault(ConfigLookAhead, 4)
	v.SetDefault(ConfigAlphaBeta, true)
	v.SetDefault(ConfigQuiescence, false)
	v.SetDefault(ConfigMaxQuiescentDepth, 8)
	v.SetDefault(ConfigPercentageBestMoves, 100)
	v.SetDefault(ConfigMinBestMoves, 0)
	v.SetDefault(ConfigTranspositionTable, false)
	v.SetDefault(ConfigTTableMemoryFraction, 0.05)
	v.SetDefault(ConfigCheckSymmetry, false)
	v.SetDefault(ConfigPollInterval, "100ms")
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigHistoryFile, filepath.Join(os.TempDir(), "gsearch_history"))
	v.SetDefault(ConfigTreeDir, "./trees")
	v.SetDefault(ConfigDataPath, "./data")
	v.SetDefault(ConfigProgressLogIntervalMS, 1000)
}

// DefaultConfig returns a configuration with only default values set. It
// does not read flags, the environment, or a config file.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	setDefaults(c.Viper)
	return c
}

// Load loads the configuration from (in increasing priority) the defaults,
// an optional config.yaml in the data path, GSEARCH_ environment variables,
// and command-line flags.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	setDefaults(c.Viper)

	fs := pflag.NewFlagSet("gsearch", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigSearchStrategy, "minimax", "search strategy: minimax, negamax, negascout, negascout-memory")
	fs.Int(ConfigLookAhead, 4, "number of plies to look ahead")
	fs.Bool(ConfigAlphaBeta, true, "use alpha-beta pruning")
	fs.Bool(ConfigQuiescence, false, "use quiescence search at the horizon")
	fs.Int(ConfigMaxQuiescentDepth, 8, "maximum quiescent extension depth")
	fs.Int(ConfigPercentageBestMoves, 100, "percentage of best moves to keep at each ply")
	fs.Int(ConfigMinBestMoves, 0, "minimum number of best moves to keep at each ply")
	fs.Bool(ConfigTranspositionTable, false, "use a transposition table (negascout-memory only)")
	fs.Float64(ConfigTTableMemoryFraction, 0.05, "fraction of system memory for the transposition table")
	fs.Bool(ConfigCheckSymmetry, false, "assert that every internal move is undone in order")
	fs.Duration(ConfigPollInterval, 100*time.Millisecond, "pause polling interval")
	fs.String(ConfigCPUProfile, "", "write a cpu profile to this file")
	fs.String(ConfigHistoryFile, "", "readline history file")
	fs.String(ConfigTreeDir, "", "directory for exported search trees")
	fs.String(ConfigDataPath, "", "directory holding config.yaml and scripts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	// Only flags that were explicitly set override the other sources.
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed && bindErr == nil {
			bindErr = c.BindPFlag(f.Name, f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	c.SetEnvPrefix("gsearch")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	c.SetConfigName("config")
	c.SetConfigType("yaml")
	c.AddConfigPath(c.GetString(ConfigDataPath))
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
		log.Debug().Msg("no-config-file-found")
	}
	return nil
}

// Args returns the arguments left over after the flags, if any.
func (c *Config) Args() []string {
	return c.args
}

// Write saves the current settings to config.yaml in the data path.
func (c *Config) Write() error {
	dir := c.GetString(ConfigDataPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return c.WriteConfigAs(filepath.Join(dir, "config.yaml"))
}

// AdjustRelativePaths makes relative data and tree paths relative to the
// executable directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigDataPath, ConfigTreeDir} {
		p := c.GetString(key)
		if p != "" && !filepath.IsAbs(p) {
			c.Set(key, filepath.Join(basepath, p))
		}
	}
}

// SanitizedSettings returns the settings for display in logs.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
