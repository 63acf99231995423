// Package config loads settings from command-line flags, RUSHHOUR_*
// environment variables and an optional rushhour.yaml file, in that order
// of precedence.
package config

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug             = "debug"
	ConfigCPUProfile        = "cpu-profile"
	ConfigMemProfile        = "mem-profile"
	ConfigDataPath          = "data-path"
	ConfigPuzzleFile        = "puzzle-file"
	ConfigHeuristics        = "heuristics"
	ConfigThreads           = "threads"
	ConfigSearchTimeout     = "search-timeout"
	ConfigMaxMemoryFraction = "max-memory-fraction"
	ConfigReopenClosed      = "reopen-closed"
	ConfigCheckHeuristics   = "check-heuristics"
	ConfigResultsDB         = "results-db"
	ConfigSolutionLog       = "solution-log"
	ConfigAdvancedMaxDepth  = "advanced-max-depth"
)

const envPrefix = "RUSHHOUR"

type Config struct {
	*viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigMemProfile, "")
	v.SetDefault(ConfigDataPath, "./data")
	v.SetDefault(ConfigPuzzleFile, "jams.txt")
	v.SetDefault(ConfigHeuristics, []string{"zero", "blocking", "advanced"})
	v.SetDefault(ConfigThreads, runtime.NumCPU())
	v.SetDefault(ConfigSearchTimeout, time.Duration(0))
	v.SetDefault(ConfigMaxMemoryFraction, 0.0)
	v.SetDefault(ConfigReopenClosed, false)
	v.SetDefault(ConfigCheckHeuristics, false)
	v.SetDefault(ConfigResultsDB, "")
	v.SetDefault(ConfigSolutionLog, "")
	v.SetDefault(ConfigAdvancedMaxDepth, 4)
	return v
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() *Config {
	return &Config{newViper()}
}

// Load parses args as flags and layers them over the environment, the
// config file and the defaults. Arguments that are not flags are left for
// the caller.
func (c *Config) Load(args []string) ([]string, error) {
	c.Viper = newViper()

	fs := pflag.NewFlagSet("rushhour", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a memory profile to this file")
	fs.String(ConfigDataPath, "./data", "directory holding puzzle files")
	fs.String(ConfigPuzzleFile, "jams.txt", "puzzle file to load at startup, relative to the data path")
	fs.StringSlice(ConfigHeuristics, []string{"zero", "blocking", "advanced"}, "heuristics to run in a batch")
	fs.Int(ConfigThreads, runtime.NumCPU(), "number of puzzles solved at once in a batch")
	fs.Duration(ConfigSearchTimeout, 0, "give up on a single search after this long (0 = never)")
	fs.Float64(ConfigMaxMemoryFraction, 0, "fraction of total memory a single search may use (0 = unlimited)")
	fs.Bool(ConfigReopenClosed, false, "re-open closed states when a shorter path is found")
	fs.Bool(ConfigCheckHeuristics, false, "panic if a heuristic breaks its contract")
	fs.String(ConfigResultsDB, "", "sqlite database to store batch outcomes in")
	fs.String(ConfigSolutionLog, "", "YAML file to write solution paths to")
	fs.Int(ConfigAdvancedMaxDepth, 4, "recursion depth of the advanced heuristic")
	// Flags end at the first shell command word; the rest belongs to it.
	fs.SetInterspersed(false)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.BindPFlags(fs); err != nil {
		return nil, err
	}

	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	c.SetConfigName("rushhour")
	c.SetConfigType("yaml")
	c.AddConfigPath(".")
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	} else {
		log.Info().Str("file", c.ConfigFileUsed()).Msg("read-config-file")
	}
	return fs.Args(), nil
}

// SanitizedSettings returns the settings suitable for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}

// AdjustRelativePaths makes relative file settings relative to basePath,
// the directory of the executable, unless they exist relative to the
// working directory.
func (c *Config) AdjustRelativePaths(basePath string, exists func(string) bool) {
	for _, key := range []string{ConfigDataPath} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) || exists(p) {
			continue
		}
		c.Set(key, filepath.Join(basePath, p))
	}
}

// PuzzleFilePath returns the startup puzzle file, joined to the data path
// unless it is absolute.
func (c *Config) PuzzleFilePath() string {
	f := c.GetString(ConfigPuzzleFile)
	if f == "" || filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(c.GetString(ConfigDataPath), f)
}

// Heuristics returns the configured heuristic names. Entries may also be
// comma-separated, as they are when they come from the environment.
func (c *Config) Heuristics() []string {
	names := lo.FlatMap(c.GetStringSlice(ConfigHeuristics), func(s string, _ int) []string {
		return strings.Split(s, ",")
	})
	return lo.Compact(lo.Map(names, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}
