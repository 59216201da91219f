// Package config loads settings from defaults, a config file, the environment and flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matt-steen/todo-notes/pkg/db"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tailscale/hujson"
)

// Errors returned by Load for values that can't be used.
var (
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrInvalidDriver   = errors.New("invalid database driver")
)

// EnvPrefix prefixes environment overrides, e.g. TODO_NOTES_DATABASE.
const EnvPrefix = "TODO_NOTES"

// Config holds the application configuration.
type Config struct {
	Database string `mapstructure:"database"`
	Driver   string `mapstructure:"driver"`
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`
	Watch    bool   `mapstructure:"watch"`

	// ConfigFile is the file that was read, empty if none was found.
	ConfigFile string `mapstructure:"-"`
	// Export is set from flags only and never read from the config file.
	Export Export `mapstructure:"-"`
}

// Export describes a headless export run. It is active when File is set.
type Export struct {
	File    string
	Format  string
	Keyword string
	Status  string
	Since   string
	To      string
	Sort    string
}

// Level returns the parsed log level.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}

	return level
}

// Dir returns the directory holding the default config, database and log files.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "todo-notes")
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	dir := Dir()

	return Config{
		Database: filepath.Join(dir, "notes.sqlite"),
		Driver:   db.DriverSQLite3,
		LogFile:  filepath.Join(dir, "debug.log"),
		LogLevel: zerolog.InfoLevel.String(),
		Watch:    true,
	}
}

// flag names differ from config keys where the key has an underscore.
var flagKeys = map[string]string{
	"database":  "database",
	"driver":    "driver",
	"log-file":  "log_file",
	"log-level": "log_level",
	"watch":     "watch",
}

// Load builds the configuration from args (without the program name). Precedence, highest
// first: flags, TODO_NOTES_* environment variables, the config file, defaults.
//
// The config file is JSON that may contain comments and trailing commas. It is read from
// --config if given, which must then exist, or from config.json in Dir if present.
// pflag.ErrHelp is returned for --help.
func Load(args []string) (Config, error) {
	def := Default()

	flags := pflag.NewFlagSet("todo-notes", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to the config file")
	flags.String("database", def.Database, "database file, or connection string for postgres")
	flags.String("driver", def.Driver, "database driver: "+strings.Join(db.Drivers(), ", "))
	flags.String("log-file", def.LogFile, "file to write logs to")
	flags.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	flags.Bool("watch", def.Watch, "pick up changes made to the database by other programs")

	var export Export

	flags.StringVar(&export.File, "export", "", "write the filtered, sorted notes to this file and exit")
	flags.StringVar(&export.Format, "format", "json", "export format: json, txt")
	flags.StringVar(&export.Keyword, "keyword", "", "export only notes containing this text")
	flags.StringVar(&export.Status, "status", "", "export only notes with this status: all, done, undone")
	flags.StringVar(&export.Since, "since", "", "export only notes due on or after this date (2006-01-02)")
	flags.StringVar(&export.To, "to", "", "export only notes due on or before this date (2006-01-02)")
	flags.StringVar(&export.Sort, "sort", "", "export sort order: default, earlier, later")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("database", def.Database)
	v.SetDefault("driver", def.Driver)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("watch", def.Watch)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return Config{}, fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}

	configFile, err := readConfigFile(v, *configPath)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}

	cfg.ConfigFile = configFile
	cfg.Export = export
	cfg.Database = expandHome(cfg.Database)
	cfg.LogFile = expandHome(cfg.LogFile)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// readConfigFile loads the config file into v and returns its path, or "" if the default
// file doesn't exist.
func readConfigFile(v *viper.Viper, explicit string) (string, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(Dir(), "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit == "" && errors.Is(err, os.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("error reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return "", fmt.Errorf("error parsing config %s: %w", path, err)
	}

	v.SetConfigType("json")

	if err := v.ReadConfig(bytes.NewReader(standardized)); err != nil {
		return "", fmt.Errorf("error reading config %s: %w", path, err)
	}

	return path, nil
}

func validate(cfg Config) error {
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || cfg.LogLevel == "" {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	for _, driver := range db.Drivers() {
		if cfg.Driver == driver {
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrInvalidDriver, cfg.Driver)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return home + path[1:]
}
