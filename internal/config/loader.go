// Package config builds the effective swayrst configuration from defaults,
// the config file, SWAYRST_* environment variables and command line flags.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SWAYRST"

// Flag names understood by Loader. Flags absent from the bound set are ignored.
const (
	FlagProfileDir             = "profile-dir"
	FlagStartMissingApps       = "start-missing-apps"
	FlagCommandTranslation     = "command-translation"
	FlagRespectOtherWorkspaces = "respect-other-workspaces"
	FlagLogLevel               = "log-level"
	FlagNotify                 = "notify"
	FlagPort                   = "port"
)

var flagKeys = map[string]string{
	FlagProfileDir:             KeyProfileDir,
	FlagStartMissingApps:       KeyStartMissingActive,
	FlagRespectOtherWorkspaces: KeyRespectOtherWorkspaces,
	FlagLogLevel:               KeyLogLevel,
	FlagNotify:                 KeyNotify,
	FlagPort:                   KeyServerPort,
}

// Loader resolves the config file and layers its sources.
// Precedence: flags > environment > file > defaults.
type Loader struct {
	file       string
	path       string
	resolveDirs func() ([]string, error)
	flags      *pflag.FlagSet
}

// Option configures a Loader
type Option func(*Loader)

// WithConfigFile uses path instead of the file in the discovered config directory.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.file = path
	}
}

// WithDirResolver replaces the config directory lookup. fn returns the
// existing directories in lookup order.
func WithDirResolver(fn func() ([]string, error)) Option {
	return func(l *Loader) {
		l.resolveDirs = fn
	}
}

// WithFlags layers the changed flags of fs over the other sources.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(l *Loader) {
		l.flags = fs
	}
}

// NewLoader creates a Loader
func NewLoader(opts ...Option) *Loader {
	l := &Loader{resolveDirs: UserDirs}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the config file path resolved by the last Load
func (l *Loader) Path() string {
	return l.path
}

// Load builds the effective configuration. Version 1 files are upgraded
// and written back before they are read.
func (l *Loader) Load() (Config, error) {
	log := logger.WithComponent("config")

	dirs, err := l.resolveDirs()
	if err != nil {
		return Config{}, err
	}
	if len(dirs) == 0 {
		return Config{}, ErrNoConfigDir
	}
	dir := dirs[0]

	l.path = l.file
	if l.path == "" {
		l.path = findFile(dirs)
	}

	v := viper.New()
	setDefaults(v, Defaults(dir))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	translation := map[string]string{}

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		log.Info().Str("path", l.path).Msg("Loading config file")
		doc, err := migrate(l.path, data)
		if err != nil {
			return Config{}, err
		}
		v.SetConfigType("json")
		if err := v.ReadConfig(bytes.NewReader(doc)); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", l.path, err)
		}
		translation, err = fileTranslation(doc)
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", l.path, err)
		}
	case os.IsNotExist(err):
		log.Info().Str("path", l.path).Msg("Config file not found, using defaults")
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if l.flags != nil {
		if err := l.bindFlags(v, translation); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Version = CurrentVersion
	cfg.StartMissingApps.CommandTranslation = translation

	log.Debug().
		Str("path", l.path).
		Str("profile_dir", cfg.ProfileDir).
		Bool("start_missing_apps", cfg.StartMissingApps.Active).
		Bool("respect_other_workspaces", cfg.RespectOtherWorkspaces).
		Msg("Config loaded")

	return cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault(KeyVersion, def.Version)
	v.SetDefault(KeyProfileDir, def.ProfileDir)
	v.SetDefault(KeyStartMissingActive, def.StartMissingApps.Active)
	v.SetDefault(KeyStartMissingWait, def.StartMissingApps.WaitTimeAfterCommandStart)
	v.SetDefault(KeyStartMissingTimeout, def.StartMissingApps.Timeout)
	v.SetDefault(KeyRespectOtherWorkspaces, def.RespectOtherWorkspaces)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyNotify, def.Notify)
	v.SetDefault(KeyServerPort, def.ServerPort)
}

func (l *Loader) bindFlags(v *viper.Viper, translation map[string]string) error {
	for name, key := range flagKeys {
		f := l.flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if f := l.flags.Lookup(FlagCommandTranslation); f != nil && f.Changed {
		pairs, err := l.flags.GetStringArray(FlagCommandTranslation)
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			from, to, ok := strings.Cut(pair, "=")
			if !ok || from == "" || to == "" {
				return fmt.Errorf("invalid command translation %q, expected FROM=TO", pair)
			}
			translation[from] = to
		}
	}
	return nil
}

// fileTranslation reads the translation map directly from the document;
// viper folds map keys to lower case and commands are case sensitive.
func fileTranslation(doc []byte) (map[string]string, error) {
	var raw struct {
		StartMissingApps struct {
			CommandTranslation map[string]string `json:"command_translation"`
		} `json:"start_missing_apps"`
	}
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, err
	}
	if raw.StartMissingApps.CommandTranslation == nil {
		return map[string]string{}, nil
	}
	return raw.StartMissingApps.CommandTranslation, nil
}

// Write stores cfg as the config file at path.
func Write(path string, cfg Config) error {
	if cfg.StartMissingApps.CommandTranslation == nil {
		cfg.StartMissingApps.CommandTranslation = map[string]string{}
	}
	cfg.Version = CurrentVersion

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	logger.WithComponent("config").Info().Str("path", path).Msg("Config saved")
	return nil
}
