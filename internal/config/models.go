package config

import (
	"time"

	"github.com/bryanchriswhite/swayrst/internal/launcher"
)

// CurrentVersion is the config file format written by this version
const CurrentVersion = 2

// Config keys as they appear in the config file
const (
	KeyVersion                = "version"
	KeyProfileDir             = "profile_dir"
	KeyStartMissingActive     = "start_missing_apps.active"
	KeyStartMissingWait       = "start_missing_apps.wait_time_after_command_start"
	KeyStartMissingTimeout    = "start_missing_apps.timeout"
	KeyCommandTranslation     = "start_missing_apps.command_translation"
	KeyRespectOtherWorkspaces = "respect_other_workspaces"
	KeyLogLevel               = "log_level"
	KeyNotify                 = "notify"
	KeyServerPort             = "server_port"
)

// StartMissingApps controls launching of applications absent from the session
type StartMissingApps struct {
	Active bool `json:"active" yaml:"active" mapstructure:"active"`
	// WaitTimeAfterCommandStart is in seconds.
	WaitTimeAfterCommandStart float64 `json:"wait_time_after_command_start" yaml:"wait_time_after_command_start" mapstructure:"wait_time_after_command_start"`
	// Timeout is in seconds.
	Timeout            float64           `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	CommandTranslation map[string]string `json:"command_translation" yaml:"command_translation" mapstructure:"-"`
}

// Config represents the effective configuration. It is built once by
// Loader.Load and passed around by value.
type Config struct {
	Version                int              `json:"version" yaml:"version" mapstructure:"version"`
	ProfileDir             string           `json:"profile_dir" yaml:"profile_dir" mapstructure:"profile_dir"`
	StartMissingApps       StartMissingApps `json:"start_missing_apps" yaml:"start_missing_apps" mapstructure:"start_missing_apps"`
	RespectOtherWorkspaces bool             `json:"respect_other_workspaces" yaml:"respect_other_workspaces" mapstructure:"respect_other_workspaces"`
	LogLevel               string           `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Notify                 bool             `json:"notify" yaml:"notify" mapstructure:"notify"`
	ServerPort             int              `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
}

// Defaults returns the configuration used when no file exists.
func Defaults(confDir string) Config {
	return Config{
		Version:    CurrentVersion,
		ProfileDir: defaultProfileDir(confDir),
		StartMissingApps: StartMissingApps{
			Active:                    true,
			WaitTimeAfterCommandStart: 1,
			Timeout:                   30,
			CommandTranslation:        map[string]string{},
		},
		RespectOtherWorkspaces: false,
		LogLevel:               "warn",
		Notify:                 false,
		ServerPort:             8765,
	}
}

// LauncherOptions converts the start_missing_apps section for the launcher.
func (c Config) LauncherOptions() launcher.Options {
	translation := make(map[string]string, len(c.StartMissingApps.CommandTranslation))
	for k, v := range c.StartMissingApps.CommandTranslation {
		translation[k] = v
	}
	return launcher.Options{
		CommandTranslation: translation,
		WaitAfterSpawn:     seconds(c.StartMissingApps.WaitTimeAfterCommandStart),
		Timeout:            seconds(c.StartMissingApps.Timeout),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
