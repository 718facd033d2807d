package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/bryanchriswhite/swayrst/internal/config"
	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/restore"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	pretty     bool
	saveConfig bool

	// set by setup before any command runs
	cfg        config.Config
	configPath string

	rootCmd = &cobra.Command{
		Use:   "swayrst",
		Short: "swayrst - save and restore sway/i3 window layouts",
		Long: `swayrst saves the window layout of a running sway or i3 session as a
named profile and restores it later.

On restore it starts applications of the profile that are not running,
matches saved windows to live ones by command line and title, and moves
every window back to its workspace, container layout and size.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is <sway config dir>/swayrst.conf)")
	pf.StringP(config.FlagLogLevel, "v", "warn", "log level (debug, info, warn, error)")
	pf.BoolVar(&pretty, "pretty", false, "human readable console logs")
	pf.String(config.FlagProfileDir, "", "directory holding the profiles")
	pf.Bool(config.FlagStartMissingApps, true, "start applications of the profile that are not running")
	pf.StringArray(config.FlagCommandTranslation, nil, "start TO instead of FROM, given as FROM=TO (repeatable)")
	pf.Bool(config.FlagRespectOtherWorkspaces, false, "leave outputs and workspaces that are not in the profile alone")
	pf.Bool(config.FlagNotify, false, "show a desktop notification after a restore")
	pf.BoolVar(&saveConfig, "save-config", false, "write the effective configuration to the config file")
}

// setup loads the configuration and initialises logging for every command.
func setup(cmd *cobra.Command, args []string) error {
	logger.Init("warn", pretty)

	loader := config.NewLoader(config.WithConfigFile(cfgFile), config.WithFlags(cmd.Flags()))
	c, err := loader.Load()
	if err != nil {
		if errors.Is(err, config.ErrNoConfigDir) {
			logger.Get().WithLevel(zerolog.FatalLevel).Int("code", restore.ExitNoConfigDir).Msg(err.Error())
			return &restore.FatalError{Code: restore.ExitNoConfigDir, Err: err}
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(c.LogLevel, pretty)
	cfg = c
	configPath = loader.Path()

	logger.WithComponent("cli").Info().
		Str("command", cmd.Name()).
		Str("config", configPath).
		Str("log_level", cfg.LogLevel).
		Msg("swayrst started")

	if saveConfig {
		if err := config.Write(configPath, cfg); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		var fatal *restore.FatalError
		if errors.As(err, &fatal) {
			return fatal.Code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
