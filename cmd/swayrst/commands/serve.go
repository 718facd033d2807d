package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/swayrst/internal/api"
	"github.com/bryanchriswhite/swayrst/internal/config"
	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/notify"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the swayrst HTTP server",
	Long: `Start an HTTP server on localhost exposing profiles over a REST API.

Restores triggered through the API stream their progress over the
/api/events websocket.`,
	Example: `  # Start server on default port (8765)
  swayrst serve

  # Start server on custom port
  swayrst serve --port 9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int(config.FlagPort, 8765, "server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("cli")

	restorer, cleanup, err := connect()
	if err != nil {
		return err
	}
	defer cleanup()

	var reporter api.Reporter
	if cfg.Notify {
		if n, err := notify.New(); err == nil {
			defer n.Close()
			reporter = n
		} else {
			log.Warn().Err(err).Msg("Notifications unavailable")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Int("port", cfg.ServerPort).Str("profile_dir", cfg.ProfileDir).Msg("swayrst is running, press Ctrl+C to stop")

	if err := api.NewServer(restorer, reporter).Run(ctx, cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
