package commands

import (
	"fmt"

	"github.com/bryanchriswhite/swayrst/internal/logger"
	"github.com/bryanchriswhite/swayrst/internal/notify"
	"github.com/bryanchriswhite/swayrst/internal/restore"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load PROFILE",
	Short: "Load and restore a saved profile",
	Long: `Restore the window layout saved as PROFILE.

Missing applications are started first (unless disabled), then every window
of the profile is matched to a running one and moved back into place.`,
	Example: `  # Restore "work"
  swayrst load work

  # Restore without starting missing applications
  swayrst load work --start-missing-apps=false

  # Start codium wherever the profile recorded code
  swayrst load work --command-translation code=codium`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	restorer, cleanup, err := connect()
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := restorer.Load(args[0])
	if err != nil {
		return err
	}

	printReport(cmd, report)

	if cfg.Notify {
		sendNotification(report)
	}
	return nil
}

func printReport(cmd *cobra.Command, report *restore.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Restored profile %s: %d of %d windows placed\n",
		report.Profile, report.Matched, report.Matched+report.Unmatched)
	for _, argv := range report.Spawned {
		fmt.Fprintf(out, "  started  %v\n", argv)
	}
	for _, argv := range report.Failed {
		fmt.Fprintf(out, "  failed   %v\n", argv)
	}
	if report.TimedOut {
		fmt.Fprintln(out, "  timed out waiting for applications")
	}
	if report.Failures > 0 {
		fmt.Fprintf(out, "  %d of %d commands failed\n", report.Failures, report.Commands)
	}
}

func sendNotification(report *restore.Report) {
	log := logger.WithComponent("cli")

	n, err := notify.New()
	if err != nil {
		log.Warn().Err(err).Msg("Notifications unavailable")
		return
	}
	defer n.Close()

	if err := n.Report(report); err != nil {
		log.Warn().Err(err).Msg("Failed to send notification")
	}
}
