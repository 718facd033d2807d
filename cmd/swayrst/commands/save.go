package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save PROFILE",
	Short: "Save the current window layout",
	Long:  `Capture every output, workspace and window of the running session and store it as PROFILE.`,
	Example: `  # Save the current layout as "work"
  swayrst save work`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	restorer, cleanup, err := connect()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := restorer.Save(args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s to %s\n", args[0], restorer.Store().Path(args[0]))
	return nil
}
