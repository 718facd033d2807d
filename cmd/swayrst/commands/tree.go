package commands

import (
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the current window layout",
	Long:  `Capture the running session and print it in the profile format without saving it.`,
	Example: `  # Print the layout as JSON (default)
  swayrst tree

  # Print the layout as YAML
  swayrst tree --format yaml`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

var treeFormat string

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().StringVarP(&treeFormat, "format", "f", "json", "output format (json or yaml)")
}

func runTree(cmd *cobra.Command, args []string) error {
	restorer, cleanup, err := connect()
	if err != nil {
		return err
	}
	defer cleanup()

	tree, err := restorer.Tree()
	if err != nil {
		return err
	}
	return printFormatted(cmd.OutOrStdout(), treeFormat, tree)
}
