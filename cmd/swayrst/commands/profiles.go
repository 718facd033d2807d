package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/swayrst/internal/profile"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List saved profiles",
	Long:  `List the profiles stored in the profile directory.`,
	Example: `  # List profiles in table format (default)
  swayrst profiles

  # List profiles in JSON format
  swayrst profiles --format json`,
	Args: cobra.NoArgs,
	RunE: runProfiles,
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete PROFILE",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesDelete,
}

var profilesFormat string

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)

	profilesCmd.Flags().StringVarP(&profilesFormat, "format", "f", "table", "output format (table or json)")
}

type profileInfo struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Outputs []string `json:"outputs"`
	Windows int      `json:"windows"`
}

func runProfiles(cmd *cobra.Command, args []string) error {
	store := profile.NewStore(cfg.ProfileDir)
	names, err := store.List()
	if err != nil {
		return err
	}

	infos := make([]profileInfo, 0, len(names))
	for _, name := range names {
		info := profileInfo{Name: name, Path: store.Path(name), Outputs: []string{}}
		if tree, err := store.Load(name); err == nil {
			info.Outputs = tree.OutputNames()
			info.Windows = len(tree.Apps())
		}
		infos = append(infos, info)
	}

	switch profilesFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	case "table":
		if len(infos) == 0 {
			fmt.Printf("No profiles in %s\n", store.Dir())
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tOUTPUTS\tWINDOWS")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%v\t%d\n", info.Name, info.Outputs, info.Windows)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", profilesFormat)
	}
}

func runProfilesDelete(cmd *cobra.Command, args []string) error {
	if err := profile.NewStore(cfg.ProfileDir).Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted profile %s\n", args[0])
	return nil
}
