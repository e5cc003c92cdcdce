package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	GroupID: groupConfig,
	Long:    `Print the multisecret release, commit and build date.`,
	Example: `  multisecret version
  multisecret version -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		if formatter != nil && formatter.IsJSON() {
			return writeJSON(w, struct {
				Version   string `json:"version"`
				Commit    string `json:"commit,omitempty"`
				Date      string `json:"date,omitempty"`
				GoVersion string `json:"go_version"`
				Platform  string `json:"platform"`
			}{
				Version:   buildInfo.Current(),
				Commit:    buildInfo.Commit,
				Date:      buildInfo.Date,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			})
		}
		out(w, "multisecret %s\n", formatVersion(buildInfo))
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}
