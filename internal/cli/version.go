package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/output"
	"github.com/mrz1836/phantom-sandbox/internal/version"
)

// versionCheckTimeout bounds the release lookup.
const versionCheckTimeout = 15 * time.Second

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	// buildVersion, buildCommit and buildDate are stamped by main.
	buildVersion string
	buildCommit  string
	buildDate    string

	versionCheck bool
	// releaseChecker is replaced in tests.
	releaseChecker = version.NewChecker()
)

// SetBuildInfo records the values stamped into the binary at link time.
func SetBuildInfo(v, commit, date string) {
	buildVersion, buildCommit, buildDate = v, commit, date
	rootCmd.Version = version.Current(v, commit, date).Version
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Show the sandbox version, commit and Go toolchain. With --check the
latest GitHub release is fetched and compared with the running version.`,
	Example: `  sandbox version
  sandbox version --check -o json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.GroupID = "config"
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()
	build := version.Current(buildVersion, buildCommit, buildDate)

	var check *version.Check
	if versionCheck {
		ctx, cancel := contextWithTimeout(cmd, versionCheckTimeout)
		defer cancel()

		var err error
		check, err = releaseChecker.Check(ctx, build.Version)
		if err != nil {
			return err
		}
	}

	if cc.Fmt.IsJSON() {
		return writeJSON(w, struct {
			version.Build

			Update *version.Check `json:"update,omitempty"`
		}{build, check})
	}

	out(w, "sandbox %s\n", build.Version)
	if build.Commit != "" {
		out(w, "  commit: %s\n", build.Commit)
	}
	if build.Date != "" {
		out(w, "  built:  %s\n", build.Date)
	}
	out(w, "  go:     %s %s\n", build.GoVersion, build.Platform)

	if check != nil {
		outln(w)
		if check.IsNewer {
			output.Warn(w, "A newer release is available: %s (%s)", check.Latest, check.URL)
		} else {
			output.Success(w, "You are running the latest release (%s)", check.Latest)
		}
	}
	return nil
}
