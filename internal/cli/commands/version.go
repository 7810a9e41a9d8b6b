package commands

import (
	"fmt"
	"runtime"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/spf13/cobra"
)

// versionInfo is the JSON output of the version command.
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display rulecraft version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{
				Version:   version,
				Commit:    commit,
				BuildDate: buildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}

			mode := output.ModeAuto
			if cfg, err := getConfig(cmd); err == nil {
				mode = output.Mode(cfg.OutputFormat)
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(info)
			}
			r.Printf("rulecraft v%s\n", info.Version)
			r.Println(fmt.Sprintf("commit %s, built %s, %s %s", info.Commit, info.BuildDate, info.GoVersion, info.Platform))
			return nil
		},
	}
}
