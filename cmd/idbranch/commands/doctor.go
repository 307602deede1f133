package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/idbranch/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on configuration, parser and cache",
	Long: `Checks the configuration, parses a probe kernel to verify the OpenCL
frontend and analysis, and verifies that the result cache can be read.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, configPath, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		result, err := healthcheck.Check(cmd.Context(), cfg, configPath)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(cmd.OutOrStdout(), result)

		if result.Failed() {
			return fmt.Errorf("health check failed: one or more components are not working")
		}

		return nil
	},
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	if result.EffectivePath == "" {
		fmt.Fprintf(w, "Using config: built-in defaults\n\n")
	} else {
		fmt.Fprintf(w, "Using config: %s (%s)\n\n", result.EffectivePath, result.EffectiveScope)
	}

	fmt.Fprintf(w, "Identifier functions (%d):\n", len(result.IDFunctions))
	fmt.Fprintf(w, "  %s\n", strings.Join(result.IDFunctions, ", "))

	for _, c := range []healthcheck.ComponentStatus{result.Parser, result.Cache} {
		fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(c.Name[:1])+c.Name[1:])
		if c.Detail != "" {
			fmt.Fprintf(w, "  %s\n", c.Detail)
		}
		fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(c.Status), c.Status)
		if c.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", c.Error)
		}
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusEmpty, healthcheck.StatusDisabled:
		return "○"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
