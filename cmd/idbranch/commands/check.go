package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/l3aro/idbranch/internal/config"
	"github.com/l3aro/idbranch/internal/log"
	"github.com/l3aro/idbranch/internal/scanner"
	"github.com/l3aro/idbranch/pkg/cache"
	"github.com/l3aro/idbranch/pkg/lint"
	"github.com/l3aro/idbranch/pkg/render"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check files and directories for ID-dependent backward branches",
	Long: `Parses every OpenCL or C file under the given paths (default: the
current directory) and reports loops whose exit condition depends on a
work-item identifier, directly or through variables and struct fields.

Each warning is followed by notes tracing the dependency back to the
identifier query. The command exits with status 1 when warnings were
reported and 2 when a file could not be checked.

Examples:
  idbranch check
  idbranch check kernels/ reduce.cl
  idbranch check --id-func my_lane_id --id-func -get_global_size src/
  idbranch check --json kernels/ > report.json`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := applyIDFuncFlags(cmd, cfg); err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	jsonOutput = jsonOutput || cfg.Output == config.OutputJSON
	noCache, _ := cmd.Flags().GetBool("no-cache")
	noColor, _ := cmd.Flags().GetBool("no-color")
	if cmd.Flags().Changed("jobs") {
		cfg.Jobs, _ = cmd.Flags().GetInt("jobs")
		if cfg.Jobs < 0 {
			return fmt.Errorf("--jobs must be non-negative")
		}
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	logger := log.Default()

	scanOpts := scanner.DefaultOptions()
	scanOpts.Extensions = cfg.Extensions
	files, err := scanner.New(scanOpts).Collect(args)
	if err != nil {
		return err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	logger.Debug("collected files", "count", len(paths))

	opts := lint.Options{
		IDFunctions: cfg.EffectiveIDFunctions(),
		Qualifiers:  cfg.Qualifiers,
		Jobs:        cfg.Jobs,
		Logger:      logger,
	}

	if cfg.Cache && !noCache {
		rc, err := cache.Open[lint.FileResult](cfg.CachePath, 0)
		if err != nil {
			logger.Warn("cache reset", "error", err)
		}
		opts.Cache = rc
		defer func() {
			if err := rc.Close(); err != nil {
				logger.Warn("saving cache failed", "path", cfg.CachePath, "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	results, err := runWithSpinner(ctx, paths, opts, !jsonOutput && log.IsTerminal(os.Stderr))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := render.JSON(out, results); err != nil {
			return err
		}
	} else {
		printer := render.NewPrinter(out, !noColor && log.IsTerminal(os.Stdout))
		if err := printer.Text(results); err != nil {
			return err
		}
		summary := render.NewPrinter(cmd.ErrOrStderr(), false)
		if err := summary.Summary(results); err != nil {
			return err
		}
	}

	if failed := lint.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d files could not be checked", len(failed), len(results))
	}
	if lint.Warnings(results) > 0 {
		return lint.ErrWarnings
	}
	return nil
}

func runWithSpinner(ctx context.Context, paths []string, opts lint.Options, interactive bool) ([]*lint.FileResult, error) {
	if !interactive || len(paths) < 2 {
		return lint.Run(ctx, paths, opts)
	}

	spinner := log.NewProgressSpinner(os.Stderr, fmt.Sprintf("checking %d files", len(paths)))
	opts.Progress = func(done, total int) {
		spinner.Message(fmt.Sprintf("checked %d/%d files", done, total))
	}
	spinner.Start()
	defer spinner.Stop()
	return lint.Run(ctx, paths, opts)
}

func init() {
	checkCmd.Flags().BoolP("json", "j", false, "Output diagnostics as JSON")
	checkCmd.Flags().StringArray("id-func", nil, "Add identifier functions, comma separated; prefix with '-' to remove one")
	checkCmd.Flags().IntP("jobs", "J", 0, "Files checked in parallel (0: number of CPUs)")
	checkCmd.Flags().Bool("no-cache", false, "Do not read or write the result cache")
	checkCmd.Flags().Bool("no-color", false, "Disable colored output")
	RootCmd.AddCommand(checkCmd)
}
