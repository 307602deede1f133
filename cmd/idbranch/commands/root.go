// Package commands provides the CLI commands for idbranch.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/idbranch/internal/config"
	"github.com/l3aro/idbranch/internal/log"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "idbranch",
	Short: "idbranch - find ID-dependent backward branches in OpenCL kernels",
	Long: `idbranch reports loops whose exit condition depends on a work-item
identifier such as get_local_id. Work-items of one group then iterate a
different number of times, which hurts FPGA pipelining.

Commands:
  check       Check files and directories for ID-dependent loops
  explain     Show the dependency table and loop classification of a function
  id-funcs    List the identifier functions in effect
  doctor      Verify configuration, parser and cache
  init        Create a configuration file interactively

Use "idbranch [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.Default().SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig loads the --config file when given, the layered
// configuration otherwise. The returned path is the most specific config
// file in use, empty when only defaults apply.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, configPath, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}

	effectivePath := ""
	if fileExists(config.ProjectConfigFilePath()) {
		effectivePath = config.ProjectConfigFilePath()
	} else if fileExists(config.GlobalConfigFilePath()) {
		effectivePath = config.GlobalConfigFilePath()
	}
	if cfg.Verbose {
		log.Default().SetLevel(log.DebugLevel)
	}
	return cfg, effectivePath, nil
}

// applyIDFuncFlags merges repeated --id-func values over the configured
// overrides.
func applyIDFuncFlags(cmd *cobra.Command, cfg *config.Config) error {
	values, _ := cmd.Flags().GetStringArray("id-func")
	if len(values) == 0 {
		return nil
	}
	if cfg.IDFunctions == nil {
		cfg.IDFunctions = make(map[string]bool)
	}
	for _, v := range values {
		for name, on := range config.ParseIDFunctionList(v) {
			cfg.IDFunctions[name] = on
		}
	}
	return cfg.Validate()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: layered ~/.idbranch and ./.idbranch)")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
}
