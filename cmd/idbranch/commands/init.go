package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/idbranch/internal/config"
	"github.com/l3aro/idbranch/internal/healthcheck"
	"github.com/l3aro/idbranch/pkg/idcheck"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize idbranch configuration interactively",
	Long: `Guides you through setting up idbranch configuration step by step.
Creates a config file with the identifier functions to track, the output
format and cache settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

func runInit(cmd *cobra.Command) error {
	// === SECTION 1: Identifier functions ===
	builtin := idcheck.DefaultIDFunctions().Names()
	options := make([]huh.Option[string], 0, len(builtin))
	for _, name := range builtin {
		options = append(options, huh.NewOption(name, name).Selected(true))
	}

	var selected []string
	var extra string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Identifier functions").
				Description("Calls to these functions yield a per-work-item value").
				Options(options...).
				Value(&selected),
			huh.NewInput().
				Title("Additional identifier functions").
				Description("Comma separated, for wrappers such as my_lane_id").
				Placeholder("my_lane_id, my_group_id").
				Value(&extra),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Output and cache ===
	outputChoice := string(config.OutputText)
	useCache := true
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Description("Format used by 'idbranch check' unless --json is given").
				Options(
					huh.NewOption("Text (compiler style)", string(config.OutputText)),
					huh.NewOption("JSON", string(config.OutputJSON)),
				).
				Value(&outputChoice),
			huh.NewConfirm().
				Title("Cache results").
				Description("Skip unchanged files on later runs").
				Affirmative("Yes").
				Negative("No").
				Value(&useCache),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.idbranch/config.yaml)", "global"),
					huh.NewOption("Project (./.idbranch/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	// === Build config struct ===
	cfg := config.DefaultConfig()
	cfg.IDFunctions = idFunctionOverrides(builtin, selected, extra)
	cfg.Output = config.OutputFormat(outputChoice)
	cfg.Cache = useCache

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== Configuration Preview ===")
	fmt.Fprintf(out, "Config path: %s\n", configPath)
	fmt.Fprintf(out, "Identifier functions: %s\n", strings.Join(cfg.EffectiveIDFunctions().Names(), ", "))
	fmt.Fprintf(out, "Output: %s\n", cfg.Output)
	fmt.Fprintf(out, "Cache: %v\n", cfg.Cache)
	fmt.Fprintln(out, "================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)

	// === SECTION 4: Health Check ===
	fmt.Fprintln(out, "\n=== Running Health Check ===")
	loadedCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		absPath = configPath
	}
	result, err := healthcheck.Check(cmd.Context(), loadedCfg, absPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	displayDoctorResult(out, result)
	return nil
}

// idFunctionOverrides turns the wizard answers into config overrides:
// unselected built-ins are disabled and extra names are added.
func idFunctionOverrides(builtin, selected []string, extra string) map[string]bool {
	overrides := make(map[string]bool)
	chosen := make(map[string]bool, len(selected))
	for _, name := range selected {
		chosen[name] = true
	}
	for _, name := range builtin {
		if !chosen[name] {
			overrides[name] = false
		}
	}
	for name, on := range config.ParseIDFunctionList(extra) {
		overrides[name] = on
	}
	if len(overrides) == 0 {
		return nil
	}
	return overrides
}

func init() {
	RootCmd.AddCommand(initCmd)
}
