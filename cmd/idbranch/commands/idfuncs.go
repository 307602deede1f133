package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/idbranch/pkg/idcheck"
)

var idFuncsCmd = &cobra.Command{
	Use:   "id-funcs",
	Short: "List the identifier functions in effect",
	Long: `Lists the functions whose calls are treated as work-item identifier
queries after built-ins, config files, IDBRANCH_ID_FUNCTIONS and --id-func
overrides are applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := applyIDFuncFlags(cmd, cfg); err != nil {
			return err
		}

		builtin := idcheck.DefaultIDFunctions()
		names := cfg.EffectiveIDFunctions().Names()

		out := cmd.OutOrStdout()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(out, names)
		}
		for _, name := range names {
			origin := "custom"
			if builtin[name] {
				origin = "built-in"
			}
			fmt.Fprintf(out, "%-26s %s\n", name, origin)
		}
		for _, name := range builtin.Names() {
			if !cfg.EffectiveIDFunctions()[name] {
				fmt.Fprintf(out, "%-26s %s\n", name, "disabled")
			}
		}
		return nil
	},
}

func init() {
	idFuncsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	idFuncsCmd.Flags().StringArray("id-func", nil, "Add identifier functions, comma separated; prefix with '-' to remove one")
	RootCmd.AddCommand(idFuncsCmd)
}
