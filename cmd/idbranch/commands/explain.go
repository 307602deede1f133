package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/idbranch/internal/log"
	"github.com/l3aro/idbranch/pkg/frontend"
	"github.com/l3aro/idbranch/pkg/idcheck"
	"github.com/l3aro/idbranch/pkg/kast"
	"github.com/l3aro/idbranch/pkg/lint"
	"github.com/l3aro/idbranch/pkg/render"
)

var explainCmd = &cobra.Command{
	Use:   "explain <file> [function]",
	Short: "Show how a function's loops were classified",
	Long: `Prints the ID-dependent variables and struct fields of a function in
the order they were recorded, every loop with the classification of its
condition, and the resulting diagnostics.

Without a function name the function definitions of the file are listed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]

		info, err := os.Stat(filePath)
		if err != nil {
			return fmt.Errorf("stat file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("path is a directory, expected a file: %s", filePath)
		}

		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := applyIDFuncFlags(cmd, cfg); err != nil {
			return err
		}
		opts := lint.Options{
			IDFunctions: cfg.EffectiveIDFunctions(),
			Qualifiers:  cfg.Qualifiers,
			Logger:      log.Default(),
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			names, err := lint.Functions(cmd.Context(), filePath, opts)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(out, names)
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		functionName := args[1]
		report, err := lint.Explain(cmd.Context(), filePath, functionName, opts)
		if err != nil {
			if errors.Is(err, frontend.ErrNoFunction) {
				return fmt.Errorf("function %q not found in %s", functionName, filePath)
			}
			return fmt.Errorf("explaining %s: %w", functionName, err)
		}

		if jsonOutput {
			return writeJSON(out, newExplainView(report))
		}
		return printExplain(out, filePath, report)
	},
}

type recordView struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Origin string   `json:"origin"`
	From   string   `json:"from,omitempty"`
	At     kast.Pos `json:"pos"`
	Source kast.Pos `json:"source"`
	Chain  []string `json:"chain"`
}

type loopView struct {
	Kind      string   `json:"kind"`
	Keyword   kast.Pos `json:"pos"`
	Condition kast.Pos `json:"condition,omitzero"`
	Class     string   `json:"class"`
	Via       string   `json:"via,omitempty"`
}

type explainView struct {
	Function string          `json:"function"`
	Records  []recordView    `json:"records"`
	Loops    []loopView      `json:"loops"`
	Events   []idcheck.Event `json:"events"`
}

func newExplainView(report *idcheck.Report) explainView {
	v := explainView{
		Function: report.Function,
		Records:  make([]recordView, 0, len(report.Records)),
		Loops:    make([]loopView, 0, len(report.Loops)),
		Events:   report.Events,
	}
	if v.Events == nil {
		v.Events = []idcheck.Event{}
	}
	for _, r := range report.Records {
		rv := recordView{
			Name:   r.Name,
			Kind:   r.Key.Kind.String(),
			Origin: r.Origin.String(),
			At:     r.At,
			Source: r.Source,
		}
		chain := report.Chain(r.Key)
		if len(chain) > 1 {
			rv.From = chain[1].Name
		}
		for _, link := range chain {
			rv.Chain = append(rv.Chain, link.Name)
		}
		v.Records = append(v.Records, rv)
	}
	for _, l := range report.Loops {
		v.Loops = append(v.Loops, loopView{
			Kind:      l.Kind.String(),
			Keyword:   l.Keyword,
			Condition: l.CondPos,
			Class:     l.Classification.Class.String(),
			Via:       l.Classification.Name,
		})
	}
	return v
}

func printExplain(w io.Writer, path string, report *idcheck.Report) error {
	v := newExplainView(report)

	fmt.Fprintf(w, "=== %s: %s ===\n", path, v.Function)

	fmt.Fprintf(w, "\nID-dependent entities (%d):\n", len(v.Records))
	for _, r := range v.Records {
		fmt.Fprintf(w, "  %s (%s) %s at %s", r.Name, r.Kind, r.Origin, r.At)
		if len(r.Chain) > 1 {
			fmt.Fprintf(w, ": %s", strings.Join(r.Chain, " <- "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nLoops (%d):\n", len(v.Loops))
	for _, l := range v.Loops {
		fmt.Fprintf(w, "  %s at %s: %s", l.Kind, l.Keyword, l.Class)
		if l.Via != "" {
			fmt.Fprintf(w, " %s", l.Via)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nDiagnostics (%d):\n", len(v.Events))
	printer := render.NewPrinter(w, false)
	for _, ev := range v.Events {
		if err := printer.Event(path, ev); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	explainCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	explainCmd.Flags().StringArray("id-func", nil, "Add identifier functions, comma separated; prefix with '-' to remove one")
	RootCmd.AddCommand(explainCmd)
}
