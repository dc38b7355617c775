package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/progfmt"
	"quill/internal/source"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <file.qpk>",
	Short: "Decode a snapshot and print its program",
	Long: `Inspect decodes a program snapshot without checking it and prints
the items as a readable outline or as structural JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("format", "outline", "output format (outline|json)")
}

// runInspect executes the "inspect" command: decode one snapshot and
// dump its program to stdout. Decode problems go to stderr.
func runInspect(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "outline", "json":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	// Интернер нужен здесь явно: progfmt резолвит имена через него.
	in := source.NewInterner()
	res, err := driver.VetFile(cmd.Context(), filePath, driver.VetOptions{
		Stage:          driver.VetStageDecode,
		MaxDiagnostics: maxDiagnostics,
		Interner:       in,
	})
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	// Диагностики уходят в stderr, чтобы дамп программы в stdout
	// оставался пригодным для конвейеров.
	if res.Bag.Len() > 0 {
		useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))
		diagfmt.Pretty(os.Stderr, filePath, res.Bag, diagfmt.PrettyOpts{
			Color:     useColor,
			ShowNotes: true,
		})
	}

	// Без программы печатать нечего: диагностики уже показаны.
	if res.Program == nil {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}

	switch format {
	case "json":
		return progfmt.JSON(os.Stdout, res.Program, in)
	default:
		return progfmt.Outline(os.Stdout, res.Program, in)
	}
}
