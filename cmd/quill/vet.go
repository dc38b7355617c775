package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/driver"
)

var vetCmd = &cobra.Command{
	Use:   "vet [flags] [file.qpk|directory ...]",
	Short: "Check program snapshots for internal consistency",
	Long: `Vet decodes program snapshots and reports construction, reference and
shape problems. Directories are walked recursively. Without arguments
the [programs] paths from the project manifest are vetted`,
	Args: cobra.ArbitraryArgs,
	RunE: runVet,
}

func init() {
	vetCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	vetCmd.Flags().String("stage", "all", "how far to run the pipeline (decode|all)")
	vetCmd.Flags().Bool("no-warnings", false, "drop warnings from the output")
	vetCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	vetCmd.Flags().Int("jobs", 0, "max parallel workers (0 = number of CPUs)")
	vetCmd.Flags().Bool("with-notes", false, "include diagnostic notes in the output")
	vetCmd.Flags().Bool("fullpath", false, "print absolute file paths")
	vetCmd.Flags().String("ui", "auto", "progress interface (auto|on|off)")
	vetCmd.Flags().Bool("stats", false, "print per-file term statistics")
}

// runVet executes the "vet" command: it expands the arguments or the
// project manifest into snapshot files, runs the pipeline over them,
// renders the findings in the requested format and exits nonzero when
// any file has errors.
func runVet(cmd *cobra.Command, args []string) error {
	// Получаем флаги
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	stageFlag, err := cmd.Flags().GetString("stage")
	if err != nil {
		return fmt.Errorf("failed to get stage flag: %w", err)
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	showStats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return fmt.Errorf("failed to get stats flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}

	// Конвертируем строку стадии в тип
	var stage driver.VetStage
	switch stageFlag {
	case "decode":
		stage = driver.VetStageDecode
	case "all":
		stage = driver.VetStageAll
	default:
		return fmt.Errorf("unknown stage value: %s", stageFlag)
	}

	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	prettyOpts := diagfmt.PrettyOpts{Color: useColor, PathMode: pathMode, ShowNotes: withNotes}
	jsonOpts := diagfmt.JSONOpts{PathMode: pathMode, IncludeNotes: withNotes}

	// Диагностики напечатаны, код возврата ненулевой, usage не нужен.
	silentExit := func() error {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}

	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()

	cleanupProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanupProf()

	files, manifestDiag, err := resolveVetInputs(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("vet failed: %w", err)
	}
	if manifestDiag != nil {
		// Проблемы манифеста рендерим тем же форматтером, что и обычные находки
		bag := diag.NewBag(1)
		bag.Add(*manifestDiag)
		switch format {
		case "short":
			diagfmt.Short(os.Stdout, "quill.toml", bag, pathMode)
		case "json":
			if err := diagfmt.JSON(os.Stdout, "quill.toml", bag, jsonOpts); err != nil {
				return err
			}
		default:
			diagfmt.Pretty(os.Stdout, "quill.toml", bag, prettyOpts)
		}
		return silentExit()
	}
	if len(files) == 0 {
		return fmt.Errorf("no snapshot files found")
	}

	opts := driver.VetOptions{
		Stage:            stage,
		MaxDiagnostics:   maxDiagnostics,
		IgnoreWarnings:   noWarnings,
		WarningsAsErrors: warningsAsErrors,
		EnableTimings:    showTimings,
	}

	ctx := cmd.Context()
	var results []driver.VetResult
	if shouldUseTUI(mode, format) {
		_, results, err = runVetWithUI(ctx, "quill vet", files, jobs, opts)
	} else {
		_, results, err = driver.VetFiles(ctx, files, jobs, opts)
	}
	if err != nil {
		return fmt.Errorf("vet failed: %w", err)
	}

	// Считаем итоги до рендера: сводка и код возврата зависят от них
	exitNonzero := false
	errorCount := 0
	warningCount := 0
	for i := range results {
		if results[i].Bag.HasErrors() {
			exitNonzero = true
		}
		for _, d := range results[i].Bag.Items() {
			switch d.Severity {
			case diag.SevError:
				errorCount++
			case diag.SevWarning:
				warningCount++
			}
		}
	}

	displayPath := func(p string) string {
		if fullPath {
			if abs, absErr := filepath.Abs(p); absErr == nil {
				return abs
			}
		}
		return p
	}

	switch format {
	case "short":
		for i := range results {
			diagfmt.Short(os.Stdout, results[i].Path, results[i].Bag, pathMode)
		}
	case "json":
		if len(results) == 1 {
			if err := diagfmt.JSON(os.Stdout, results[0].Path, results[0].Bag, jsonOpts); err != nil {
				return err
			}
		} else if err := renderVetJSON(os.Stdout, results, displayPath, jsonOpts); err != nil {
			return err
		}
	default:
		for i := range results {
			r := &results[i]
			// Заголовки нужны только при нескольких файлах
			if len(results) > 1 && !quiet {
				if i > 0 {
					fmt.Fprintln(os.Stdout)
				}
				fmt.Fprintf(os.Stdout, "== %s ==\n", displayPath(r.Path))
			}
			diagfmt.Pretty(os.Stdout, r.Path, r.Bag, prettyOpts)
			if showStats {
				fmt.Fprintf(os.Stdout, "  structs=%d traits=%d impls=%d clauses=%d\n",
					r.Stats.Structs, r.Stats.Traits, r.Stats.Impls, r.Stats.Clauses)
			}
		}
		if !quiet {
			fmt.Fprintf(os.Stdout, "vetted %d file(s): %d error(s), %d warning(s)\n",
				len(results), errorCount, warningCount)
		}
	}

	if exitNonzero {
		return silentExit()
	}
	return nil
}

// renderVetJSON печатает находки по нескольким файлам одним JSON-объектом,
// ключи которого совпадают с путями в остальном выводе.
func renderVetJSON(w io.Writer, results []driver.VetResult, displayPath func(string) string, opts diagfmt.JSONOpts) error {
	out := make(map[string]diagfmt.DiagnosticsOutput, len(results))
	for i := range results {
		out[displayPath(results[i].Path)] = diagfmt.BuildDiagnosticsOutput(results[i].Path, results[i].Bag, opts)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
