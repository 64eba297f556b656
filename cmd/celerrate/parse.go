package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/celerrate/celerrate/pkg/phpast"
	"github.com/celerrate/celerrate/pkg/phpast/pkg/diag"
)

var (
	ErrNoSourceFiles       = errors.New("no PHP source files given")
	ErrUnsupportedParseFmt = errors.New("unsupported format")
)

const (
	formatJSON    = "json"
	formatCompact = "compact"
	formatTable   = "table"
	formatNone    = "none"
)

func parseCmd() *cobra.Command {
	var phpVersion, output, format string
	var workers int
	var noColor bool

	cmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Parse PHP files into typed syntax trees",
		Long: `Parse PHP source files into typed, dialect-aware syntax trees.

Examples:
  celerrate parse index.php             # Parse a single file
  celerrate parse src/*.php             # Parse several files
  celerrate parse --php 8.1 legacy.php  # Pin the PHP dialect
  cat index.php | celerrate parse -     # Parse from stdin
  celerrate parse -o out.json index.php # Save to file
  celerrate parse -f table index.php    # Show diagnostics as a table
  celerrate parse -f none -w 8 *.php    # Parse only, 8 parallel workers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args, phpVersion, output, format, workers, noColor, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&phpVersion, "php", "", "PHP dialect, e.g. 8.1 (default: celerrate.toml or latest)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format (json, compact, table, none)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	return cmd
}

func runParse(files []string, phpVersion, output, format string, workers int, noColor bool, writer io.Writer) error {
	cfg, _, err := loadConfig(".")
	if err != nil {
		return err
	}

	if phpVersion == "" {
		phpVersion = cfg.PHP.Version
	}

	if format == "" {
		format = cfg.Parse.Format
	}

	if format == "" {
		format = formatJSON
	}

	if workers == 0 {
		workers = cfg.Parse.Workers
	}

	color.NoColor = color.NoColor || noColor //nolint:reassign // intentional override of library global

	parser := parserFor(verbose)

	if len(files) == 0 || (len(files) == 1 && files[0] == "-") {
		return parseStdin(parser, phpVersion, output, format, writer)
	}

	if len(files) > 1 && format == formatNone {
		return runParseParallel(parser, files, phpVersion, workers)
	}

	for _, file := range files {
		err := parseFile(parser, file, phpVersion, output, format, writer)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}
	}

	return nil
}

// runParseParallel maps files concurrently with a bounded worker pool. The
// parser is shared; its grammar-engine pool keeps workers from contending.
// parserFor returns the facade parser. Verbose runs log degraded mappings
// at debug level on stderr; quiet runs keep the default logger.
func parserFor(verbose bool) *phpast.Parser {
	if !verbose {
		return phpast.NewParser()
	}

	return phpast.NewParserWithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}

func runParseParallel(parser *phpast.Parser, files []string, phpVersion string, workers int) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if workers > len(files) {
		workers = len(files)
	}

	fileCh := make(chan string, workers)

	var firstErr atomic.Value

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for file := range fileCh {
				if firstErr.Load() != nil {
					return
				}

				code, err := os.ReadFile(file)
				if err != nil {
					firstErr.CompareAndSwap(nil, fmt.Errorf("failed to read %s: %w", file, err))

					return
				}

				res, err := parser.MapVersion(context.Background(), code, phpVersion)
				if err != nil {
					firstErr.CompareAndSwap(nil, fmt.Errorf("failed to parse %s: %w", file, err))

					return
				}

				runtime.KeepAlive(res)
			}
		}()
	}

	for _, f := range files {
		if firstErr.Load() != nil {
			break
		}

		fileCh <- f
	}

	close(fileCh)
	wg.Wait()

	if errVal := firstErr.Load(); errVal != nil {
		if err, ok := errVal.(error); ok {
			return err
		}
	}

	return nil
}

func parseStdin(parser *phpast.Parser, phpVersion, output, format string, writer io.Writer) error {
	code, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	res, err := parser.MapVersion(context.Background(), code, phpVersion)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	return outputResult(res, "stdin", output, format, writer)
}

func parseFile(parser *phpast.Parser, file, phpVersion, output, format string, writer io.Writer) error {
	code, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	res, err := parser.MapVersion(context.Background(), code, phpVersion)
	if err != nil {
		return err
	}

	if format == formatNone {
		runtime.KeepAlive(res)

		return nil
	}

	return outputResult(res, file, output, format, writer)
}

func outputResult(res *phpast.Result, file, output, format string, writer io.Writer) error {
	if output != "" {
		outputFile, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer outputFile.Close()

		writer = outputFile
	}

	switch format {
	case formatJSON, formatCompact:
		enc := json.NewEncoder(writer)
		if format == formatJSON {
			enc.SetIndent("", "  ")
		}

		encodeErr := enc.Encode(resultToMap(res, file))
		if encodeErr != nil {
			return fmt.Errorf("failed to encode JSON: %w", encodeErr)
		}

		return nil
	case formatTable:
		renderDiagnosticsTable(res, file, writer)

		return nil
	case formatNone:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedParseFmt, format)
	}
}

func resultToMap(res *phpast.Result, file string) map[string]any {
	diags := make([]map[string]any, len(res.Diagnostics))

	for i, d := range res.Diagnostics {
		diags[i] = map[string]any{
			"severity": d.Severity.String(),
			"code":     string(d.Code),
			"span":     d.Span.String(),
			"message":  d.Message,
		}
	}

	return map[string]any{
		"file":        file,
		"dialect":     res.Dialect.String(),
		"ast":         res.Root.ToMap(),
		"diagnostics": diags,
	}
}

func renderDiagnosticsTable(res *phpast.Result, file string, writer io.Writer) {
	if len(res.Diagnostics) == 0 {
		color.New(color.FgGreen).Fprintf(writer, "%s: clean (dialect %s)\n", file, res.Dialect)

		return
	}

	color.New(color.FgYellow).Fprintf(writer, "%s: %d diagnostic(s) (dialect %s)\n",
		file, len(res.Diagnostics), res.Dialect)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(writer)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"Severity", "Code", "Location", "Message"})

	for _, d := range res.Diagnostics {
		tbl.AppendRow(table.Row{severityCell(d.Severity), string(d.Code), d.Span.String(), d.Message})
	}

	tbl.Render()
}

func severityCell(s diag.Severity) string {
	if s == diag.Error {
		return color.New(color.FgRed).Sprint(s.String())
	}

	return color.New(color.FgYellow).Sprint(s.String())
}
