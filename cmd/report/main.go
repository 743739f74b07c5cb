// Command report prints the grocery expiry report to the terminal or as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"grocery_bot/internal/app"
	"grocery_bot/internal/config"
	"grocery_bot/internal/render"
	"grocery_bot/internal/report"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default: $GROCERY_CONFIG)")
	asCSV := flag.Bool("csv", false, "write the report as CSV")
	noColor := flag.Bool("no-color", false, "disable colored output")
	stats := flag.Bool("stats", false, "append reminder statistics")
	flag.Parse()

	if err := run(context.Background(), os.Stdout, *configPath, *asCSV, *noColor, *stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, configPath string, asCSV, noColor, stats bool) error {
	cfg, err := config.Load(app.ConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a, err := app.Open(ctx, cfg, app.NewLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	items, err := a.Store.ListActiveItems(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	r := report.Build(items, a.Calc, a.Resolver, time.Now())

	if asCSV {
		return report.WriteCSV(w, r)
	}

	colored := !noColor && term.IsTerminal(int(os.Stdout.Fd()))
	f := render.NewFormatter(colored)
	fmt.Fprint(w, f.Report(r))
	if stats {
		fmt.Fprintf(w, "\n%s\n", f.Stats(a.Engine.Statistics()))
	}
	return nil
}
