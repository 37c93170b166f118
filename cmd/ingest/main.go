// Command ingest fetches a historical window for every configured symbol,
// persists it to both sinks and prints the fetched bars as a table.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"stock_ingest/internal/app/di"
	"stock_ingest/internal/feature/bars/domain/entity"
	"stock_ingest/internal/platform/config"
	"stock_ingest/internal/platform/logger"
)

const defaultTimeout = 5 * time.Minute

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := config.Flags("ingest")
	flags.String("start", "", "window start, YYYY-MM-DD or YYYY-MM-DD HH:MM:SS (default: 7 days ago)")
	flags.String("end", "", "window end, exclusive (default: now)")
	flags.Duration("timeout", defaultTimeout, "overall deadline")
	flags.Bool("quiet", false, "do not print the fetched table")
	cfg, err := config.Load(flags, args)
	if err != nil {
		return err
	}
	syncLog, err := logger.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = syncLog() }()

	startArg, _ := flags.GetString("start")
	endArg, _ := flags.GetString("end")
	start, end, err := window(startArg, endArg, time.Now().UTC())
	if err != nil {
		return err
	}
	timeout, _ := flags.GetDuration("timeout")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close connections", "error", err)
		}
	}()

	bars, err := app.Ingest.IngestAll(ctx, start, end)
	if err != nil {
		return err
	}
	if quiet, _ := flags.GetBool("quiet"); !quiet {
		return printTable(out, entity.BarsToTable(bars))
	}
	return nil
}

// window resolves the --start/--end flags in UTC.
func window(startArg, endArg string, now time.Time) (time.Time, time.Time, error) {
	end := now
	if endArg != "" {
		t, err := parseDate(endArg)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
		end = t
	}
	start := end.AddDate(0, 0, -7)
	if startArg != "" {
		t, err := parseDate(startArg)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--start %s is not before --end %s",
			entity.FormatTime(start), entity.FormatTime(end))
	}
	return start, end, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := entity.ParseTime(s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func printTable(w io.Writer, t entity.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t")+"\t")
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d rows\n", t.Len())
	return err
}
