package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/loanlens/loanlens/internal/export"
	"github.com/loanlens/loanlens/internal/report"
	"github.com/loanlens/loanlens/internal/runlog"
)

type reportFlags struct {
	out         string
	format      string
	topN        int
	perBorrower bool
}

var reportShort = map[string]string{
	report.NameWeeklyTrend: "Weekly balance trend for the top borrowers",
	report.NameRisk:        "Borrowers past the risk thresholds with deteriorating signals",
	report.NameRecovery:    "Daily recovery rate and cumulative repayment",
	report.NameRecoveryMA:  "Moving average of the daily recovery rate",
}

func newReportCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a loan report",
	}
	for _, name := range report.Names {
		cmd.AddCommand(newReportSubcommand(flags, name))
	}
	return cmd
}

func newReportSubcommand(flags *globalFlags, name string) *cobra.Command {
	rf := &reportFlags{}

	cmd := &cobra.Command{
		Use:   name,
		Short: reportShort[name],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				e.cfg.Output.Format = rf.format
			}
			if cmd.Flags().Changed("top-n") {
				e.cfg.Report.TopN = rf.topN
			}
			if err := e.validate(); err != nil {
				return err
			}
			if rf.out != "" && e.cfg.Output.Format != "csv" {
				return fmt.Errorf("--out writes CSV and cannot be used with %s output", e.cfg.Output.Format)
			}
			ctx := e.logger(cmd.ErrOrStderr()).WithContext(commandContext(cmd))
			return runReport(ctx, cmd, e, name, rf)
		},
	}

	cmd.Flags().StringVarP(&rf.out, "out", "o", "", "output CSV file (overrides output.path)")
	cmd.Flags().StringVar(&rf.format, "format", "", "output format: csv or sqlite (overrides output.format)")
	switch name {
	case report.NameWeeklyTrend:
		cmd.Flags().IntVar(&rf.topN, "top-n", 0, "number of borrowers to report (overrides report.top_n)")
	case report.NameRecovery, report.NameRecoveryMA:
		cmd.Flags().BoolVar(&rf.perBorrower, "per-borrower", false, "compute the series per borrower instead of for the portfolio")
	}

	return cmd
}

func runReport(ctx context.Context, cmd *cobra.Command, e *env, name string, rf *reportFlags) error {
	logger := zerolog.Ctx(ctx)

	records, stats, desc, err := e.loadRecords(ctx)
	if err != nil {
		return err
	}

	opts := report.OptionsFrom(e.cfg.Report)
	opts.AsOf = e.asOf
	opts.PerBorrower = rf.perBorrower

	res, err := report.Run(ctx, name, records, opts)
	if err != nil {
		return fmt.Errorf("building %s report: %w", name, err)
	}
	if res.Anchor.IsZero() {
		logger.Warn().Str("report", name).Msg("no snapshots in scope, report is empty")
	}

	if err := writeResult(ctx, cmd, e, res.Table, rf.out); err != nil {
		return err
	}
	logger.Info().
		Str("report", name).
		Int("rows", len(res.Table.Rows)).
		Time("anchor", res.Anchor).
		Msg("report written")

	entry := runlog.Entry{
		Timestamp: time.Now(),
		Report:    name,
		Source:    desc,
		RowsRead:  stats.Read,
		RowsKept:  stats.Kept,
		RowsOut:   len(res.Table.Rows),
		Anchor:    res.Anchor,
	}
	if err := runlog.Open(e.root).Append(entry); err != nil {
		logger.Warn().Err(err).Msg("failed to append run log")
	}
	return nil
}

// writeResult sends the table to the configured sink.
func writeResult(ctx context.Context, cmd *cobra.Command, e *env, t export.Table, out string) error {
	if e.cfg.Output.Format == "sqlite" {
		db, err := export.SQLite(ctx, e.resolve(e.cfg.Output.DSN))
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := export.WriteSQL(ctx, db, t)
		if err != nil {
			return fmt.Errorf("writing %s: %w", t.Name, err)
		}
		zerolog.Ctx(ctx).Info().Str("table", t.Name).Int64("rows", n).Msg("stored report table")
		return nil
	}

	path := out
	if path == "" {
		path = e.resolve(e.cfg.Output.Path)
	}
	w, closeOut, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(w, t); err != nil {
		closeOut()
		return fmt.Errorf("writing %s: %w", t.Name, err)
	}
	return closeOut()
}
