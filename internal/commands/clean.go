package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loanlens/loanlens/internal/model"
	"github.com/loanlens/loanlens/internal/snapshot"
)

func newCleanCommand(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Write the normalized snapshots as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, flags)
			if err != nil {
				return err
			}
			if err := e.validate(); err != nil {
				return err
			}
			ctx := e.logger(cmd.ErrOrStderr()).WithContext(commandContext(cmd))
			return runClean(ctx, cmd, e, out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV file (stdout when empty)")

	return cmd
}

func runClean(ctx context.Context, cmd *cobra.Command, e *env, out string) error {
	records, _, _, err := e.loadRecords(ctx)
	if err != nil {
		return err
	}

	raw := make([]model.RawRecord, 0, len(records))
	for _, r := range records {
		if !e.asOf.IsZero() && r.ReportDate.After(e.asOf) {
			continue
		}
		raw = append(raw, r.Raw())
	}

	w, closeOut, err := openOutput(cmd, out)
	if err != nil {
		return err
	}
	if err := snapshot.WriteRecords(w, raw); err != nil {
		closeOut()
		return fmt.Errorf("writing clean records: %w", err)
	}
	return closeOut()
}
