package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/football-sync/internal/app"
	"github.com/riskibarqy/football-sync/internal/domain/syncrun"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type runSummary struct {
	ID          string          `json:"id"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	ScopeFrom   time.Time       `json:"scope_from"`
	ScopeTo     time.Time       `json:"scope_to"`
	EntityTypes []string        `json:"entity_types,omitempty"`
	FinalState  string          `json:"final_state"`
	FailedStep  string          `json:"failed_step,omitempty"`
	ExitCode    int             `json:"exit_code"`
	Report      json.RawMessage `json:"report,omitempty"`
}

func newHistoryCommand() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the most recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(app.Options{})
			if err != nil {
				return err
			}
			defer rt.Close()

			var runs []syncrun.Run
			err = rt.app.Store.WithinTx(cmd.Context(), func(ctx context.Context, tx usecase.Tx) error {
				runs, err = tx.SyncRuns().ListRecent(ctx, limitFlag)
				return err
			})
			if err != nil {
				return err
			}

			out := make([]runSummary, 0, len(runs))
			for _, run := range runs {
				out = append(out, summarizeRun(run))
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 10, "Number of runs to show")
	return cmd
}

func summarizeRun(run syncrun.Run) runSummary {
	summary := runSummary{
		ID:          run.ID,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		ScopeFrom:   run.ScopeFrom,
		ScopeTo:     run.ScopeTo,
		EntityTypes: run.EntityTypes,
		FinalState:  run.FinalState,
		FailedStep:  run.FailedStep,
		ExitCode:    run.ExitCode,
	}
	if len(run.Report) > 0 {
		summary.Report = json.RawMessage(run.Report)
	}
	return summary
}
