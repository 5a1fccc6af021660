package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/football-sync/internal/app"
	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type remapResult struct {
	EntityType         string `json:"entity_type"`
	Source             string `json:"source"`
	ProviderID         string `json:"provider_id"`
	InternalID         string `json:"internal_id"`
	PreviousInternalID string `json:"previous_internal_id,omitempty"`
}

func newRemapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remap <team|player|match> <thesportsdb|football_data> <provider-id> <internal-id>",
		Short: "Point a provider id at a different internal entity",
		Long: `Rebinds one external-id mapping. This is the only way to change an
existing mapping; sync runs never overwrite one.`,
		Example: `  football-sync remap player football_data 3189 8e0f6c1e-5b7a-4c0e-9d55-0c6a3b1f2a10`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := externalid.ParseEntityType(args[0])
			if err != nil {
				return err
			}
			source, err := parseSource(args[1])
			if err != nil {
				return err
			}

			rt, err := newRuntime(app.Options{})
			if err != nil {
				return err
			}
			defer rt.Close()

			result := remapResult{
				EntityType: string(entityType),
				Source:     string(source),
				ProviderID: strings.TrimSpace(args[2]),
				InternalID: strings.TrimSpace(args[3]),
			}
			err = rt.app.Store.WithinTx(cmd.Context(), func(ctx context.Context, tx usecase.Tx) error {
				previous, err := rt.app.Resolver.Correct(ctx, tx, entityType, source, result.ProviderID, result.InternalID)
				if err != nil {
					return err
				}
				result.PreviousInternalID = previous
				return nil
			})
			if err != nil {
				return fmt.Errorf("remap: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	return cmd
}

func parseSource(raw string) (usecase.Source, error) {
	switch v := usecase.Source(strings.ToLower(strings.TrimSpace(raw))); v {
	case usecase.SourceTheSportsDB, usecase.SourceFootballData:
		return v, nil
	default:
		return "", fmt.Errorf("%w: unknown source %q", usecase.ErrInvalidInput, raw)
	}
}
