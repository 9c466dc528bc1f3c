package main

import (
	"time"

	"github.com/kasu/retention-backend/internal/risk"
	"github.com/kasu/retention-backend/internal/scoring"
	"github.com/spf13/cobra"
)

type scoreOutput struct {
	Features map[string]float64 `json:"features"`
	Score    risk.Score         `json:"score"`
	Strategy risk.Strategy      `json:"strategy"`
	Display  string             `json:"intervention_strategy"`
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a student record and print the intervention strategy",
		Long: "score runs the full assessment. Without --model or --remote it issues a demo score;\n" +
			"use --seed to make demo scores reproducible.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cmdLogger(cmd)

			attrs, err := readAttributes(cmd)
			if err != nil {
				return err
			}

			capability, err := capabilityFromFlags(cmd)
			if err != nil {
				return err
			}

			var opts []risk.ScorerOption
			if seed, _ := cmd.Flags().GetUint64("seed"); seed != 0 {
				opts = append(opts, risk.WithRandomSource(risk.NewRandomSource(seed)))
			}
			assessor := risk.NewAssessor(risk.NewScorer(log, opts...))

			a, err := assessor.Assess(cmd.Context(), attrs, capability)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), scoreOutput{
				Features: a.Features.Map(),
				Score:    a.Score,
				Strategy: a.Strategy,
				Display:  a.Strategy.String(),
			})
		},
	}
	cmd.Flags().String("model", "", "Path to a model document")
	cmd.Flags().String("remote", "", "Base URL of a remote inference service")
	cmd.Flags().Duration("remote-timeout", 2*time.Second, "Timeout for remote inference calls")
	cmd.Flags().Uint64("seed", 0, "Seed for demo scores")
	cmd.MarkFlagsMutuallyExclusive("model", "remote")
	return cmd
}

// capabilityFromFlags returns nil when neither --model nor --remote is set.
func capabilityFromFlags(cmd *cobra.Command) (risk.Capability, error) {
	if url, _ := cmd.Flags().GetString("remote"); url != "" {
		timeout, _ := cmd.Flags().GetDuration("remote-timeout")
		return scoring.NewRemoteScorer(url, timeout), nil
	}
	path, _ := cmd.Flags().GetString("model")
	if path == "" {
		return nil, nil
	}
	doc, err := scoring.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return doc.Capability()
}
