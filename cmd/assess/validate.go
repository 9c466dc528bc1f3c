package main

import (
	"fmt"

	"github.com/kasu/retention-backend/internal/scoring"
	"github.com/spf13/cobra"
)

func newValidateModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-model <path>",
		Short: "Check a model document against the schema and feature order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scoring.LoadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := doc.Capability(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s model %q with %d features\n", doc.Kind, doc.Version, len(doc.FeatureNames))
			return nil
		},
	}
}
