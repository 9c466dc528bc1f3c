package main

import (
	"fmt"

	"github.com/kasu/retention-backend/internal/risk"
	"github.com/spf13/cobra"
)

func newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print the encoded feature vector for a student record",
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := readAttributes(cmd)
			if err != nil {
				return err
			}
			fv, err := risk.Encode(attrs)
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), fv.Map())
			}

			out := cmd.OutOrStdout()
			for i, v := range fv.Values() {
				fmt.Fprintf(out, "%-24s %g\n", risk.FeatureNames[i], v)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the features as a JSON object")
	return cmd
}
