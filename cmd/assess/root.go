package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kasu/retention-backend/internal/logger"
	"github.com/kasu/retention-backend/internal/risk"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "assess",
		Short:         "Offline dropout-risk assessment",
		Long:          "assess encodes and scores student records read as JSON from a file or stdin.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringP("file", "f", "", "Read the student record from this file instead of stdin")
	root.PersistentFlags().String("log-level", "warn", "Log level written to stderr")

	root.AddCommand(newFeaturesCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newValidateModelCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "assess", version)
		},
	})

	return root
}

// cmdLogger writes console logs to the command's error stream.
func cmdLogger(cmd *cobra.Command) zerolog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.SetupWriter(level, "pretty", cmd.ErrOrStderr())
}

// readAttributes decodes one student record from --file or the command's
// input stream.
func readAttributes(cmd *cobra.Command) (risk.StudentAttributes, error) {
	var in io.Reader = cmd.InOrStdin()
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return risk.StudentAttributes{}, err
		}
		defer f.Close()
		in = f
	}

	var raw map[string]any
	dec := json.NewDecoder(in)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return risk.StudentAttributes{}, fmt.Errorf("decode student record: %w", err)
	}
	return risk.AttributesFromMap(raw)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
