package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/klarifikasi/klarifikasi-api/internal/model"
)

var (
	checkFormat string
	checkUser   int64
)

var checkCmd = &cobra.Command{
	Use:   "check <claim>",
	Short: "Check a single claim and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "check")
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Checker.Check(ctx, strings.Join(args, " "), userFlag(checkUser))
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), resp, checkFormat)
	},
}

// summarize is a one-line description of a result, used in logs.
func summarize(resp *model.CheckResponse) string {
	var b strings.Builder
	b.WriteString(string(resp.Analysis.Verdict.Label))
	if !resp.Analysis.Success {
		b.WriteString(" (fallback)")
	}
	if resp.SearchError != "" {
		b.WriteString(" (no search)")
	}
	return b.String()
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "json", "output format: json or yaml")
	checkCmd.Flags().Int64Var(&checkUser, "user", 0, "record history for this user id (0 = anonymous)")
	rootCmd.AddCommand(checkCmd)
}
