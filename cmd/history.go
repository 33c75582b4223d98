package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klarifikasi/klarifikasi-api/internal/store"
)

var (
	historyUser    int64
	historyPage    int
	historyPerPage int
	historyGlobal  bool
	historyFormat  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear search history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's search history, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter := store.HistoryFilter{
			UserID:  userFlag(historyUser),
			Scope:   store.ScopeUser,
			Page:    historyPage,
			PerPage: historyPerPage,
		}
		if historyGlobal {
			filter.Scope = store.ScopeGlobal
		}

		page, err := st.List(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history: list")
		}
		return writeOutput(cmd.OutOrStdout(), page, historyFormat)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry of a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if historyUser <= 0 {
			return eris.New("history: --user is required")
		}
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.Clear(ctx, historyUser)
		if err != nil {
			return eris.Wrap(err, "history: clear")
		}
		zap.L().Info("history cleared", zap.Int64("user_id", historyUser), zap.Int64("deleted", n))
		return writeOutput(cmd.OutOrStdout(), map[string]any{"deleted": n}, historyFormat)
	},
}

func init() {
	historyCmd.PersistentFlags().Int64Var(&historyUser, "user", 0, "user id (0 = anonymous rows)")
	historyCmd.PersistentFlags().StringVar(&historyFormat, "format", "json", "output format: json or yaml")
	historyListCmd.Flags().IntVar(&historyPage, "page", 1, "page number")
	historyListCmd.Flags().IntVar(&historyPerPage, "per-page", store.DefaultPerPage, "entries per page (max 50)")
	historyListCmd.Flags().BoolVar(&historyGlobal, "global", false, "list every user's history")

	historyCmd.AddCommand(historyListCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
