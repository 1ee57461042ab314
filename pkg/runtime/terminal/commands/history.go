package commands

import (
	"fmt"

	"github.com/de-tools/report-assistant/pkg/runtime/terminal/export"
	"github.com/de-tools/report-assistant/pkg/store/duckdb/history"
	"github.com/spf13/cobra"
)

type HistoryCmd struct {
	userName string
	limit    int
	env      *Environment
	reporter *export.Reporter
}

func NewHistoryCmd(env *Environment, reporter *export.Reporter) *cobra.Command {
	hc := &HistoryCmd{env: env, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List reports generated for a user",
		RunE:  hc.run,
	}

	cmd.Flags().StringVar(&hc.userName, "user", "", "User whose reports to list")
	cmd.Flags().IntVar(&hc.limit, "limit", 20, "Maximum number of reports")

	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (hc *HistoryCmd) run(cmd *cobra.Command, _ []string) error {
	db, err := hc.env.db()
	if err != nil {
		return err
	}
	store, err := history.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create report history: %w", err)
	}

	records, err := store.ListByUser(hc.env.context(cmd.Context()), hc.userName, hc.limit)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	return hc.reporter.History(records)
}
