package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	grantReason string
	logsLimit   int
)

func init() {
	grantCmd.Flags().StringVar(&grantReason, "reason", "manual grant", "The reason recorded in the credit log.")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 20, "The amount of log entries to show.")

	ledgerCmd.AddCommand(balanceCmd, grantCmd, logsCmd)
	rootCmd.AddCommand(ledgerCmd)
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Maintains the local credit ledger.",
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Prints the credits left.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase("", "")
		if err != nil {
			return err
		}
		defer database.Close()

		l, err := openLocalLedger(cmd.Context(), database)
		if err != nil {
			return err
		}
		balance, err := l.Balance(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(balance.Credits)
		return nil
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <amount> [--reason <text>]",
	Short: "Adds credits to the local ledger.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}

		database, err := openDatabase("", "")
		if err != nil {
			return err
		}
		defer database.Close()

		l, err := openLocalLedger(cmd.Context(), database)
		if err != nil {
			return err
		}
		balance, err := l.Grant(cmd.Context(), amount, grantReason)
		if err != nil {
			return err
		}
		fmt.Printf("granted %d credits, %d left\n", amount, balance.Credits)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [--limit <n>]",
	Short: "Lists the most recent credit changes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase("", "")
		if err != nil {
			return err
		}
		defer database.Close()

		l, err := openLocalLedger(cmd.Context(), database)
		if err != nil {
			return err
		}
		logs, err := l.Logs(cmd.Context(), logsLimit)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Time", "Change", "Balance", "Reason"})
		for _, entry := range logs {
			t.AppendRow(table.Row{
				entry.Time.Format(time.DateTime),
				fmt.Sprintf("%+d", entry.Delta),
				entry.Balance,
				entry.Reason,
			})
		}
		t.Render()
		return nil
	},
}
