package commands

import (
	"context"
	"fmt"
	"os"

	"formsim-backend/internal/components/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	dbPath  string
	dbToken string
	tel     telemetry.API = telemetry.SlogAPI{}
)

var rootCmd = &cobra.Command{
	Use:   "formsim",
	Short: "formsim extracts the questions of a form and submits weighted batches of answers to it.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		tel = telemetry.InitSlog(verbose)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enables debug logs.")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "formsim.db", "The sqlite file (or libsql:// url) holding credits and run history.")
	rootCmd.PersistentFlags().StringVar(&dbToken, "db-token", "", "The auth token for a remote libsql database.")
}

func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
