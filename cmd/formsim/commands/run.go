package commands

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"formsim-backend/internal/db"
	"formsim-backend/internal/dispatch"
	"formsim-backend/internal/form"
	"formsim-backend/internal/ledger"
	"formsim-backend/internal/planner"
	"formsim-backend/internal/runconfig"
	"formsim-backend/internal/weights"
	"formsim-backend/lib/restyutil"
	"formsim-backend/lib/serviceutil"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	runConfigPath string
	runCount      int
	runPacing     time.Duration
	runSeed       int64
	runDumpDir    string
	runDryRun     bool
)

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "run.json5", "The run config, a <name>.local.json5 next to it overrides it.")
	runCmd.Flags().IntVarP(&runCount, "count", "n", 0, "The amount of submissions, overrides the config.")
	runCmd.Flags().DurationVar(&runPacing, "pacing", 0, "The wait between two submissions, overrides the config.")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Seeds the planner, 0 picks a random seed.")
	runCmd.Flags().StringVar(&runDumpDir, "dump-dir", "", "Writes every http exchange of the run to this directory.")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Plans the batch and prints it without submitting.")
	rootCmd.AddCommand(runCmd)
}

func readRunConfig(cmd *cobra.Command) (runconfig.Config, error) {
	cfg, err := runconfig.Load(runConfigPath)
	if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		cfg = runconfig.Config{}
	} else if err != nil {
		return runconfig.Config{}, err
	}

	if cmd.Flags().Changed("count") {
		cfg.Count = runCount
	}
	if cmd.Flags().Changed("pacing") {
		cfg.Pacing = runPacing.String()
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = runSeed
	}
	return cfg, nil
}

func gridToggles(parsed form.ParsedForm, model *weights.Model) map[string]bool {
	toggles := make(map[string]bool)
	for _, item := range parsed.Items {
		if item.Type.IsGrid() {
			toggles[item.ID] = model.LimitOne(item.ID)
		}
	}
	return toggles
}

func printPlan(parsed form.ParsedForm, schedule planner.Schedule, n int) {
	t := newTable()
	t.AppendHeader(table.Row{"Entry", "Title", "Planned answers"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 60},
	})
	for _, item := range parsed.Items {
		answers, ok := schedule[item.ID]
		if !ok {
			continue
		}

		counts := make(map[string]int)
		for _, answer := range answers {
			if len(answer) == 0 {
				counts["(none)"]++
				continue
			}
			for _, value := range answer {
				counts[value]++
			}
		}
		values := make([]string, 0, len(counts))
		for value := range counts {
			values = append(values, value)
		}
		sort.Slice(values, func(i, j int) bool {
			if counts[values[i]] != counts[values[j]] {
				return counts[values[i]] > counts[values[j]]
			}
			return values[i] < values[j]
		})

		parts := make([]string, len(values))
		for i, value := range values {
			parts[i] = fmt.Sprintf("%s: %d", value, counts[value])
		}
		t.AppendRow(table.Row{item.SubmissionID, item.Title, strings.Join(parts, ", ")})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d submissions", n)})
	t.Render()
}

func configuredLedger(cfg runconfig.Config, local func() (ledger.LocalLedger, error)) (ledger.Ledger, error) {
	switch {
	case cfg.Ledger.Disabled:
		return nil, nil
	case cfg.Ledger.URL != "":
		return ledger.NewHTTPLedger(ledger.HTTPLedgerOptions{
			BaseURL: cfg.Ledger.URL,
			Token:   cfg.Ledger.Token,
		}, tel), nil
	}
	l, err := local()
	if err != nil {
		return nil, err
	}
	return l, nil
}

var runCmd = &cobra.Command{
	Use:   "run [url|file] [--config run.json5] [-n N] [--pacing 2s] [--seed S] [--dump-dir DIR] [--dry-run]",
	Short: "Plans a weighted batch of answers and submits it to a form.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := readRunConfig(cmd)
		if err != nil {
			return err
		}
		source := cfg.Form
		if len(args) > 0 {
			source = args[0]
		}
		if source == "" {
			return fmt.Errorf("no form given, pass it as an argument or set \"form\" in %s", runConfigPath)
		}
		err = planner.ValidateCount(cfg.Count)
		if err != nil {
			return err
		}
		pacing, err := cfg.PacingDuration()
		if err != nil {
			return err
		}

		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng := rand.New(rand.NewSource(seed))

		parsed, err := loadForm(ctx, source)
		if err != nil {
			return err
		}
		model := weights.NewModel(parsed)
		opts, err := runconfig.Apply(cfg, parsed, model)
		if err != nil {
			return err
		}
		schedule, err := planner.Build(rng, parsed, model, cfg.Count, opts)
		if err != nil {
			return err
		}

		if runDryRun {
			printPlan(parsed, schedule, cfg.Count)
			return nil
		}

		database, err := openDatabase(cfg.Database.Path, cfg.Database.AuthToken)
		if err != nil {
			return err
		}
		defer database.Close()

		credits, err := configuredLedger(cfg, func() (ledger.LocalLedger, error) {
			return openLocalLedger(ctx, database)
		})
		if err != nil {
			return err
		}

		history, err := dispatch.NewHistorySink(ctx, db.New(database), parsed, cfg.Count, nil, tel)
		if err != nil {
			return err
		}

		var client *resty.Client
		if runDumpDir != "" {
			client, err = restyutil.NewBrowserClient(dispatch.DefaultTimeout)
			if err != nil {
				return err
			}
			output, err := restyutil.NewFilesystemOutput(runDumpDir)
			if err != nil {
				return err
			}
			output.Attach(client)
		}

		dispatcher, err := dispatch.New(dispatch.Options{
			Ledger: credits,
			Sink:   dispatch.MultiSink{dispatch.SlogSink{}, history},
			Client: client,
			Pacing: pacing,
		}, tel)
		if err != nil {
			return err
		}

		token := dispatch.NewCancelToken()
		stop := serviceutil.OnInterrupt(token.Stop)
		defer stop()

		result, err := dispatcher.Run(ctx, dispatch.Job{
			Form:     parsed,
			Schedule: schedule,
			Count:    cfg.Count,
			LimitOne: gridToggles(parsed, model),
			Rand:     rng,
		}, token)
		if err != nil {
			return err
		}

		err = history.Finish(result)
		if err != nil {
			tel.ReportWarning("run.finish", err, history.RunID)
		}

		fmt.Printf(
			"run %s %s: %d/%d delivered, %d failed, %d credits deducted\n",
			history.RunID, result.State, result.Succeeded, cfg.Count, result.Failed, result.Deducted,
		)
		return nil
	},
}
