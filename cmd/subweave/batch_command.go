package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subweave/internal/batch"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var workersFlag int

	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Merge every subtitle pair found under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			jobs, err := batch.Discover(args[0], cfg.Batch.Extensions)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No subtitle pairs found")
				return nil
			}

			needTools := false
			for _, job := range jobs {
				if job.Video != "" {
					needTools = true
					break
				}
			}
			checks := batch.Preflight(cfg, needTools)
			if failed := batch.FirstFailure(checks); failed != "" {
				rows := make([][]string, 0, len(checks))
				for _, check := range checks {
					rows = append(rows, []string{check.Name, yesNo(check.Passed), check.Detail})
				}
				fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Detail"}, rows, nil))
				return fmt.Errorf("preflight failed: %s", failed)
			}

			store, err := batch.Open(cfg.Batch.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			logger := ctx.buildLogger()
			options := []batch.RunnerOption{batch.WithLogger(logger)}
			if workersFlag > 0 {
				options = append(options, batch.WithWorkers(workersFlag))
			}
			runner, err := batch.NewRunner(cfg, store, ctx.buildTranslator(), options...)
			if err != nil {
				return err
			}

			summary, err := runner.Run(cmd.Context(), jobs)
			if err != nil {
				return err
			}

			results, err := store.Results(cmd.Context(), summary.RunID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				detail := result.Output
				if result.Status == batch.ResultFailed {
					detail = result.ErrorMessage
				}
				rows = append(rows, []string{
					result.Primary,
					string(result.Status),
					result.MergePath,
					strconv.Itoa(result.EventCount),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Status", "Strategy", "Events", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
			fmt.Fprintf(out, "Run %s: %d completed, %d failed of %d\n",
				summary.RunID, summary.Completed, summary.Failed, summary.Total)
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Worker pool size (0 uses the configured default)")
	return cmd
}
