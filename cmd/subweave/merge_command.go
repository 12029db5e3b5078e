package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subweave/internal/batch"
	"subweave/internal/pipeline"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var (
		outputFlag    string
		strategyFlag  string
		referenceFlag string
	)

	cmd := &cobra.Command{
		Use:   "merge <first> <second>",
		Short: "Merge two subtitle tracks into one bilingual SRT",
		Long: `Merge two subtitle files, or a video's embedded subtitle track and an
external file, into a single bilingual SRT. The first input may be a video
container; its best matching embedded track is extracted automatically.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(strategyFlag) != "" {
				cfg.Sync.Strategy = strings.ToLower(strings.TrimSpace(strategyFlag))
			}
			if strings.TrimSpace(referenceFlag) != "" {
				cfg.Sync.Reference = strings.ToLower(strings.TrimSpace(referenceFlag))
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := ctx.buildLogger()
			opts, err := pipeline.OptionsFromConfig(cfg, ctx.buildTranslator(), logger)
			if err != nil {
				return err
			}

			job := makeJob(args[0], args[1], outputFlag)
			process := batch.MergeProcessor(cfg, opts, logger)
			report, err := process(cmd.Context(), job)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merged %d events (%s", report.EventCount, report.MergePath)
			if report.SyncLevel != "" {
				fmt.Fprintf(out, ", sync %s", report.SyncLevel)
			}
			if report.TimeOffset != 0 {
				fmt.Fprintf(out, ", offset %+.2fs", report.TimeOffset)
			}
			fmt.Fprintf(out, ")\nWrote %s\n", report.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path for the merged SRT")
	cmd.Flags().StringVar(&strategyFlag, "strategy", "", "Synchronization strategy (auto, first-line, scan, translation, manual)")
	cmd.Flags().StringVar(&referenceFlag, "reference", "", "Force the reference track (first or second)")
	return cmd
}

func makeJob(first, second, output string) batch.Job {
	if batch.IsVideoPath(first) {
		return batch.Job{Video: first, External: second, Output: output}
	}
	if batch.IsVideoPath(second) {
		return batch.Job{Video: second, External: first, Output: output}
	}
	return batch.Job{First: first, Second: second, Output: output}
}
