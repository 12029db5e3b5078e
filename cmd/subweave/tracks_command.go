package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"subweave/internal/language"
	"subweave/internal/media"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks <video>",
		Short: "List embedded subtitle tracks in a video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			extractor := media.NewExtractor(
				media.WithBinaries(cfg.Tools.FFprobe, cfg.Tools.FFmpeg, cfg.Tools.Mkvextract),
				media.WithLogger(ctx.buildLogger()),
			)
			tracks, err := extractor.ListSubtitleTracks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tracks) == 0 {
				fmt.Fprintln(out, "No embedded subtitle tracks")
				return nil
			}

			rows := make([][]string, 0, len(tracks))
			for _, track := range tracks {
				rows = append(rows, []string{
					strconv.Itoa(track.TrackID),
					language.DisplayName(track.Language),
					track.Title,
					track.Codec,
					yesNo(track.Forced),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Language", "Title", "Codec", "Forced"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
}
