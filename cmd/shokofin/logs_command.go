package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shokofin/internal/logging"
	"shokofin/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		raw       bool
		level     string
		component string
		seriesID  string
		fileID    int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := logs.Filter{
				Component: strings.TrimSpace(component),
				SeriesID:  strings.TrimSpace(seriesID),
				FileID:    fileID,
			}
			if level != "" {
				if err := filter.MinLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid --level %q", level)
				}
			}

			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()
			emit := func(batch []string) {
				for _, line := range batch {
					entry, ok := logs.ParseEntry(line)
					if !ok {
						if raw {
							fmt.Fprintln(out, line)
						}
						continue
					}
					if !filter.Match(entry) {
						continue
					}
					if raw {
						fmt.Fprintln(out, entry.Raw)
					} else {
						fmt.Fprintln(out, logs.Format(entry))
					}
				}
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			emit(result.Lines)
			if !follow {
				return nil
			}

			followCtx := cmd.Context()
			offset := result.Offset
			for {
				result, err := logs.Tail(followCtx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
				if err != nil {
					if followCtx.Err() != nil {
						return nil
					}
					return err
				}
				emit(result.Lines)
				offset = result.Offset
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to read")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON lines unchanged")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&component, "component", "", "Only show entries from this component")
	cmd.Flags().StringVar(&seriesID, "series", "", "Only show entries for this Shoko series id")
	cmd.Flags().IntVar(&fileID, "file", 0, "Only show entries for this Shoko file id")
	return cmd
}
