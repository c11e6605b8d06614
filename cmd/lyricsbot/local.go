package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sukalov/lyricsbot/internal/config"
	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/history"
)

const defaultPreviewHistory = "posted_lines_test.json"

// loadLocal builds an app that never publishes to the network.
func loadLocal(cmd *cobra.Command, historyFile string) (*app, error) {
	cfg, err := config.Load(func(c *config.Config) {
		c.Publisher = config.PublisherConsole
		if historyFile != "" {
			c.HistoryBackend = config.BackendFile
			c.HistoryFile = historyFile
		}
	})
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg)
}

func newPreviewCmd() *cobra.Command {
	var (
		count       int
		historyFile string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the next lines instead of posting them",
		Long: `preview runs the selection cycle and prints every post to stdout.

By default it records history in a separate file so the real history is left
alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadLocal(cmd, historyFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := printStats(cmd, a, false); err != nil {
				return err
			}

			s := a.scheduler()
			for i := 0; i < count; i++ {
				if err := s.RunCycle(cmd.Context()); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of posts to simulate")
	cmd.Flags().StringVar(&historyFile, "history", defaultPreviewHistory, "history file used by the preview")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var historyFile string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus and history statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadLocal(cmd, historyFile)
			if err != nil {
				return err
			}
			defer a.Close()

			return printStats(cmd, a, true)
		},
	}

	cmd.Flags().StringVar(&historyFile, "history", "", "history file to inspect instead of the configured backend")
	return cmd
}

func newClearHistoryCmd() *cobra.Command {
	var historyFile string

	cmd := &cobra.Command{
		Use:   "clear-history",
		Short: "Forget every posted line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadLocal(cmd, historyFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := history.Clear(cmd.Context(), a.store, history.New()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared post history")
			return nil
		},
	}

	cmd.Flags().StringVar(&historyFile, "history", "", "history file to clear instead of the configured backend")
	return cmd
}

func printStats(cmd *cobra.Command, a *app, detailed bool) error {
	c, err := a.source.Load(cmd.Context())
	if err != nil {
		return err
	}
	h, err := a.store.Load(cmd.Context())
	if err != nil {
		return err
	}

	writeStats(cmd.OutOrStdout(), corpus.ComputeStats(c, h.Len()), detailed)
	return nil
}

func writeStats(w io.Writer, stats corpus.Stats, detailed bool) {
	fmt.Fprintf(w, "total songs: %d\n", stats.Songs)
	fmt.Fprintf(w, "total lines: %d\n", stats.Lines)
	fmt.Fprintf(w, "posted lines: %d\n", stats.Posted)
	fmt.Fprintf(w, "remaining unique lines: %d/%d\n", stats.Remaining, stats.Lines)
	if !detailed {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "average lines per song: %.1f\n", stats.Average)

	fmt.Fprintln(w, "\ntop 10 songs by line count:")
	for i, song := range stats.Top {
		fmt.Fprintf(w, "%2d. %s: %d lines\n", i+1, song.Title, song.Lines)
	}

	fmt.Fprintln(w, "\nbottom 5 songs by line count:")
	first := stats.Songs - len(stats.Bottom) + 1
	for i, song := range stats.Bottom {
		fmt.Fprintf(w, "%2d. %s: %d lines\n", first+i, song.Title, song.Lines)
	}
}
