package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sukalov/lyricsbot/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lyricsbot",
		Short: "Posts a lyric line every few hours without repeating itself",
		Long: `lyricsbot periodically draws a line from a song corpus and posts it.

Lines are not repeated until every line was posted once; then the history
starts over. Settings come from the environment or a .env file.

Only one instance may use a given history file, Redis key or table at a time.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}

	root.AddCommand(
		newRunCmd(),
		newPostOnceCmd(),
		newPreviewCmd(),
		newStatsCmd(),
		newClearHistoryCmd(),
	)
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the posting loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

func runDaemon(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.scheduler().Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newPostOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-once",
		Short: "Run a single select-and-publish cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.scheduler().RunCycle(cmd.Context())
		},
	}
}
