package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/remote-engine-mock/internal/config"
	"github.com/zjrosen/remote-engine-mock/internal/presentation"
)

var (
	statsWorkers int
	statsFormat  string
)

var statsCmd = &cobra.Command{
	Use:   "stats [address]",
	Short: "Print a diagnostics snapshot",
	Long: `Connect a handle, create fake workers, and print one diagnostics
snapshot covering the host, this process, and every tracked worker.

Examples:
  remote-engine-mock stats ws://localhost:8080
  remote-engine-mock stats --workers 0 --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(cmd.Context(), cmd.OutOrStdout(), cfg, firstArg(args), statsWorkers, statsFormat)
	},
}

func init() {
	statsCmd.Flags().IntVarP(&statsWorkers, "workers", "w", 1, "fake workers to create before sampling")
	statsCmd.Flags().StringVarP(&statsFormat, "format", "f", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(statsCmd)
}

func runStats(ctx context.Context, out io.Writer, c config.Config, address string, workers int, format string) error {
	f, err := presentation.ParseFormat(format)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if c.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ConnectTimeout)
		defer cancel()
	}

	// Timeline lines would corrupt the encoded snapshot.
	s, err := newSession(c, nil)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.connect(ctx, address); err != nil {
		return err
	}
	if _, err := s.spawn(ctx, workers); err != nil {
		return err
	}

	snap, err := s.handle.GetStats(ctx)
	if err != nil {
		return err
	}
	return presentation.NewFormatter(out).FormatSnapshot(snap, f)
}
