package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/remote-engine-mock/internal/config"
	"github.com/zjrosen/remote-engine-mock/internal/presentation"
)

var (
	connectStats   bool
	connectWorkers int
	connectTimeout time.Duration
	connectFormat  string
)

var connectCmd = &cobra.Command{
	Use:   "connect [address]",
	Short: "Open a handle and print its event timeline",
	Long: `Open a handle, print each notification as it is emitted until the
handle is connected, then destroy it.

The address defaults to the config file's address.

Examples:
  remote-engine-mock connect ws://localhost:8080
  remote-engine-mock connect --workers 2 --stats
  remote-engine-mock connect --stats --format json | jq '.host'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout := cfg.ConnectTimeout
		if cmd.Flags().Changed("timeout") {
			timeout = connectTimeout
		}
		return runConnect(cmd.Context(), cmd.OutOrStdout(), cfg, connectOptions{
			address: firstArg(args),
			workers: connectWorkers,
			stats:   connectStats,
			timeout: timeout,
			format:  connectFormat,
		})
	},
}

func init() {
	connectCmd.Flags().BoolVar(&connectStats, "stats", false, "print a diagnostics snapshot once connected")
	connectCmd.Flags().IntVarP(&connectWorkers, "workers", "w", 0, "fake workers to create once connected")
	connectCmd.Flags().DurationVarP(&connectTimeout, "timeout", "t", 0, "how long to wait for connected (default: connect_timeout from config)")
	connectCmd.Flags().StringVarP(&connectFormat, "format", "f", "yaml", "snapshot format: yaml or json")
	rootCmd.AddCommand(connectCmd)
}

type connectOptions struct {
	address string
	workers int
	stats   bool
	timeout time.Duration
	format  string
}

func runConnect(ctx context.Context, out io.Writer, c config.Config, opts connectOptions) error {
	format, err := presentation.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	s, err := newSession(c, out)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.connect(ctx, opts.address); err != nil {
		return err
	}

	if opts.workers > 0 {
		if _, err := s.spawn(ctx, opts.workers); err != nil {
			return err
		}
	}

	if !opts.stats {
		return nil
	}
	snap, err := s.handle.GetStats(ctx)
	if err != nil {
		return err
	}
	return presentation.NewFormatter(out).FormatSnapshot(snap, format)
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
