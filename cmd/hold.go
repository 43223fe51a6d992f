package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/remote-engine-mock/internal/config"
	"github.com/zjrosen/remote-engine-mock/internal/log"
	"github.com/zjrosen/remote-engine-mock/internal/watcher"
)

var holdCmd = &cobra.Command{
	Use:   "hold [address]",
	Short: "Keep a handle connected, following config edits",
	Long: `Keep a handle connected until interrupted. Whenever the config file's
address changes, the handle is closed and opened at the new address.

An address given on the command line is used for the first connection only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runHold(ctx, cmd.OutOrStdout(), cfg, configPath(), firstArg(args))
	},
}

func init() {
	rootCmd.AddCommand(holdCmd)
}

// runHold connects and then follows address changes in path until ctx ends.
func runHold(ctx context.Context, out io.Writer, c config.Config, path, address string) error {
	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()
	changes, err := w.Start()
	if err != nil {
		return err
	}

	s, err := newSession(c, out)
	if err != nil {
		return err
	}
	defer s.close()

	if err := connectWithin(ctx, s, c, address); err != nil {
		return err
	}
	current := s.handle.Address()
	log.Info(log.CatCLI, "Holding", "address", current, "config", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			next, err := config.Load(path)
			if err != nil {
				log.ErrorErr(log.CatCLI, "Ignoring config change", err, "path", path)
				continue
			}
			if next.Address == "" || next.Address == current {
				continue
			}
			log.Info(log.CatCLI, "Address changed", "from", current, "to", next.Address)
			if err := s.handle.Close(); err != nil {
				return err
			}
			if err := connectWithin(ctx, s, next, next.Address); err != nil {
				return err
			}
			current = next.Address
		}
	}
}

func connectWithin(ctx context.Context, s *session, c config.Config, address string) error {
	if c.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ConnectTimeout)
		defer cancel()
	}
	return s.connect(ctx, address)
}
