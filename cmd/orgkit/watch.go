package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orgkit-dev/orgkit/pkg/live"
)

func watchCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live invalidation feed",
		Long: `Subscribe to the server's invalidation feed and drop cached
entries as change notices arrive. The connection reconnects with
backoff if it drops.

Requires liveUrl in the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(*configPath)
		},
	}

	return cmd
}

func runWatch(configPath string) error {
	s, err := buildStack(configPath)
	if err != nil {
		return err
	}
	if s.cfg.LiveURL == "" {
		return fmt.Errorf("watch: no liveUrl configured in %s", configPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	feed := live.New(s.cfg.LiveURL, loggingInvalidator{cache: s.cache})
	info("Watching %s", s.cfg.LiveURL)
	if err := feed.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// loggingInvalidator drops the cache entry and tells the user about it.
type loggingInvalidator struct {
	cache interface{ Invalidate(key string) }
}

func (l loggingInvalidator) Invalidate(key string) {
	l.cache.Invalidate(key)
	info("Invalidated %s", key)
}
