package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func invalidateCmd(configPath *string) *cobra.Command {
	var prefix bool

	cmd := &cobra.Command{
		Use:   "invalidate <resource>",
		Short: "Drop cached entries for a resource",
		Long: `Drop cached entries so the next fetch hits the network.

With --prefix, every cached key starting with the resource path is
dropped. This is how a mutation to a collection clears both the
list and any cached detail views under it.

Examples:
  orgkit invalidate organizations
  orgkit invalidate members --prefix`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvalidate(*configPath, args[0], prefix)
		},
	}

	cmd.Flags().BoolVarP(&prefix, "prefix", "P", false, "Drop every key under the resource path")

	return cmd
}

func runInvalidate(configPath, resource string, prefix bool) error {
	s, err := buildStack(configPath)
	if err != nil {
		return err
	}

	key := "/" + strings.TrimPrefix(resource, "/")

	if prefix {
		n := s.cache.InvalidateMatching(func(k string) bool {
			return strings.HasPrefix(k, key)
		})
		success("Dropped %d cached entries under %s", n, key)
		return nil
	}

	s.cache.Invalidate(key)
	success("Dropped cached entry for %s", key)
	return nil
}
