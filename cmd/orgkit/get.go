package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orgkit-dev/orgkit/pkg/swr"
)

func getCmd(configPath *string) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "get <resource>",
		Short: "Fetch a resource through the cache",
		Long: `Fetch a resource path and print the JSON response.

Responses are served through the stale-while-revalidate cache: a
fresh entry skips the network entirely, a stale one is printed
immediately while a background refresh updates the state file.

Examples:
  orgkit get organizations
  orgkit get members/member-1
  orgkit get organizations --fresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(*configPath, args[0], fresh)
		},
	}

	cmd.Flags().BoolVarP(&fresh, "fresh", "f", false, "Bypass the cache and refetch")

	return cmd
}

func runGet(configPath, resource string, fresh bool) error {
	s, err := buildStack(configPath)
	if err != nil {
		return err
	}
	defer s.cache.Wait()

	key := "/" + strings.TrimPrefix(resource, "/")

	var opts []swr.FetchOption
	if fresh {
		opts = append(opts, swr.SkipCache())
	}

	value, err := s.cache.Fetch(context.Background(), key, opts...)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, value, "", "  "); err != nil {
		// Not JSON after all; print it raw.
		os.Stdout.Write(value)
		fmt.Println()
		return nil
	}
	fmt.Println(out.String())
	return nil
}
