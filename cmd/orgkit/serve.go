package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orgkit-dev/orgkit/internal/apitest"
	"github.com/orgkit-dev/orgkit/pkg/org"
)

func serveCmd() *cobra.Command {
	var (
		addr string
		seed bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference API server",
		Long: `Run the in-memory reference API server.

The server implements the auth, CRUD, cache-control, and live
invalidation contracts the client is written against. State lives
in memory and is lost on exit.

Examples:
  orgkit serve
  orgkit serve --addr=:8080 --seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, seed)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":4000", "Address to listen on")
	cmd.Flags().BoolVar(&seed, "seed", false, "Seed demo data")

	return cmd
}

func runServe(addr string, seed bool) error {
	api := apitest.New()
	defer api.Close()

	if seed {
		api.SeedOrganizations([]org.Organization{
			{ID: "org-1", Name: "Acme", Slug: "acme"},
			{ID: "org-2", Name: "Globex", Slug: "globex"},
		})
		api.SeedMembers([]org.Member{
			{ID: "member-1", TeamID: "team-1", Name: "Ada Lovelace", Email: "ada@acme.example", Role: "admin"},
		})
	}

	pair := api.IssueTokens()

	srv := &http.Server{Addr: addr, Handler: api.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	success("Reference API listening on %s", addr)
	info("Access token:  %s", pair.Access)
	info("Refresh token: %s", pair.Refresh)
	info("Press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sig:
		fmt.Println()
		info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
