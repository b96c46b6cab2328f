package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orgkit-dev/orgkit/pkg/auth"
)

func loginCmd(configPath *string) *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store a token pair",
		Long: `Authenticate against the API and store the token pair.

The pair is written to the state file so later commands can attach
the access token and refresh it transparently when it expires.

Examples:
  orgkit login --email=ada@acme.example --password=secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(*configPath, email, password)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func runLogin(configPath, email, password string) error {
	s, err := buildStack(configPath)
	if err != nil {
		return err
	}

	var pair auth.TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := s.client.Post(context.Background(), "/auth/login", body, &pair); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !pair.Valid() {
		return fmt.Errorf("login: server returned an incomplete token pair")
	}

	s.coord.Login(pair)
	success("Logged in as %s", email)
	return nil
}
