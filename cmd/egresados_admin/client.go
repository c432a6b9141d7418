package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/egresados-admin/internal/api"
	"github.com/jonathan/egresados-admin/internal/config"
	"github.com/jonathan/egresados-admin/internal/session"
	"github.com/jonathan/egresados-admin/internal/types"
)

var (
	adminEmail    string
	adminPassword string
)

// addCredentialFlags registers --email and --password on cmd.
// ADMIN_EMAIL and ADMIN_PASSWORD are used when the flags are not given.
func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&adminEmail, "email", "", "Admin email (default $ADMIN_EMAIL)")
	cmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (default $ADMIN_PASSWORD)")
}

func credentials() types.LoginRequest {
	creds := types.LoginRequest{Email: adminEmail, Password: adminPassword}
	if creds.Email == "" {
		creds.Email = os.Getenv("ADMIN_EMAIL")
	}
	if creds.Password == "" {
		creds.Password = os.Getenv("ADMIN_PASSWORD")
	}
	return creds
}

// cliConfig resolves the configuration needed to reach the API.
func cliConfig() (*config.Config, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateAPI(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apiLogin logs in and returns a client acting with the issued token. The token
// lives only for the duration of the command.
func apiLogin(ctx context.Context, cfg *config.Config, creds types.LoginRequest) (*api.Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("admin credentials: %w", err)
	}

	sess, err := session.New(uuid.NewString(), session.NewMemoryStore())
	if err != nil {
		return nil, err
	}
	client := api.NewClient(cfg.APIURL, sess, &api.Options{Timeout: cfg.Timeout()})

	token, err := client.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := sess.SetToken(ctx, token); err != nil {
		return nil, err
	}
	return client, nil
}
