package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/egresados-admin/internal/config"
	"github.com/jonathan/egresados-admin/internal/db"
	"github.com/jonathan/egresados-admin/internal/logging"
	"github.com/jonathan/egresados-admin/internal/server"
	"github.com/jonathan/egresados-admin/internal/session"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin console",
	Long:  `Start the HTTP server that renders the admin dashboard and forwards actions to the egresados API.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	deps, cleanup, err := buildDeps(cmd.Context(), cfg, &log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(server.Config{
		Port:          cfg.Port,
		APIURL:        cfg.APIURL,
		APITimeout:    cfg.Timeout(),
		PageSize:      cfg.PageSize,
		SessionSecret: []byte(cfg.SessionSecret),
		CookieSecure:  cfg.CookieSecure,
	}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(cmd.Context())
}

// buildDeps connects the optional backing services. Without REDIS_URL tokens live in
// memory; without DATABASE_URL advertisements do.
func buildDeps(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (server.Deps, func(), error) {
	deps := server.Deps{Logger: log}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return server.Deps{}, func() {}, err
		}
		closers = append(closers, func() { _ = client.Close() })
		deps.Tokens = session.NewRedisStore(client, session.DefaultIdleTTL)
		log.Info().Msg("tokens stored in redis")
	} else {
		deps.Tokens = session.NewMemoryStore()
		log.Warn().Msg("REDIS_URL not set, tokens are kept in memory")
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return server.Deps{}, func() {}, err
		}
		closers = append(closers, database.Close)
		if err := database.EnsureSchema(ctx); err != nil {
			cleanup()
			return server.Deps{}, func() {}, err
		}
		deps.Ads = database
		log.Info().Msg("advertisements stored in postgres")
	}

	return deps, cleanup, nil
}
