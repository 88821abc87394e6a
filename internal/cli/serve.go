package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmallory/solace/internal/agent"
	"github.com/jmallory/solace/internal/config"
	"github.com/jmallory/solace/internal/gateway"
	"github.com/jmallory/solace/internal/llm"
	"github.com/jmallory/solace/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Solace server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sessions, err := openSessionStore(ctx, cfg.Session)
			if err != nil {
				return err
			}
			defer sessions.Close()

			local := llm.NewLocalClient(cfg.Local, log)
			remote := llm.NewRemoteClient(cfg.Remote, log)
			if cfg.Remote.APIKey == "" {
				log.Warn().Msg("no remote API key configured — replies will rely on the local model only")
			}

			orchestrator := agent.New(sessions, local, remote, cfg.Hybrid,
				cfg.Session.AutoCreateEnabled(), log)
			if err := orchestrator.SyncActiveSessions(ctx); err != nil {
				log.Warn().Err(err).Msg("could not count existing sessions")
			}

			srv := gateway.New(cfg.Server, orchestrator, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}

// openSessionStore builds the configured session store backend.
func openSessionStore(ctx context.Context, cfg config.SessionConfig) (store.SessionStore, error) {
	switch cfg.Store {
	case "sqlite":
		dbPath := filepath.Join(paths.Data, "solace.db")
		db, err := store.OpenDB(dbPath, log)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		log.Info().Str("path", dbPath).Msg("using SQLite session store")
		return store.NewSQLiteStore(db), nil

	case "redis":
		ttl := time.Duration(cfg.IdleMinutes) * time.Minute
		rs, err := store.NewRedisStore(ctx, cfg.RedisAddr, ttl)
		if err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("using Redis session store")
		return rs, nil

	default:
		log.Info().Msg("using in-memory session store")
		return store.NewMemoryStore(), nil
	}
}
