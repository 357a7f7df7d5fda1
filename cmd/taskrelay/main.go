// @title			Task Relay API
// @version		1.0
// @description	Relay that forwards tasks to a human operator over Telegram and correlates the replies.
// @BasePath		/api/v1

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/missionctl/taskrelay/internal/config"
	"github.com/missionctl/taskrelay/internal/database"
	"github.com/missionctl/taskrelay/internal/handler"
	"github.com/missionctl/taskrelay/internal/logger"
	"github.com/missionctl/taskrelay/internal/middleware"
	"github.com/missionctl/taskrelay/internal/notify"
	"github.com/missionctl/taskrelay/internal/relay"
	"github.com/missionctl/taskrelay/internal/store"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "taskrelay",
		Usage: "Relay tasks to a human operator over Telegram",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL database URL",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the relay server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
					&cli.StringFlag{
						Name:    "store",
						Value:   "postgres",
						Usage:   "Task store backend (postgres, memory)",
						EnvVars: []string{"STORE"},
					},
				},
				Action: runServe,
			},
			{
				Name:      "get",
				Usage:     "Print a stored task as JSON",
				ArgsUsage: "<task-id>",
				Action:    runGet,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// storeBackend resolves the serve --store flag. The bare invocation runs the
// default action without the subcommand's flags, so empty means postgres.
func storeBackend(c *cli.Context) string {
	if backend := c.String("store"); backend != "" {
		return backend
	}
	return "postgres"
}

// openStore builds the task store selected by the --store flag. The returned
// cleanup func is non-nil only for backends holding external connections.
func openStore(ctx context.Context, c *cli.Context) (store.Store, func(), error) {
	switch backend := storeBackend(c); backend {
	case "memory":
		slog.Warn("using in-memory store, tasks will not survive restarts")
		return store.NewMemoryStore(), nil, nil
	case "postgres":
		databaseURL := c.String("database-url")
		if databaseURL == "" {
			return nil, nil, fmt.Errorf("database-url is required for the postgres store")
		}

		db, err := database.New(ctx, databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := database.RunMigrations(ctx, db.Pool()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return store.NewPostgresStore(db.Pool()), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func buildNotifier(cfg *config.Relay) (notify.Notifier, error) {
	if cfg.BotToken == "" {
		slog.Warn("no bot token configured, outbound notifications disabled")
		return notify.Discard, nil
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when a bot token is set")
	}
	return notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID)
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	cfg, err := config.LoadRelay()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return err
	}

	issuer := relay.NewIssuer(st, notifier)
	correlator := relay.NewCorrelator(st, cfg.AllowedChatIDs)
	h := handler.New(st, issuer, correlator, cfg)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           middleware.RequestID(mux),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	pollCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	go runPoller(pollCtx, issuer, cfg.PollInterval)

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// runPoller drains newly completed tasks on a fixed interval so completions
// are observed even when no client is polling the API.
func runPoller(ctx context.Context, issuer *relay.Issuer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logCompleted := func() {
		for _, task := range issuer.Poll(ctx) {
			slog.Info("task completed",
				"task_id", task.ID,
				"handler", string(task.HandlerTag),
				"completed_at", task.Response.CompletedAt,
			)
		}
	}

	logCompleted()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logCompleted()
		}
	}
}

func runGet(c *cli.Context) error {
	ctx := c.Context

	taskID := c.Args().First()
	if taskID == "" {
		return fmt.Errorf("usage: taskrelay get <task-id>")
	}

	databaseURL := c.String("database-url")
	if databaseURL == "" {
		return fmt.Errorf("database-url is required")
	}

	db, err := database.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	task, err := store.NewPostgresStore(db.Pool()).Get(ctx, taskID)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	fmt.Println(string(out))

	return nil
}
