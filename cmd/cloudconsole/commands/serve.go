package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/cloudconsole/internal/config"
	"github.com/matthewbaird/cloudconsole/internal/crypto"
	"github.com/matthewbaird/cloudconsole/internal/logger"
	"github.com/matthewbaird/cloudconsole/internal/seed"
	"github.com/matthewbaird/cloudconsole/internal/server"
	"github.com/matthewbaird/cloudconsole/internal/store"
)

var servePort int

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the console HTTP server",
	Long: `Start the console HTTP server.

Examples:
  # Start with defaults (in-memory store, sample records, port 8080)
  cloudconsole serve

  # Use the SQLite store with sealed credentials
  CLOUDCONSOLE_STORE_DRIVER=sqlite CLOUDCONSOLE_STORE_ENCRYPTION_KEY=changeme cloudconsole serve

  # Override the port
  cloudconsole serve --port 9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server.port)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	log := logger.Setup(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, closer, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Store.Seed {
		if err := seed.Seed(ctx, s, log); err != nil {
			return fmt.Errorf("seeding store: %w", err)
		}
	}

	app, err := server.New(*cfg, s, log)
	if err != nil {
		return err
	}
	log.Info("cloudconsole starting", "version", version, "store", cfg.Store.Driver)
	return app.Run(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore builds the configured record store.
func openStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (store.Store, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		sealer, err := crypto.NewSealer(cfg.EncryptionKey, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("creating credential sealer: %w", err)
		}
		s, err := store.OpenSQLStore(ctx, cfg.DSN, sealer, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return store.NewMemoryStore(), nopCloser{}, nil
	}
}
