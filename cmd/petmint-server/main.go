package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/petmint/petmint/internal/config"
	"github.com/petmint/petmint/internal/genetics"
	"github.com/petmint/petmint/internal/images"
	"github.com/petmint/petmint/internal/ledger"
	"github.com/petmint/petmint/internal/observability/metrics"
	petsDomain "github.com/petmint/petmint/internal/pets/domain"
	"github.com/petmint/petmint/internal/server"
	"github.com/petmint/petmint/internal/storage"
	"github.com/petmint/petmint/internal/validation"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "petmint-server",
		Short:   "Petmint server - collectible pet minting and marketplace",
		Version: version,
	}

	// Default behavior (no subcommand) is to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe()
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAssetsCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newAssetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage sprite assets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the asset directory covers the whole animal vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssetsCheck()
		},
	})
	return cmd
}

func runAssetsCheck() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	compositor := images.NewCompositor(cfg.Images.AssetDir, logger)

	if err := compositor.CheckAssets(genetics.Animals); err != nil {
		return fmt.Errorf("asset directory %s incomplete: %w", cfg.Images.AssetDir, err)
	}

	fmt.Printf("asset directory %s covers all %d animals\n", cfg.Images.AssetDir, len(genetics.Animals))
	return nil
}

// Server command

func runServe() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg)
	logger.Info("starting petmint-server", "version", version)

	metrics.Init(cfg.Metrics.Enabled, "petmint")

	// Initialize storage
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	// Run migrations
	if err := store.Migrate(context.Background()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Connect to the ledger node; purchases cannot settle without it.
	if cfg.Ledger.RPCURL == "" {
		return fmt.Errorf("LEDGER_RPC_URL is required")
	}
	ldg, err := ledger.Dial(cfg.Ledger.RPCURL, time.Duration(cfg.Ledger.TimeoutSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to ledger node: %w", err)
	}
	defer ldg.Close()

	netCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	networkID, err := ldg.NetworkID(netCtx)
	cancel()
	if err != nil {
		logger.Warn("ledger node not answering yet", "error", err)
	} else {
		logger.Info("connected to ledger node", "network_id", networkID)
	}

	mint, err := mintPolicy(cfg.Ledger)
	if err != nil {
		return err
	}

	// Create server
	srv := server.New(cfg, store, ldg, mint, logger)

	// Create HTTP server with configurable timeouts
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// mintPolicy validates the payment settings once at startup.
func mintPolicy(cfg config.LedgerConfig) (petsDomain.MintPolicy, error) {
	price, err := validation.ParseAmount(cfg.MintPrice)
	if err != nil {
		return petsDomain.MintPolicy{}, fmt.Errorf("invalid MINT_PRICE %q: %w", cfg.MintPrice, err)
	}

	if cfg.TokenAddress == "" {
		return petsDomain.MintPolicy{}, fmt.Errorf("TOKEN_ADDRESS is required")
	}
	if err := validation.ValidateAddress(cfg.TokenAddress); err != nil {
		return petsDomain.MintPolicy{}, fmt.Errorf("invalid TOKEN_ADDRESS: %w", err)
	}

	if price.Sign() > 0 {
		if cfg.TreasuryAddress == "" {
			return petsDomain.MintPolicy{}, fmt.Errorf("TREASURY_ADDRESS is required when MINT_PRICE is set")
		}
		if err := validation.ValidateAddress(cfg.TreasuryAddress); err != nil {
			return petsDomain.MintPolicy{}, fmt.Errorf("invalid TREASURY_ADDRESS: %w", err)
		}
	}

	return petsDomain.MintPolicy{
		Token:    common.HexToAddress(cfg.TokenAddress),
		Treasury: common.HexToAddress(cfg.TreasuryAddress),
		Price:    price,
	}, nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
