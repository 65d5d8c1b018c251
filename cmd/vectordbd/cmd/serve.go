package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cerplabs/vectordb/internal/api"
	"github.com/cerplabs/vectordb/internal/config"
	"github.com/cerplabs/vectordb/internal/embedclient"
	"github.com/cerplabs/vectordb/internal/index"
	"github.com/cerplabs/vectordb/internal/logging"
	"github.com/cerplabs/vectordb/internal/search"
	"github.com/cerplabs/vectordb/internal/snapshot"
	"github.com/cerplabs/vectordb/internal/store"
)

// newServeCmd creates the serve command, which wires config, logging,
// the core store/index/search/snapshot stack, and the HTTP adapter
// together and blocks until an interrupt or SIGTERM is received.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the vectordbd HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logging.Setup(logging.Config{Level: cfg.LogLevel})

	repo := store.NewRepository()
	registry := index.NewRegistry(repo, index.Algorithm(cfg.DefaultIndex), index.Metric(cfg.DefaultMetric), cfg.LSHNumTables, cfg.LSHNumPlanes)
	repo.SetInvalidator(registry)

	searchSvc := search.NewService(repo, registry)

	snapshots, err := snapshot.NewManager(cfg.DataDir, repo, registry.InvalidateAll)
	if err != nil {
		return fmt.Errorf("serve: initialize snapshot manager: %w", err)
	}

	var embedder *embedclient.Client
	if cfg.EmbeddingsEnabled() {
		embedder = embedclient.New("https://api.cohere.ai/v1", cfg.CohereAPIKey, embedclient.DefaultCacheSize)
	}

	handler := api.NewServer(repo, registry, searchSvc, snapshots, embedder)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("vectordbd listening", slog.String("addr", addr), slog.String("data_dir", cfg.DataDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("vectordbd shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}
}
