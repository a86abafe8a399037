package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vector-starter/internal/collections"
	"vector-starter/internal/config"
	"vector-starter/internal/embeddings"
	"vector-starter/internal/http"
	"vector-starter/internal/provision"
	"vector-starter/internal/seed"
	"vector-starter/internal/starter"
	"vector-starter/internal/vectordb"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wiring shared by every command.
type app struct {
	cfg         *config.Config
	client      vectordb.Client
	provisioner *provision.Provisioner
}

func newApp() (*app, error) {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	setupLogging(cfg)

	embedder := embeddings.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDimensions)
	client, err := vectordb.Open(vectordb.Options{
		Backend:      cfg.Backend,
		QdrantURL:    cfg.QdrantURL,
		QdrantAPIKey: cfg.QdrantAPIKey,
		ChromemPath:  cfg.ChromemPath,
	}, embedder)
	if err != nil {
		return nil, fmt.Errorf("connecting to vector database: %w", err)
	}
	slog.Info("Vector database client ready", "backend", cfg.Backend)

	return &app{
		cfg:         cfg,
		client:      client,
		provisioner: provision.New(collections.Default(), provision.WithTimeout(cfg.Timeout)),
	}, nil
}

func (a *app) close() {
	if err := a.client.Close(); err != nil {
		slog.Warn("Failed to close vector database client", "error", err)
	}
}

// setupLogging configures structured logging with configurable level and format.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)
}

func newRootCmd() *cobra.Command {
	var (
		query   string
		limit   int
		seedDir string
	)

	cmd := &cobra.Command{
		Use:           "starter",
		Short:         "Provision vector collections and run a near-text demo",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return report(err)
			}
			defer a.close()

			notes := seed.DefaultNotes()
			if seedDir != "" {
				notes, err = seed.NewParser().LoadNotes(seedDir)
				if err != nil {
					return report(fmt.Errorf("loading seed notes: %w", err))
				}
			}

			result, err := starter.Run(cmd.Context(), a.client, a.provisioner, starter.Options{
				Notes: notes,
				Query: query,
				Limit: limit,
			})
			if err != nil {
				return report(err)
			}

			out := cmd.OutOrStdout()
			for _, m := range result.Matches {
				fmt.Fprintf(out, "%.4f\t%s\t%s\n", m.Score, m.Properties.Title, m.Properties.Body)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", starter.DefaultQuery, "near-text query to run")
	cmd.Flags().IntVarP(&limit, "limit", "n", 1, "maximum number of matches")
	cmd.Flags().StringVar(&seedDir, "seed-dir", "", "directory of markdown notes to insert instead of the built-in notes")

	cmd.AddCommand(newEnsureCmd(), newServeCmd())
	return cmd
}

func newEnsureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure [name...]",
		Short: "Create registered collections that do not exist yet",
		Long:  "Create the named collections, or every registered collection when no name is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return report(err)
			}
			defer a.close()

			names := a.provisioner.Registry().Names()
			slices.Sort(names)
			if len(args) > 0 {
				names = make([]collections.Name, len(args))
				for i, arg := range args {
					names[i] = collections.Name(arg)
				}
			}

			var errs []error
			for _, name := range names {
				if err := a.provisioner.EnsureCollection(cmd.Context(), a.client, name); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s ready\n", name)
			}
			return report(errors.Join(errs...))
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return report(err)
			}
			defer a.close()

			router := http.NewRouter(&http.Deps{
				Client:      a.client,
				Provisioner: a.provisioner,
			})

			addr := ":" + a.cfg.APIPort
			srv := &nethttp.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("Starting API server", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, nethttp.ErrServerClosed) {
					return report(fmt.Errorf("API server failed: %w", err))
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("Shutting down API server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return report(srv.Shutdown(shutdownCtx))
		},
	}
}

// report logs err and passes it through so the command exits non-zero.
func report(err error) error {
	if err != nil {
		slog.Error("Command failed", "error", err)
		if provision.IsConfigurationError(err) {
			slog.Error("Check the collection registry", "registered", collections.Names())
		}
	}
	return err
}
