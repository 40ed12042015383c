package ytdash

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// ServeDashboardCmd: serves the dashboard and JSON API over HTTP
var ServeDashboardCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the comment dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openConfiguredStore(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				Logger.Error("failed to close database", "error", err)
			}
		}()

		notifier := NewNotifier(Logger, Config.Broker)
		defer notifier.Close()

		server, err := NewServer(Logger, store, NewAnalysisCache(Config.CacheTTL), notifier, ServerConfig{
			GraphLimit: Config.GraphLimit,
			Timeout:    Config.HTTPTimeout,
			Analysis: Options{
				Clusters: Config.WebClusters,
				Seed:     Config.ClusterSeed,
				Log:      Logger,
			},
		})
		if err != nil {
			return err
		}

		if Config.Broker.Address != "" {
			sub, err := NewSubscriber(Logger, Config.Broker.Address, Config.Broker.Subject, server)
			if err != nil {
				Logger.Warn("cache warm-up disabled", "error", err)
			} else {
				defer sub.Close()
				if err := sub.Start(ctx); err != nil {
					Logger.Warn("cache warm-up disabled", "error", err)
				}
			}
		}

		httpServer := http.Server{
			Addr:        Config.HTTPAddress,
			ReadTimeout: Config.HTTPTimeout,
			Handler:     server.Routes(Config.HTTPRate),
		}

		go func() {
			<-ctx.Done()
			Logger.Debug("shutting down server")
			if err := httpServer.Shutdown(context.Background()); err != nil {
				Logger.Error("erroneous shutdown", "error", err)
			}
		}()

		go func() {
			if err := server.Warm(ctx); err != nil {
				Logger.Warn("initial cache warm-up failed", "error", err)
			}
		}()

		Logger.Info("running HTTP server", "address", Config.HTTPAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
