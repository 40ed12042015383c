package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/t-sasaki1124/ytdash"
)

func main() {
	// .env is optional, the environment may already be set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v", err)
	}

	var configPath string

	rootCmd := &cobra.Command{
		Use:          "ytdash",
		Short:        "YouTube comment dashboard and clustering CLI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ytdash.LoadConfig(configPath)
			if err != nil {
				return err
			}
			ytdash.Config = cfg
			ytdash.Logger = mustMakeLogger(cfg.LogLevel)
			slog.SetDefault(ytdash.Logger)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(ytdash.FetchCommentsCmd)
	rootCmd.AddCommand(ytdash.ImportCommentsCmd)
	rootCmd.AddCommand(ytdash.ClusterCommentsCmd)
	rootCmd.AddCommand(ytdash.SuggestRepliesCmd)
	rootCmd.AddCommand(ytdash.ServeDashboardCmd)
	rootCmd.AddCommand(ytdash.CleanCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func mustMakeLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		panic("unknown log level: " + logLevel)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
