package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/centromex/foodwaste/internal/bot"
	"github.com/centromex/foodwaste/internal/config"
	"github.com/centromex/foodwaste/internal/dashboard"
	"github.com/centromex/foodwaste/internal/db"
	"github.com/centromex/foodwaste/internal/logging"
)

var errMissingToken = errors.New("telegram token is required (set TELEGRAM_BOT_TOKEN or telegram.token)")

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "Telegram shell for the food wastage dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration from file and environment
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err := logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		defer logger.Sync()

		return run(cfg, logger)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Food Wastage Dashboard bot",
		zap.String("backend", cfg.Storage.Backend))

	if cfg.Telegram.Token == "" {
		return errMissingToken
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	dash := dashboard.New(store, logger.Named("dashboard"))

	telegramBot, err := bot.New(bot.Config{
		Token:     cfg.Telegram.Token,
		EditorIDs: cfg.Telegram.EditorIDs,
		Timeout:   cfg.Telegram.Timeout,
	}, dash, logger.Named("bot"))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegramBot.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		return nil
	})

	logger.Info("Bot is running. Press Ctrl+C to stop.")
	return g.Wait()
}
