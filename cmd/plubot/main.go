// Command plubot runs the PLU barcode lookup bot: a Telegram transport in
// front of the catalog/resolver/render pipeline, plus a liveness and metrics
// listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/t8nr/plubot/bot"
	"github.com/t8nr/plubot/catalog"
	"github.com/t8nr/plubot/config"
	"github.com/t8nr/plubot/health"
	"github.com/t8nr/plubot/logging"
	"github.com/t8nr/plubot/render"
	"github.com/t8nr/plubot/telegram"
)

const tokenEnv = "PLUBOT_TELEGRAM_TOKEN"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "plubot",
		Short:         "Telegram bot that answers PLU and product-name queries with barcode images",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if token := os.Getenv(tokenEnv); token != "" {
		cfg.Telegram.Token = token
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	loader := catalog.NewLoader(cfg.Catalog.Path, cfg.CatalogValidity(), log)
	defer loader.Close()

	renderer := render.NewImageRenderer()
	if cfg.Render.BarWidth > 0 {
		renderer.BarWidth = cfg.Render.BarWidth
	}
	if cfg.Render.BarHeight > 0 {
		renderer.BarHeight = cfg.Render.BarHeight
	}
	store, err := render.NewCache(cfg.Render.Dir, renderer, cfg.Render.MemoryCacheSize, log)
	if err != nil {
		return err
	}

	engine := bot.NewEngine(loader, store, log)
	transport, err := telegram.New(cfg.Telegram.Token, cfg.PollTimeout(), engine, log)
	if err != nil {
		return err
	}

	hs := health.NewServer(cfg.Health.Addr, log)
	go hs.Start()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("plubot started", "catalog", cfg.Catalog.Path, "artifacts", cfg.Render.Dir)
	err = transport.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if herr := hs.Shutdown(shutdownCtx); herr != nil {
		log.Warnw("health server shutdown", "error", herr)
	}

	if errors.Is(err, context.Canceled) {
		log.Infow("plubot stopped")
		return nil
	}
	return err
}
