package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bitebook/backend/config"
	"github.com/bitebook/backend/internal/infrastructure/cache"
	"github.com/bitebook/backend/internal/infrastructure/places"
	"github.com/bitebook/backend/internal/infrastructure/store"
	"github.com/bitebook/backend/internal/logger"
	"github.com/bitebook/backend/internal/usecase"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "bitebook",
		Short:         "Bitebook place tracking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newFeedCommand(ctx))
	rootCmd.AddCommand(newResolveCommand(ctx))

	return rootCmd
}

// commandContext loads configuration and the logger once per invocation
type commandContext struct {
	configFlag *string

	once      sync.Once
	config    *config.Config
	logger    *zap.Logger
	configErr error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		cfg, err := config.LoadFile(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		log, err := logger.New(cfg.Log.Level, cfg.Server.Environment)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = log
	})
	return c.config, c.configErr
}

// app is the wired set of services shared by serve and the maintenance commands
type app struct {
	store  store.Store
	cache  *cache.MemoryCache
	places *usecase.PlaceService
	feed   *usecase.FeedService
}

func (c *commandContext) buildApp(ctx context.Context) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	placeStore, err := store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DSN:         cfg.Store.DSN,
		AutoMigrate: cfg.Store.AutoMigrate,
	}, c.logger)
	if err != nil {
		return nil, err
	}

	memCache := cache.NewMemoryCache(cache.Options{
		MaxEntries:      cfg.Cache.MaxEntries,
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})

	if cfg.Provider.APIKey == "" {
		c.logger.Warn("provider API key not configured; enrichment calls will fail")
	}
	provider := places.NewClient(places.Config{
		APIKey:         cfg.Provider.APIKey,
		BaseURL:        cfg.Provider.BaseURL,
		SearchURL:      cfg.Provider.SearchURL,
		SearchSuffix:   cfg.Provider.SearchSuffix,
		ConnectTimeout: cfg.Provider.ConnectTimeout,
		ReadTimeout:    cfg.Provider.ReadTimeout,
		RateLimit:      cfg.Provider.RateLimit,
		MaxAttempts:    cfg.Provider.MaxAttempts,
	}, c.logger)

	placeService := usecase.NewPlaceService(placeStore, memCache, provider, usecase.PlaceServiceConfig{
		EnrichOnAdd:           cfg.Enrichment.EnrichOnAdd,
		OverwriteClosedStatus: cfg.Enrichment.OverwriteClosedStatus,
	}, c.logger)

	return &app{
		store:  placeStore,
		cache:  memCache,
		places: placeService,
		feed:   usecase.NewFeedService(placeStore),
	}, nil
}

func (a *app) Close() error {
	a.cache.Close()
	return a.store.Close()
}
