package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/FloThinksPi-Forks/vstutils/internal/api"
	"github.com/FloThinksPi-Forks/vstutils/internal/app"
	"github.com/FloThinksPi-Forks/vstutils/internal/bulk"
	"github.com/FloThinksPi-Forks/vstutils/internal/cache"
	"github.com/FloThinksPi-Forks/vstutils/internal/otel"
	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// memoryTTL bounds how long a process keeps resources it read from disk.
const memoryTTL = 10 * time.Minute

type runtime struct {
	settings  *settings
	session   *app.Session
	connector *bulk.Connector
	store     cache.Store
	shutdown  func(context.Context) error
}

func (r *runtime) Close() {
	r.connector.Close()
	r.store.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.shutdown(ctx)
}

func newStore(ctx context.Context, logger logger.Logger, s *settings) (cache.Store, error) {
	memory := cache.NewMemoryStore(ctx, memoryTTL, time.Minute)
	if s.NoCache {
		return memory, nil
	}
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		memory.Close()
		return nil, fmt.Errorf("error creating %s: %w", s.DataDir, err)
	}
	disk, err := cache.NewDiskStore(cache.DiskStoreConfig{
		Context: ctx,
		Logger:  logger,
		Dir:     s.DataDir,
	})
	if err != nil {
		memory.Close()
		return nil, fmt.Errorf("error opening cache in %s: %w", s.DataDir, err)
	}
	return cache.NewTiered(memory, disk), nil
}

// startSession wires the transport, the cache and the API client and starts a session.
func startSession(ctx context.Context, cmd *cobra.Command, logger logger.Logger) (*runtime, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger.Trace("settings: %s", util.JSONStringify(util.MaskSettings(viper.AllSettings())))
	shutdown, err := otel.Setup(s.OtelEndpoint, "vstutils", Version)
	if err != nil {
		return nil, fmt.Errorf("error setting up tracing: %w", err)
	}
	store, err := newStore(ctx, logger, s)
	if err != nil {
		return nil, err
	}
	connector := bulk.NewConnector(bulk.ConnectorConfig{
		Context: ctx,
		Logger:  logger,
		Transport: bulk.NewHTTPTransport(bulk.HTTPTransportConfig{
			URL:    s.URL,
			Token:  s.Token,
			Logger: logger,
		}),
		Window: s.BulkWindow,
	})
	r := &runtime{settings: s, connector: connector, store: store, shutdown: shutdown}
	client := api.New(api.Config{
		Logger:    logger,
		URL:       s.URL,
		Token:     s.Token,
		Connector: connector,
		Store:     store,
		Version:   Version,
	})
	r.session = app.New(app.Config{
		Logger:    logger,
		API:       client,
		Connector: connector,
		Language:  s.Language,
		UserID:    s.UserID,
	})
	started := time.Now()
	quiet := mustFlagBool(cmd, "silent", false) || mustFlagBool(cmd, "verbose", false)
	if _, err := util.RunWithSpinner(ctx, quiet, "Loading schema...", func() (bool, error) {
		return true, r.session.Start(ctx)
	}); err != nil {
		r.Close()
		return nil, err
	}
	logger.Debug("session started in %v", time.Since(started))
	return r, nil
}
