package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/phanxgames/magstack"
	"github.com/phanxgames/magstack/internal/archive"
	"github.com/phanxgames/magstack/internal/cache"
	"github.com/phanxgames/magstack/internal/fetch"
	"github.com/phanxgames/magstack/internal/thumbnail"
)

const appName = "magstack"

func newSource(s settings, logger *log.Logger) *archive.Client {
	return archive.NewClient(
		archive.WithBaseURL(s.Archive.BaseURL),
		archive.WithQuery(s.Archive.Query),
		archive.WithRows(s.Archive.Rows),
		archive.WithLogger(logger),
		archive.WithFetcher(fetch.NewClient()),
	)
}

// populate fills st from src and waits for the fetch. Thumbnails keep
// loading in the background.
func populate(ctx context.Context, st *magstack.Stack, src magstack.ContentSource, loader magstack.ThumbnailLoader) error {
	if err := <-st.Populate(ctx, src, loader); err != nil {
		return fmt.Errorf("populate stack: %w", err)
	}
	return nil
}

// openCache picks the thumbnail cache: none when disabled, redis when a URL
// is set and reachable, otherwise files under the cache directory.
func openCache(ctx context.Context, s settings, logger *log.Logger) (cache.Cache, error) {
	if s.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if s.Cache.RedisURL != "" {
		rc, err := cache.ParseRedisURL(s.Cache.RedisURL, appName+":")
		if err != nil {
			return nil, err
		}
		err = rc.Ping(ctx)
		if err == nil {
			logger.Debug("thumbnail cache", "backend", "redis")
			return rc, nil
		}
		logger.Warn("redis unavailable, using file cache", "err", err)
		_ = rc.Close()
	}

	dir := s.Cache.Dir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
		dir = filepath.Join(base, appName, "thumbnails")
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("thumbnail cache", "backend", "file", "dir", dir)
	return fc, nil
}

func newLoader(c cache.Cache, s settings, logger *log.Logger) (*thumbnail.Loader, error) {
	ttl, err := s.ttl()
	if err != nil {
		return nil, err
	}
	return thumbnail.NewLoader(
		thumbnail.WithCache(c),
		thumbnail.WithTTL(ttl),
		thumbnail.WithConcurrency(s.Archive.Concurrency),
		thumbnail.WithLogger(logger),
	), nil
}

// offlineItems returns n placeholder items for running without a network.
func offlineItems(n int) []magstack.Item {
	items := make([]magstack.Item, n)
	for i := range items {
		items[i] = magstack.Item{ID: fmt.Sprintf("offline-%02d", i+1)}
	}
	return items
}

// removalLog reports dismissed cards.
type removalLog struct{ logger *log.Logger }

func (r removalLog) CardRemoved(item magstack.Item, remaining int) {
	r.logger.Info("dismissed", "item", item.ID, "remaining", remaining)
}

// eventLog reports stack events at debug level.
func eventLog(logger *log.Logger) magstack.EventSink {
	return magstack.EventSinkFunc(func(ev magstack.StackEvent) {
		logger.Debug("stack event", "type", ev.Type, "item", ev.Item.ID,
			"direction", ev.Direction, "outcome", ev.Outcome, "remaining", ev.Remaining)
	})
}
