// Package thumbnail downloads and decodes card pictures.
//
// A [Loader] checks its cache first, then fetches the item's thumbnail URL
// and decodes JPEG, PNG, GIF or WebP. Raw bytes are cached, not decoded
// images, so the cache stays small and backend-neutral.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/webp"

	"github.com/phanxgames/magstack"
	"github.com/phanxgames/magstack/internal/cache"
	"github.com/phanxgames/magstack/internal/fetch"
)

// DefaultConcurrency bounds parallel downloads.
const DefaultConcurrency = magstack.DefaultThumbnailConcurrency

// Loader implements magstack.ThumbnailLoader.
//
// All methods are safe for concurrent use by multiple goroutines.
type Loader struct {
	http   *fetch.Client
	cache  cache.Cache
	ttl    time.Duration
	limit  int
	logger *log.Logger
}

// Option configures a Loader.
type Option func(*Loader)

func WithCache(c cache.Cache) Option     { return func(l *Loader) { l.cache = c } }
func WithTTL(d time.Duration) Option     { return func(l *Loader) { l.ttl = d } }
func WithConcurrency(n int) Option       { return func(l *Loader) { l.limit = max(n, 1) } }
func WithLogger(lg *log.Logger) Option   { return func(l *Loader) { l.logger = lg } }
func WithFetcher(f *fetch.Client) Option { return func(l *Loader) { l.http = f } }

// NewLoader returns a loader with no cache and DefaultConcurrency.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		cache: cache.NewNullCache(),
		ttl:   cache.DefaultTTL,
		limit: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.http == nil {
		l.http = fetch.NewClient()
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	return l
}

// Load returns the decoded thumbnail of item.
//
// Returns:
//   - [magstack.ErrNetwork] when the download fails
//   - [magstack.ErrLoad] when the item has no URL, the URL is missing on the
//     server or the bytes do not decode
func (l *Loader) Load(ctx context.Context, item magstack.Item) (image.Image, error) {
	if item.ThumbnailURL == "" {
		return nil, fmt.Errorf("%w: %s has no thumbnail url", magstack.ErrLoad, item.ID)
	}
	key := cache.Key(item.ThumbnailURL)

	data, hit, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn("thumbnail cache", "item", item.ID, "err", err)
	}
	if hit {
		img, err := decode(data)
		if err == nil {
			return img, nil
		}
		l.logger.Debug("discarding cached thumbnail", "item", item.ID, "err", err)
		_ = l.cache.Delete(ctx, key)
	}

	data, err = l.http.Get(ctx, item.ThumbnailURL)
	if errors.Is(err, fetch.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", magstack.ErrLoad, item.ID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w", item.ID, err)
	}

	img, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", magstack.ErrLoad, item.ID, err)
	}
	if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
		l.logger.Warn("thumbnail cache", "item", item.ID, "err", err)
	}
	return img, nil
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Result is the outcome of loading one item in LoadAll.
type Result = magstack.ThumbnailResult

// LoadAll loads every item concurrently, at most the loader's concurrency at
// a time, and returns the results in the order of items. A failed item does
// not stop the others; its Err wraps [magstack.ErrItemUnavailable].
func (l *Loader) LoadAll(ctx context.Context, items []magstack.Item) []Result {
	results := magstack.LoadAll(ctx, l, items, l.limit, nil)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	l.logger.Debug("thumbnails loaded", "items", len(items), "failed", failed)
	return results
}

// Concurrency reports how many loads a Stack runs through l at once.
func (l *Loader) Concurrency() int { return l.limit }

var _ magstack.BoundedLoader = (*Loader)(nil)
