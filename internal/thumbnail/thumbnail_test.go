package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/magstack"
	"github.com/phanxgames/magstack/internal/cache"
	"github.com/phanxgames/magstack/internal/fetch"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type imageServer struct {
	*httptest.Server
	hits atomic.Int32
}

// newImageServer serves a 4x6 PNG for every id except "missing" (404),
// "garbage" (undecodable) and "broken" (500).
func newImageServer(t *testing.T) *imageServer {
	t.Helper()
	s := &imageServer{}
	body := pngBytes(t, 4, 6)

	r := chi.NewRouter()
	r.Get("/services/img/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		switch chi.URLParam(r, "id") {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
		case "garbage":
			_, _ = w.Write([]byte("not an image"))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		}
	})
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func (s *imageServer) item(id string) magstack.Item {
	return magstack.Item{ID: id, ThumbnailURL: s.URL + "/services/img/" + id}
}

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	opts = append([]Option{
		WithFetcher(fetch.NewClient(fetch.WithRetry(2, time.Millisecond))),
		WithLogger(log.New(io.Discard)),
	}, opts...)
	return NewLoader(opts...)
}

func TestLoad(t *testing.T) {
	srv := newImageServer(t)
	img, err := newTestLoader(t).Load(context.Background(), srv.item("byte-1984"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 6), img.Bounds())
}

func TestLoadErrors(t *testing.T) {
	srv := newImageServer(t)
	l := newTestLoader(t)
	ctx := context.Background()

	tests := []struct {
		name string
		item magstack.Item
		want error
	}{
		{"no url", magstack.Item{ID: "x"}, magstack.ErrLoad},
		{"not found", srv.item("missing"), magstack.ErrLoad},
		{"undecodable", srv.item("garbage"), magstack.ErrLoad},
		{"server error", srv.item("broken"), magstack.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(ctx, tt.item)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadUsesCache(t *testing.T) {
	srv := newImageServer(t)
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	l := newTestLoader(t, WithCache(fc))
	ctx := context.Background()
	item := srv.item("byte-1985")

	_, err = l.Load(ctx, item)
	require.NoError(t, err)
	_, err = l.Load(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.hits.Load(), "second load hit the network")

	_, hit, err := fc.Get(ctx, cache.Key(item.ThumbnailURL))
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestLoadReplacesCorruptCacheEntry(t *testing.T) {
	srv := newImageServer(t)
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	item := srv.item("byte-1986")
	require.NoError(t, fc.Set(ctx, cache.Key(item.ThumbnailURL), []byte("junk"), time.Hour))

	img, err := newTestLoader(t, WithCache(fc)).Load(ctx, item)
	require.NoError(t, err)
	assert.NotNil(t, img)
	assert.Equal(t, int32(1), srv.hits.Load())
}

func TestLoadAllKeepsOrderAndToleratesFailures(t *testing.T) {
	srv := newImageServer(t)
	items := []magstack.Item{
		srv.item("a"), srv.item("missing"), srv.item("c"),
		srv.item("garbage"), srv.item("e"), srv.item("f"),
	}

	results := newTestLoader(t, WithConcurrency(2)).LoadAll(context.Background(), items)
	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, items[i].ID, r.Item.ID, "result %d out of order", i)
		switch r.Item.ID {
		case "missing", "garbage":
			assert.ErrorIs(t, r.Err, magstack.ErrItemUnavailable)
			assert.ErrorIs(t, r.Err, magstack.ErrLoad)
			assert.Nil(t, r.Image)
		default:
			assert.NoError(t, r.Err)
			assert.NotNil(t, r.Image)
		}
	}
}

func TestLoadAllEmpty(t *testing.T) {
	assert.Empty(t, newTestLoader(t).LoadAll(context.Background(), nil))
}

// newSlowServer serves a PNG after a short pause and records the most
// requests it saw in flight at once.
func newSlowServer(t *testing.T) (*httptest.Server, *atomic.Int32, *atomic.Int32) {
	t.Helper()
	body := pngBytes(t, 2, 2)
	var inFlight, peak, done atomic.Int32

	r := chi.NewRouter()
	r.Get("/services/img/{id}", func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for p := peak.Load(); n > p && !peak.CompareAndSwap(p, n); p = peak.Load() {
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		done.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &peak, &done
}

func TestStackLoadsWithLoaderConcurrency(t *testing.T) {
	srv, peak, done := newSlowServer(t)
	items := make([]magstack.Item, 6)
	for i := range items {
		items[i] = magstack.Item{ID: string(rune('a' + i)), ThumbnailURL: srv.URL + "/services/img/" + string(rune('a'+i))}
	}
	cfg := magstack.DefaultConfig()
	cfg.MaxVisible = len(items)
	st, err := magstack.NewStack(nil, items, magstack.WithConfig(cfg), magstack.WithThumbnailConcurrency(6))
	require.NoError(t, err)

	st.LoadThumbnails(context.Background(), newTestLoader(t, WithConcurrency(2)))
	require.Eventually(t, func() bool { return done.Load() == int32(len(items)) },
		2*time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestLoadAllHonorsConcurrency(t *testing.T) {
	srv, peak, _ := newSlowServer(t)
	items := make([]magstack.Item, 5)
	for i := range items {
		items[i] = magstack.Item{ID: string(rune('a' + i)), ThumbnailURL: srv.URL + "/services/img/" + string(rune('a'+i))}
	}

	loader := newTestLoader(t, WithConcurrency(3))
	assert.Equal(t, 3, loader.Concurrency())
	results := loader.LoadAll(context.Background(), items)
	require.Len(t, results, len(items))
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}
