package document

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardia/pkg/models"
)

const calendar = "%PDF-1.4 calendario de guardias"

type fakeServer struct {
	*httptest.Server
	gets         atomic.Int32
	heads        atomic.Int32
	lastModified atomic.Value
	body         atomic.Value
	status       atomic.Int32
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	fs.lastModified.Store(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC).Format(http.TimeFormat))
	fs.body.Store(calendar)
	fs.status.Store(http.StatusOK)

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status := int(fs.status.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		body := fs.body.Load().(string)
		w.Header().Set("Last-Modified", fs.lastModified.Load().(string))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Content-Type", "application/pdf")
		if r.Method == http.MethodHead {
			fs.heads.Add(1)
			return
		}
		fs.gets.Add(1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newStore(t *testing.T) (*HTTPStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewHTTPStore(Options{Dir: dir, UserAgent: "guardia-test"})
	require.NoError(t, err)
	return s, dir
}

func region(url string) models.Region {
	return models.Region{ID: models.RegionCuellar, Name: "Cuéllar", DocumentURL: url, Pattern: models.PatternSingle}
}

func TestEffectiveDocument(t *testing.T) {
	ctx := context.Background()
	srv := newFakeServer(t)
	s, dir := newStore(t)
	r := region(srv.URL + "/cuellar.pdf")

	assert.False(t, s.HasCachedFile(r.ID))

	h, err := s.EffectiveDocument(ctx, r)
	require.NoError(t, err)
	assert.True(t, h.Fresh)
	assert.Equal(t, filepath.Join(dir, "cuellar.pdf"), h.Path)
	data, err := os.ReadFile(h.Path)
	require.NoError(t, err)
	assert.Equal(t, calendar, string(data))
	assert.EqualValues(t, 1, srv.gets.Load())

	t.Run("unchanged document is not downloaded again", func(t *testing.T) {
		h, err := s.EffectiveDocument(ctx, r)
		require.NoError(t, err)
		assert.True(t, h.Fresh)
		assert.EqualValues(t, 1, srv.gets.Load())
		assert.Positive(t, srv.heads.Load())
	})

	t.Run("newer document is downloaded", func(t *testing.T) {
		srv.lastModified.Store(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		srv.body.Store(calendar + " actualizado")

		up, err := s.IsUpToDate(ctx, r)
		require.NoError(t, err)
		assert.False(t, up)

		h, err := s.EffectiveDocument(ctx, r)
		require.NoError(t, err)
		assert.True(t, h.Fresh)
		assert.EqualValues(t, 2, srv.gets.Load())
		data, _ := os.ReadFile(h.Path)
		assert.Contains(t, string(data), "actualizado")
	})

	t.Run("unreachable server serves the cached copy", func(t *testing.T) {
		srv.status.Store(http.StatusServiceUnavailable)
		h, err := s.EffectiveDocument(ctx, r)
		require.NoError(t, err)
		assert.False(t, h.Fresh)
		assert.Equal(t, filepath.Join(dir, "cuellar.pdf"), h.Path)
	})
}

func TestEffectiveDocumentWithoutCache(t *testing.T) {
	srv := newFakeServer(t)
	srv.status.Store(http.StatusNotFound)
	s, _ := newStore(t)

	_, err := s.EffectiveDocument(context.Background(), region(srv.URL))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadStatus))

	var docErr *DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, models.RegionCuellar, docErr.Region)
}

func TestEffectiveDocumentRejectsNonPDF(t *testing.T) {
	srv := newFakeServer(t)
	srv.body.Store("<html>mantenimiento</html>")
	s, _ := newStore(t)

	_, err := s.EffectiveDocument(context.Background(), region(srv.URL))
	assert.True(t, errors.Is(err, ErrNotPDF))
	assert.False(t, s.HasCachedFile(models.RegionCuellar))
}

func TestURLChangeInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	srv := newFakeServer(t)
	s, _ := newStore(t)

	_, err := s.EffectiveDocument(ctx, region(srv.URL+"/2025.pdf"))
	require.NoError(t, err)

	up, err := s.IsUpToDate(ctx, region(srv.URL+"/2026.pdf"))
	require.NoError(t, err)
	assert.False(t, up)
}

func TestSameDocument(t *testing.T) {
	jan := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC).Format(http.TimeFormat)
	feb := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC).Format(http.TimeFormat)

	tests := []struct {
		name          string
		local, remote meta
		want          bool
	}{
		{"same last-modified", meta{LastModified: jan}, meta{LastModified: jan}, true},
		{"newer remote", meta{LastModified: jan}, meta{LastModified: feb}, false},
		{"last-modified outranks length", meta{LastModified: jan, ContentLength: 10}, meta{LastModified: jan, ContentLength: 20}, true},
		{"length outranks etag", meta{ContentLength: 10, ETag: `"a"`}, meta{ContentLength: 10, ETag: `"b"`}, true},
		{"length differs", meta{ContentLength: 10}, meta{ContentLength: 11}, false},
		{"etag only", meta{ETag: `"a"`}, meta{ETag: `"a"`}, true},
		{"nothing to compare", meta{}, meta{ETag: `"a"`}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameDocument(tt.local, tt.remote))
		})
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.pdf")
	s := NewFileStore(path)
	r := region("")

	_, err := s.EffectiveDocument(context.Background(), r)
	assert.True(t, errors.Is(err, ErrNoDocument))

	require.NoError(t, os.WriteFile(path, []byte(calendar), 0o644))
	h, err := s.EffectiveDocument(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, path, h.Path)
	assert.True(t, h.Fresh)
}
