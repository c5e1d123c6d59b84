package document

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"guardia/internal/logger"
	"guardia/internal/metrics"
	"guardia/pkg/models"
)

// Options configures an HTTPStore.
type Options struct {
	Dir       string
	Client    *http.Client
	RPS       float64 // downloads per second across all regions
	UserAgent string
}

// HTTPStore downloads region documents and caches them on disk next to a JSON sidecar
// holding the validators of the last download.
type HTTPStore struct {
	dir       string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       zerolog.Logger
}

// meta is the sidecar of a cached document.
type meta struct {
	URL           string    `json:"url"`
	ETag          string    `json:"etag,omitempty"`
	LastModified  string    `json:"last_modified,omitempty"`
	ContentLength int64     `json:"content_length,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// NewHTTPStore creates the cache directory if needed.
func NewHTTPStore(opts Options) (*HTTPStore, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewHTTPStore: create cache dir: %w", err)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	return &HTTPStore{
		dir:       opts.Dir,
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: opts.UserAgent,
		log:       logger.WithComponent("document"),
	}, nil
}

func (s *HTTPStore) pdfPath(id models.RegionID) string {
	return filepath.Join(s.dir, string(id)+".pdf")
}

func (s *HTTPStore) metaPath(id models.RegionID) string {
	return filepath.Join(s.dir, string(id)+".json")
}

// HasCachedFile implements Store.
func (s *HTTPStore) HasCachedFile(region models.RegionID) bool {
	_, err := os.Stat(s.pdfPath(region))
	return err == nil
}

// IsUpToDate implements Store. A missing copy or sidecar is never up to date.
func (s *HTTPStore) IsUpToDate(ctx context.Context, region models.Region) (bool, error) {
	const op = "HTTPStore.IsUpToDate"

	if !s.HasCachedFile(region.ID) {
		return false, nil
	}
	local, err := s.readMeta(region.ID)
	if err != nil || local.URL != region.DocumentURL {
		return false, nil
	}

	remote, err := s.head(ctx, region.DocumentURL)
	if err != nil {
		return false, WrapDocumentError(op, region.ID, err, region.DocumentURL)
	}
	return sameDocument(local, remote), nil
}

// sameDocument compares validators in order of preference: Last-Modified, then
// Content-Length, then ETag. The first validator both sides carry decides.
func sameDocument(local, remote meta) bool {
	if local.LastModified != "" && remote.LastModified != "" {
		lt, err1 := http.ParseTime(local.LastModified)
		rt, err2 := http.ParseTime(remote.LastModified)
		if err1 == nil && err2 == nil {
			return !rt.After(lt)
		}
		return local.LastModified == remote.LastModified
	}
	if local.ContentLength > 0 && remote.ContentLength > 0 {
		return local.ContentLength == remote.ContentLength
	}
	if local.ETag != "" && remote.ETag != "" {
		return local.ETag == remote.ETag
	}
	return false
}

// EffectiveDocument implements Store.
func (s *HTTPStore) EffectiveDocument(ctx context.Context, region models.Region) (*Handle, error) {
	const op = "HTTPStore.EffectiveDocument"
	log := s.log.With().Str("region", string(region.ID)).Logger()
	cached := s.HasCachedFile(region.ID)

	if cached {
		fresh, err := s.IsUpToDate(ctx, region)
		if err != nil {
			log.Warn().Err(err).Msg("Freshness check failed, serving cached copy")
			metrics.DocumentFetches.WithLabelValues(string(region.ID), "stale").Inc()
			return &Handle{Region: region.ID, Path: s.pdfPath(region.ID), Fresh: false}, nil
		}
		if fresh {
			log.Debug().Msg("Cached document is up to date")
			metrics.DocumentFetches.WithLabelValues(string(region.ID), "cached").Inc()
			return &Handle{Region: region.ID, Path: s.pdfPath(region.ID), Fresh: true}, nil
		}
	}

	if err := s.download(ctx, region); err != nil {
		if cached {
			log.Warn().Err(err).Msg("Download failed, serving cached copy")
			metrics.DocumentFetches.WithLabelValues(string(region.ID), "stale").Inc()
			return &Handle{Region: region.ID, Path: s.pdfPath(region.ID), Fresh: false}, nil
		}
		metrics.DocumentFetches.WithLabelValues(string(region.ID), "error").Inc()
		return nil, WrapDocumentError(op, region.ID, err, region.DocumentURL)
	}

	metrics.DocumentFetches.WithLabelValues(string(region.ID), "downloaded").Inc()
	return &Handle{Region: region.ID, Path: s.pdfPath(region.ID), Fresh: true}, nil
}

func (s *HTTPStore) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	return req, nil
}

func (s *HTTPStore) head(ctx context.Context, url string) (meta, error) {
	req, err := s.newRequest(ctx, http.MethodHead, url)
	if err != nil {
		return meta{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return meta{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return meta{}, fmt.Errorf("%w: HEAD %s: %s", ErrBadStatus, url, resp.Status)
	}
	return metaFrom(url, resp), nil
}

func metaFrom(url string, resp *http.Response) meta {
	return meta{
		URL:           url,
		ETag:          resp.Header.Get("ETag"),
		LastModified:  resp.Header.Get("Last-Modified"),
		ContentLength: resp.ContentLength,
	}
}

func (s *HTTPStore) download(ctx context.Context, region models.Region) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := s.newRequest(ctx, http.MethodGet, region.DocumentURL)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: %s", ErrBadStatus, region.DocumentURL, resp.Status)
	}

	body := bufio.NewReader(resp.Body)
	if sig, err := body.Peek(5); err != nil || !bytes.Equal(sig, []byte("%PDF-")) {
		return ErrNotPDF
	}

	tmp, err := os.CreateTemp(s.dir, string(region.ID)+"-*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.pdfPath(region.ID)); err != nil {
		return err
	}

	m := metaFrom(region.DocumentURL, resp)
	if m.ContentLength <= 0 {
		m.ContentLength = n
	}
	m.FetchedAt = time.Now().UTC()

	s.log.Info().
		Str("region", string(region.ID)).
		Int64("bytes", n).
		Str("last_modified", m.LastModified).
		Msg("Document downloaded")
	return s.writeMeta(region.ID, m)
}

func (s *HTTPStore) readMeta(id models.RegionID) (meta, error) {
	var m meta
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}

func (s *HTTPStore) writeMeta(id models.RegionID, m meta) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(id), data, 0o644)
}
