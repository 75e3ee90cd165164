package eia

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v5"
	"github.com/klauspost/compress/gzhttp"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
	"github.com/couchcryptid/eia-switch-etl/internal/tabfile"
)

// LogFileName is the download log kept in the download directory.
const LogFileName = "download_log.csv"

// LogColumns are the columns of the download log.
var LogColumns = []string{"filename", "url", "download_timestamp", "bytes", "sha256", "run_id"}

// Download is the outcome of fetching one Source.
type Download struct {
	Source       Source
	Path         string
	Reused       bool
	Bytes        int64
	SHA256       string
	DownloadedAt time.Time
}

func (d Download) record(runID string) []string {
	return []string{
		d.Source.Name, d.Source.URL, d.DownloadedAt.Format(time.RFC3339),
		strconv.FormatInt(d.Bytes, 10), d.SHA256, runID,
	}
}

// Downloader fetches EIA files into a local directory.
type Downloader struct {
	client         *http.Client
	dir            string
	reuse          bool
	concurrency    int
	maxTries       uint
	initialBackoff time.Duration
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewDownloader creates a Downloader for the configured download directory.
func NewDownloader(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout:   cfg.DownloadTimeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		dir:            cfg.DownloadDir,
		reuse:          cfg.ReusePriorDownloads,
		concurrency:    cfg.DownloadConcurrency,
		maxTries:       uint(cfg.DownloadMaxRetries),
		initialBackoff: 500 * time.Millisecond,
		logger:         logger,
		metrics:        metrics,
	}
}

// Dir returns the download directory.
func (d *Downloader) Dir() string { return d.dir }

// FetchAll downloads sources on a bounded worker pool and appends the new
// downloads to the download log. Results are in source order.
func (d *Downloader) FetchAll(ctx context.Context, sources []Source, runID string) ([]Download, error) {
	pool := pond.NewResultPool[Download](d.concurrency)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	for _, src := range sources {
		group.SubmitErr(func() (Download, error) {
			return d.Fetch(ctx, src)
		})
	}
	results, err := group.Wait()
	if err != nil {
		return nil, err
	}

	var records [][]string
	for _, r := range results {
		if !r.Reused {
			records = append(records, r.record(runID))
		}
	}
	if len(records) > 0 {
		if err := tabfile.Append(filepath.Join(d.dir, LogFileName), LogColumns, records); err != nil {
			return nil, fmt.Errorf("append download log: %w", err)
		}
	}
	return results, nil
}

// Fetch downloads one source, retrying transient failures with exponential
// backoff. Client errors (4xx) are not retried. An existing file is reused
// when prior downloads may be reused.
func (d *Downloader) Fetch(ctx context.Context, src Source) (Download, error) {
	path := filepath.Join(d.dir, src.Name)
	if d.reuse && tabfile.Exists(path) {
		d.logger.Info("skipping download, file already present", "file", src.Name)
		d.metrics.Downloads.WithLabelValues(string(src.Form), "reused").Inc()
		return Download{Source: src, Path: path, Reused: true}, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.initialBackoff
	attempt := 0
	dl, err := backoff.Retry(ctx, func() (Download, error) {
		attempt++
		if attempt > 1 {
			d.logger.Warn("retrying download", "file", src.Name, "attempt", attempt)
		}
		return d.fetchOnce(ctx, src, path)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.maxTries))
	if err != nil {
		d.metrics.Downloads.WithLabelValues(string(src.Form), "error").Inc()
		return Download{}, fmt.Errorf("download %s: %w", src.URL, err)
	}

	d.metrics.Downloads.WithLabelValues(string(src.Form), "downloaded").Inc()
	d.metrics.DownloadBytes.Add(float64(dl.Bytes))
	d.logger.Info("downloaded", "file", src.Name, "url", src.URL, "bytes", dl.Bytes)
	return dl, nil
}

// StatusError is returned for unsuccessful HTTP responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// fetchOnce streams the response into a temporary file that is renamed into
// place once complete, so partial downloads are never reused.
func (d *Downloader) fetchOnce(ctx context.Context, src Source, path string) (Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Download{}, backoff.Permanent(err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return Download{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		serr := &StatusError{URL: src.URL, Status: resp.StatusCode}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return Download{}, backoff.Permanent(serr)
		}
		return Download{}, serr
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return Download{}, backoff.Permanent(err)
	}
	tmp, err := os.CreateTemp(d.dir, src.Name+".*.part")
	if err != nil {
		return Download{}, backoff.Permanent(err)
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Download{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Download{}, backoff.Permanent(err)
	}
	return Download{
		Source:       src,
		Path:         path,
		Bytes:        n,
		SHA256:       hex.EncodeToString(h.Sum(nil)),
		DownloadedAt: domain.Now(),
	}, nil
}

// IsNotFound reports whether err is a 404 from the EIA server.
func IsNotFound(err error) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Status == http.StatusNotFound
}
