package eia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/eia/eiatest"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
)

// serveFixtures writes the sample forms for years and serves them by file
// name, whatever the requested directory.
func serveFixtures(t *testing.T, years ...int) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	for _, y := range years {
		d := eiatest.Sample(y)
		_, err := eiatest.Write860(dir, d)
		require.NoError(t, err)
		_, err = eiatest.Write923(dir, d)
		require.NoError(t, err)
	}
	end := years[len(years)-1]
	_, err := eiatest.Write860M(dir, "may", RetiredInventoryYear(end), eiatest.SampleRetired(end))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(dir, filepath.Base(r.URL.Path)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func extractConfig(t *testing.T, baseURL string, start, end int) *config.Config {
	t.Helper()
	return &config.Config{
		StartYear:           start,
		EndYear:             end,
		EndMonth:            "may",
		Latest860Year:       end,
		Latest923Year:       end + 1,
		EIA860BaseURL:       baseURL + "/eia860",
		EIA923BaseURL:       baseURL + "/eia923",
		EIA860MBaseURL:      baseURL + "/eia860m",
		DownloadDir:         t.TempDir(),
		DownloadConcurrency: 2,
		DownloadTimeout:     5 * time.Second,
		DownloadMaxRetries:  1,
	}
}

func TestExtractor_Extract(t *testing.T) {
	srv := serveFixtures(t, 2017, 2018)
	metrics := observability.NewMetricsForTesting()
	ext := NewExtractor(extractConfig(t, srv.URL, 2017, 2018), discard(), metrics)

	ds, err := ext.Extract(context.Background(), "run-1")
	require.NoError(t, err)

	require.Len(t, ds.Years, 2)
	assert.Equal(t, 2017, ds.Years[0].Year)
	assert.Equal(t, 2018, ds.EndYear().Year)

	sample := eiatest.Sample(2018)
	end := ds.EndYear()
	require.NotNil(t, end.Form860)
	assert.Len(t, end.Form860.Plants, len(sample.Plants))
	assert.Len(t, end.Form860.Existing, len(sample.Existing))
	assert.Len(t, end.Form860.Proposed, len(sample.Proposed))
	assert.NotEmpty(t, end.Generation)
	assert.Len(t, ds.Retired, 2)

	assert.Positive(t, testutil.ToFloat64(metrics.RowsParsed.WithLabelValues(string(Form860))))
	assert.Positive(t, testutil.ToFloat64(metrics.RowsParsed.WithLabelValues(string(Form923))))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RowsParsed.WithLabelValues(string(Form860M))), 0)
}

func TestExtractor_Extract_MissingArchive(t *testing.T) {
	srv := serveFixtures(t, 2018)
	ext := NewExtractor(extractConfig(t, srv.URL, 2017, 2018), discard(), observability.NewMetricsForTesting())

	_, err := ext.Extract(context.Background(), "run-2")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
