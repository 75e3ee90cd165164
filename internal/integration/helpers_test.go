//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/eia"
	"github.com/couchcryptid/eia-switch-etl/internal/eia/eiatest"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("switch-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// startPostgres runs PostGIS, applies the switch migrations, and returns
// the connection URL.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tcpostgres.Run(ctx, "postgis/postgis:16-3.4-alpine",
		tcpostgres.WithDatabase("switch_wecc"),
		tcpostgres.WithUsername("switch"),
		tcpostgres.WithPassword("switch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start postgres")

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(url))
	return url
}

func openStore(ctx context.Context, t *testing.T, url, prefix string) *postgres.Store {
	t.Helper()
	store, err := postgres.Open(ctx, postgres.Options{
		URL:     url,
		Schema:  "switch",
		Prefix:  prefix,
		Logger:  discardLogger(),
		Metrics: observability.NewMetricsForTesting(),
	})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

// execSQL runs statements on a direct connection, outside any Store.
func execSQL(ctx context.Context, t *testing.T, url string, statements ...string) {
	t.Helper()
	conn, err := pgx.Connect(ctx, url)
	require.NoError(t, err)
	defer conn.Close(ctx)
	for _, sql := range statements {
		_, err := conn.Exec(ctx, sql)
		require.NoError(t, err, sql)
	}
}

// queryInt runs a single-value count query.
func queryInt(ctx context.Context, t *testing.T, url, sql string, args ...any) int {
	t.Helper()
	conn, err := pgx.Connect(ctx, url)
	require.NoError(t, err)
	defer conn.Close(ctx)
	var n int
	require.NoError(t, conn.QueryRow(ctx, sql, args...).Scan(&n), sql)
	return n
}

// seedLoadZone adds one zone covering the western United States.
func seedLoadZone(ctx context.Context, t *testing.T, url string) {
	t.Helper()
	execSQL(ctx, t, url, `INSERT INTO switch.load_zone (load_zone_id, name, boundary)
		VALUES (1, 'WEST', ST_MakeEnvelope(-125, 30, -100, 50, 4326))`)
}

// serveFixtures serves the synthetic forms for years by file name.
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
	_, err := eiatest.Write860M(dir, "may", eia.RetiredInventoryYear(end), eiatest.SampleRetired(end))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(dir, filepath.Base(r.URL.Path)))
	}))
	t.Cleanup(srv.Close)
	return srv
}
