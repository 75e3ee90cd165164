//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/eia-switch-etl/internal/adapter/kafka"
	"github.com/couchcryptid/eia-switch-etl/internal/adapter/postgres"
	"github.com/couchcryptid/eia-switch-etl/internal/config"
	"github.com/couchcryptid/eia-switch-etl/internal/domain"
	"github.com/couchcryptid/eia-switch-etl/internal/eia"
	"github.com/couchcryptid/eia-switch-etl/internal/observability"
	"github.com/couchcryptid/eia-switch-etl/internal/pipeline"
	"github.com/couchcryptid/eia-switch-etl/internal/tabfile"
)

const testTopic = "switch-generation-plants-test"

// plantMessage holds a deserialized message read from the plant topic.
type plantMessage struct {
	Event   domain.PlantEvent
	Key     string
	Headers map[string]string
}

func readPlant(ctx context.Context, t *testing.T, consumer *kafkago.Reader) plantMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from plant topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.PlantEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal plant message")
	return plantMessage{Event: event, Key: string(msg.Key), Headers: headers}
}

func newConsumer(broker string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
}

// TestKafkaWriter verifies plant events round-trip through Kafka with their
// key and headers.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	defer writer.Close()

	plant := domain.LoadedPlant{
		Plant: domain.Plant{
			Name: "Cholla_ST_Coal", GenTech: "ST", EnergySource: "Coal", EIAPlantCode: 100,
			CapacityLimitMW: 500, IsBaseload: true,
			BuildYears: []domain.BuildYear{{Year: 1978, CapacityMW: 250}, {Year: 1980, CapacityMW: 250}},
		},
		ID:         42,
		LoadZoneID: 3,
	}
	event := domain.NewPlantEvent(19, plant, "run-1")
	require.NoError(t, writer.Publish(ctx, []domain.PlantEvent{event}))

	consumer := newConsumer(broker)
	defer consumer.Close()

	got := readPlant(ctx, t, consumer)
	assert.Equal(t, "19-42", got.Key)
	assert.Equal(t, "19", got.Headers["scenario_id"])
	assert.Equal(t, "run-1", got.Headers["run_id"])
	assert.Equal(t, "Cholla_ST_Coal", got.Event.Name)
	assert.Equal(t, 3, got.Event.LoadZoneID)
	assert.Len(t, got.Event.BuildYears, 2)
}

// TestPipelineEndToEnd downloads synthetic forms from a local server,
// processes them, loads both scenarios into PostGIS, and publishes every
// loaded plant to Kafka.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	url := startPostgres(ctx, t)
	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)
	seedLoadZone(ctx, t, url)

	srv := serveFixtures(t, 2017, 2018)
	dir := t.TempDir()
	cfg := &config.Config{
		StartYear:               2017,
		EndYear:                 2018,
		EndMonth:                "may",
		Latest860Year:           2018,
		Latest923Year:           2019,
		EIA860BaseURL:           srv.URL + "/eia860",
		EIA923BaseURL:           srv.URL + "/eia923",
		EIA860MBaseURL:          srv.URL + "/eia860m",
		DownloadDir:             filepath.Join(dir, "downloads"),
		OutputDir:               filepath.Join(dir, "processed_data"),
		OtherDataDir:            filepath.Join(dir, "other_data"),
		DownloadConcurrency:     2,
		DownloadTimeout:         10 * time.Second,
		DownloadMaxRetries:      1,
		Schema:                  "switch",
		RegionID:                13,
		RegionName:              "WECC",
		RegionAreaFraction:      0.5,
		SourceScenarioID:        1,
		DisaggregatedScenarioID: 19,
		AggregatedScenarioID:    20,
		AllowPurge:              true,
		KafkaBrokers:            []string{broker},
		KafkaTopic:              testTopic,
	}
	require.NoError(t, tabfile.Write(pipeline.CountyCachePath(cfg.OtherDataDir, cfg.RegionName),
		[]string{"County", "State"}, [][]string{{"Kern", "CA"}, {"El Paso", "TX"}}))

	metrics := observability.NewMetricsForTesting()
	store := openStore(ctx, t, url, "")
	writer := kafka.NewWriter(cfg, discardLogger())
	defer writer.Close()

	p := pipeline.New(
		eia.NewExtractor(cfg, discardLogger(), metrics),
		pipeline.NewProcessor(cfg, nil, discardLogger(), metrics),
		postgres.NewSwitchLoader(store, cfg, discardLogger()),
		writer,
		discardLogger(),
		metrics,
		pipeline.Options{MaxAttempts: 2},
	)

	loads, err := p.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.True(t, p.Ready())

	disaggregated, aggregated := loads[0], loads[1]
	assert.Equal(t, 19, disaggregated.Scenario)
	assert.Equal(t, 20, aggregated.Scenario)
	assert.NotEmpty(t, disaggregated.Plants)
	assert.LessOrEqual(t, len(aggregated.Plants), len(disaggregated.Plants))

	members := queryInt(ctx, t, url,
		"SELECT count(*) FROM switch.generation_plant_scenario_member WHERE generation_plant_scenario_id = $1", 19)
	assert.Equal(t, len(disaggregated.Plants), members)

	for _, scenario := range []int{19, 20} {
		gaps, err := store.ScenarioGaps(ctx, scenario)
		require.NoError(t, err)
		assert.Empty(t, gaps, "scenario %d", scenario)
	}

	summary, err := store.PullScenario(ctx, 19)
	require.NoError(t, err)
	assert.Positive(t, summary.Plants)
	assert.Positive(t, summary.CapacityGW)

	assert.Zero(t, queryInt(ctx, t, url,
		"SELECT count(*) FROM switch.generation_plant WHERE gen_tech = 'FC'"), "fuel cells are removed")

	consumer := newConsumer(broker)
	defer consumer.Close()

	want := len(disaggregated.Plants) + len(aggregated.Plants)
	seen := make(map[int]int)
	for range want {
		msg := readPlant(ctx, t, consumer)
		seen[msg.Event.ScenarioID]++
		assert.Equal(t, 1, msg.Event.LoadZoneID)
		assert.Equal(t, msg.Event.ID, msg.Key)
	}
	assert.Equal(t, map[int]int{19: len(disaggregated.Plants), 20: len(aggregated.Plants)}, seen)

	last, ok := p.LastRun()
	require.True(t, ok)
	assert.Equal(t, len(disaggregated.Plants), last.Plants[19])
}
