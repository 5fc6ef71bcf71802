package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/storage"
	"github.com/cuemby/keepalive/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	points  []telemetry.DataPoint
	err     error
	queries []telemetry.Query
}

func (f *fakeQuerier) QueryMetric(ctx context.Context, q telemetry.Query) ([]telemetry.DataPoint, error) {
	f.queries = append(f.queries, q)
	return f.points, f.err
}

type sentAlert struct {
	topic, subject, message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
	err  error
}

func (f *fakeNotifier) Publish(ctx context.Context, topic, subject, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentAlert{topic, subject, message})
	return f.err
}

func newMockClock() *clock.Mock {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC))
	return mock
}

func newDetector(querier MetricQuerier, notifier Notifier, store storage.AlertStore, pub events.Publisher, clk clock.Clock) *GapDetector {
	cfg := config.Default()
	return NewGapDetector(cfg.Alert, cfg.InstanceID, cfg.Telemetry.Namespace, querier, notifier, store, pub, clk)
}

func TestCheckAndAlert_NoDataSendsOneAlert(t *testing.T) {
	mock := newMockClock()
	notifier := &fakeNotifier{}
	rec := &events.Recorder{}
	d := newDetector(&fakeQuerier{}, notifier, nil, rec, mock)

	alerted := d.CheckAndAlert(context.Background())

	assert.True(t, alerted)
	require.Len(t, notifier.sent, 1)
	sent := notifier.sent[0]
	assert.Equal(t, "arn:aws:sns:us-west-2:782045727575:kafka-metrics-alerts", sent.topic)
	assert.Equal(t, "Kafka Metrics Alert", sent.subject)
	assert.Contains(t, sent.message, "i-0a57073bf1538948b")
	assert.Contains(t, sent.message, "2026-05-04T10:30:00Z")
	assert.Contains(t, sent.message, "kafka.producer.request-rate")
	assert.Contains(t, sent.message, "30 minutes")
	assert.Contains(t, sent.message, "dashboards:name=ApacheKafkaOnEc2-Real")

	alerts := rec.OfType(events.EventAlertSent)
	require.Len(t, alerts, 1)
	assert.Equal(t, "i-0a57073bf1538948b", alerts[0].Metadata["instance"])
}

func TestCheckAndAlert_DataPresentSendsNothing(t *testing.T) {
	mock := newMockClock()
	notifier := &fakeNotifier{}
	querier := &fakeQuerier{points: []telemetry.DataPoint{{Timestamp: mock.Now().Add(-5 * time.Minute), Value: 40}}}
	d := newDetector(querier, notifier, nil, nil, mock)

	assert.False(t, d.CheckAndAlert(context.Background()))
	assert.Empty(t, notifier.sent)
}

func TestCheckAndAlert_QueryWindow(t *testing.T) {
	mock := newMockClock()
	querier := &fakeQuerier{points: []telemetry.DataPoint{{Value: 1}}}
	d := newDetector(querier, &fakeNotifier{}, nil, nil, mock)

	d.CheckAndAlert(context.Background())

	require.Len(t, querier.queries, 1)
	q := querier.queries[0]
	assert.Equal(t, "CWAgent", q.Namespace)
	assert.Equal(t, "kafka.producer.request-rate", q.Name)
	assert.Equal(t, mock.Now(), q.End)
	assert.Equal(t, 30*time.Minute, q.End.Sub(q.Start))
	assert.Equal(t, 5*time.Minute, q.Period)
	assert.Equal(t, "Average", q.Statistic)
	assert.Equal(t, config.Default().Alert.CanaryDimensions, q.Dimensions)
}

func TestCheckAndAlert_QueryError(t *testing.T) {
	tests := []struct {
		name         string
		alertOnError bool
		wantAlert    bool
	}{
		{name: "logged only by default", alertOnError: false, wantAlert: false},
		{name: "counts as missing when enabled", alertOnError: true, wantAlert: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Alert.AlertOnQueryErr = tt.alertOnError
			notifier := &fakeNotifier{}
			rec := &events.Recorder{}
			d := NewGapDetector(cfg.Alert, cfg.InstanceID, cfg.Telemetry.Namespace,
				&fakeQuerier{err: errors.New("ExpiredToken")}, notifier, nil, rec, newMockClock())

			assert.Equal(t, tt.wantAlert, d.CheckAndAlert(context.Background()))
			if tt.wantAlert {
				assert.Len(t, notifier.sent, 1)
				assert.Len(t, rec.OfType(events.EventAlertSent), 1)
			} else {
				assert.Empty(t, notifier.sent)
				assert.Empty(t, rec.Events())
			}
		})
	}
}

func TestCheckAndAlert_PublishErrorIsAbsorbed(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("AuthorizationError")}
	rec := &events.Recorder{}
	d := newDetector(&fakeQuerier{}, notifier, nil, rec, newMockClock())

	assert.False(t, d.CheckAndAlert(context.Background()))
	assert.Len(t, notifier.sent, 1)
	assert.Empty(t, rec.OfType(events.EventAlertSent))
}

func TestCheckAndAlert_NoDedupByDefault(t *testing.T) {
	mock := newMockClock()
	notifier := &fakeNotifier{}
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	d := newDetector(&fakeQuerier{}, notifier, store, nil, mock)

	for range 3 {
		assert.True(t, d.CheckAndAlert(context.Background()))
		mock.Add(5 * time.Minute)
	}
	assert.Len(t, notifier.sent, 3)
}

func TestCheckAndAlert_DedupWindow(t *testing.T) {
	mock := newMockClock()
	notifier := &fakeNotifier{}
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	cfg := config.Default()
	cfg.Alert.DedupWindow = time.Hour
	d := NewGapDetector(cfg.Alert, cfg.InstanceID, cfg.Telemetry.Namespace, &fakeQuerier{}, notifier, store, nil, mock)

	assert.True(t, d.CheckAndAlert(context.Background()))

	mock.Add(30 * time.Minute)
	assert.False(t, d.CheckAndAlert(context.Background()), "suppressed inside the dedup window")

	mock.Add(30 * time.Minute)
	assert.True(t, d.CheckAndAlert(context.Background()), "sent again once the window has passed")

	assert.Len(t, notifier.sent, 2)

	last, ok, err := store.LastAlert("gap/kafka.producer.request-rate")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, last.Equal(mock.Now()))
}

func TestCheckAndAlert_FailedPublishIsNotRecorded(t *testing.T) {
	mock := newMockClock()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	cfg := config.Default()
	cfg.Alert.DedupWindow = time.Hour
	notifier := &fakeNotifier{err: errors.New("throttled")}
	d := NewGapDetector(cfg.Alert, cfg.InstanceID, cfg.Telemetry.Namespace, &fakeQuerier{}, notifier, store, nil, mock)

	assert.False(t, d.CheckAndAlert(context.Background()))

	notifier.err = nil
	mock.Add(5 * time.Minute)
	assert.True(t, d.CheckAndAlert(context.Background()), "a failed delivery must not start the dedup window")
}

func TestMessageWithoutDashboard(t *testing.T) {
	cfg := config.Default()
	cfg.Alert.DashboardURL = ""
	cfg.Alert.Window = time.Hour
	d := NewGapDetector(cfg.Alert, "i-test", "CWAgent", &fakeQuerier{}, &fakeNotifier{}, nil, nil, nil)

	msg := d.Message(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	assert.NotContains(t, msg, "Dashboard:")
	assert.Contains(t, msg, "Instance: i-test")
	assert.Contains(t, msg, "Time: 2026-01-02T03:04:05Z")
	assert.Contains(t, msg, "About an hour")
}
