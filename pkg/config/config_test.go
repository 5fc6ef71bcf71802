package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Supervisor.Components, 7)
	assert.Equal(t, 20, cfg.Telemetry.BatchLimit)
	assert.Equal(t, 30*time.Second, cfg.Cluster.SettleDelay)
	assert.Equal(t, 5*time.Minute, cfg.Loop.Interval)
	assert.Equal(t, 5*time.Second, cfg.Loop.StepDelay)
	assert.Zero(t, cfg.Alert.DedupWindow)
	assert.False(t, cfg.Alert.AlertOnQueryErr)
}

func TestDefaultComponentCommands(t *testing.T) {
	cfg := Default()

	first := cfg.Supervisor.Components[0]
	assert.Equal(t, "KafkaProducer1", first.Name)
	assert.Equal(t, "docker", first.RestartCommand.Path)
	assert.Equal(t, []string{"exec", "-d", "kafka-1", "bash", "-c"}, first.RestartCommand.Args[:5])
	assert.Contains(t, first.RestartCommand.Args[5], "jmxremote.port=9104")
	assert.Contains(t, first.RestartCommand.Args[5], "> /tmp/producer1.log 2>&1")
	assert.Equal(t, "/var/log/keepalive/KafkaProducer1.log", first.LogFile)

	last := cfg.Supervisor.Components[6]
	assert.Equal(t, "ContinuousConsumer", last.Name)
	assert.Contains(t, last.RestartCommand.Args[5], "jmxremote.port=9110")
}

func TestParseOverlaysDefaults(t *testing.T) {
	data := []byte(`
instance_id: i-test
loop:
  interval: 1m
alert:
  dedup_window: 30m
  notifier: ntfy
  topic: kafka-alerts
supervisor:
  components:
    - name: OnlyWorker
      restart:
        path: /usr/local/bin/only-worker
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "i-test", cfg.InstanceID)
	assert.Equal(t, time.Minute, cfg.Loop.Interval)
	assert.Equal(t, 5*time.Second, cfg.Loop.StepDelay)
	assert.Equal(t, 30*time.Minute, cfg.Alert.DedupWindow)
	assert.Equal(t, NotifierNtfy, cfg.Alert.Notifier)
	require.Len(t, cfg.Supervisor.Components, 1)
	assert.Equal(t, "OnlyWorker", cfg.Supervisor.Components[0].Name)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("loop:\n  intervall: 1m\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "duplicate component names",
			mutate: func(c *Config) {
				c.Supervisor.Components[1].Name = c.Supervisor.Components[0].Name
			},
			wantErr: `duplicate name "KafkaProducer1"`,
		},
		{
			name:    "empty component name",
			mutate:  func(c *Config) { c.Supervisor.Components[0].Name = "" },
			wantErr: "supervisor.components[0].name is required",
		},
		{
			name:    "batch limit above backend maximum",
			mutate:  func(c *Config) { c.Telemetry.BatchLimit = 21 },
			wantErr: "telemetry.batch_limit",
		},
		{
			name:    "zero probe timeout",
			mutate:  func(c *Config) { c.Cluster.ProbeTimeout = 0 },
			wantErr: "cluster.probe_timeout must be positive",
		},
		{
			name:    "negative settle delay",
			mutate:  func(c *Config) { c.Cluster.SettleDelay = -time.Second },
			wantErr: "cluster.settle_delay must not be negative",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Telemetry.Backend = "graphite" },
			wantErr: `unknown telemetry.backend "graphite"`,
		},
		{
			name:    "missing topic",
			mutate:  func(c *Config) { c.Alert.Topic = "" },
			wantErr: "alert.topic is required",
		},
		{
			name: "influxdb without bucket",
			mutate: func(c *Config) {
				c.Telemetry.Backend = BackendInfluxDB
				c.Telemetry.InfluxDB.Bucket = ""
			},
			wantErr: "telemetry.influxdb.url and bucket are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "settle_delay: 30s"))

	path := filepath.Join(t.TempDir(), "keepalive.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadShippedExample(t *testing.T) {
	cfg, err := Load("../../configs/keepalive.yaml")
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Cluster, cfg.Cluster)
	assert.Equal(t, def.Supervisor, cfg.Supervisor)
	assert.Equal(t, def.Telemetry, cfg.Telemetry)
	assert.Equal(t, def.Alert, cfg.Alert)
	assert.Equal(t, def.Loop, cfg.Loop)
	assert.True(t, cfg.Log.JSON)
}
