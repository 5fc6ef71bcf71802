package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_InfluxDBAndNtfy(t *testing.T) {
	var writes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/write" {
			writes.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Telemetry.Backend = config.BackendInfluxDB
	cfg.Telemetry.InfluxDB = config.InfluxDBConfig{URL: srv.URL, Org: "kafka", Bucket: "keepalive"}
	cfg.Alert.Notifier = config.NotifierNtfy
	cfg.Alert.Topic = "kafka-keepalive"
	cfg.Alert.Ntfy.ServerURL = srv.URL
	require.NoError(t, cfg.Validate())

	a, err := newApp(context.Background(), cfg, &events.Recorder{}, nil, clock.NewMock())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.loop)
	assert.False(t, a.emitter.Running())

	assert.Equal(t, 2, a.emitter.EmitOnce(context.Background()))
	assert.EqualValues(t, 1, writes.Load())
}

func TestNewApp_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Backend = "graphite"

	_, err := newApp(context.Background(), cfg, &events.Recorder{}, nil, clock.NewMock())
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keepalive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instance_id: i-test\nalert:\n  notifier: ntfy\n  topic: kafka-keepalive\n"), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "--config", path, "--log-level", "error"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	rendered, err := config.Parse(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "i-test", rendered.InstanceID)
	assert.Equal(t, config.NotifierNtfy, rendered.Alert.Notifier)
	assert.Equal(t, config.Default().Supervisor.Components, rendered.Supervisor.Components)
}

func TestConfigCommand_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keepalive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telemetry:\n  batch_limit: 50\n"), 0644))

	rootCmd.SetArgs([]string{"config", "--config", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}

func TestServeMetrics_ListenFailureReturns(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		serveMetrics(ctx, ln.Addr().String(), http.NotFoundHandler())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("serveMetrics did not return on an occupied address")
	}
	assert.NoError(t, ctx.Err())
}

func TestServeMetrics_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		serveMetrics(ctx, "127.0.0.1:0", http.NotFoundHandler())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(6 * time.Second):
		t.Fatal("serveMetrics did not stop after cancel")
	}
}
