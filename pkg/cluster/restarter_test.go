package cluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/health"
	"github.com/cuemby/keepalive/pkg/process"
	"github.com/cuemby/keepalive/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticProber(healthy bool, err error) health.Prober {
	return health.ProberFunc(func(ctx context.Context, cmd types.Command, timeout time.Duration) types.ProbeResult {
		return types.ProbeResult{Healthy: healthy, Err: err}
	})
}

func testConfig(settle time.Duration) config.ClusterConfig {
	cfg := config.Default().Cluster
	cfg.SettleDelay = settle
	return cfg
}

func TestReconcile_HealthyClusterIsLeftAlone(t *testing.T) {
	runner := &process.MockRunner{}
	r := NewRestarter(testConfig(0), staticProber(true, nil), runner, nil, clock.NewMock())

	restarted := r.Reconcile(context.Background())

	assert.False(t, restarted)
	assert.Zero(t, len(runner.Runs()))
	assert.Equal(t, types.ClusterStateUp, r.State())
}

func TestReconcile_RestartsWhenProbeFails(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "unhealthy", err: nil},
		{name: "probe error", err: errors.New("docker: command not found")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &process.MockRunner{}
			pub := &events.Recorder{}
			cfg := testConfig(0)
			r := NewRestarter(cfg, staticProber(false, tt.err), runner, pub, clock.NewMock())

			restarted := r.Reconcile(context.Background())

			assert.True(t, restarted)
			require.Equal(t, 1, len(runner.Runs()))
			assert.Equal(t, cfg.BringUp, runner.Runs()[0])
			assert.Equal(t, types.ClusterStateUp, r.State())
			require.Len(t, pub.Events(), 1)
			assert.Equal(t, events.EventClusterRestarted, pub.Events()[0].Type)
		})
	}
}

func TestReconcile_WaitsSettleDelayThenUp(t *testing.T) {
	mock := clock.NewMock()
	runner := &process.MockRunner{}
	r := NewRestarter(testConfig(30*time.Second), staticProber(false, nil), runner, nil, mock)

	done := make(chan bool, 1)
	go func() {
		done <- r.Reconcile(context.Background())
	}()

	require.Eventually(t, func() bool { return len(runner.Runs()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, types.ClusterStateRestarting, r.State())

	select {
	case <-done:
		t.Fatal("Reconcile returned before the settle delay elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	assert.Eventually(t, func() bool {
		mock.Add(30 * time.Second)
		select {
		case restarted := <-done:
			return restarted
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, types.ClusterStateUp, r.State())
	assert.Equal(t, 1, len(runner.Runs()))
}

func TestReconcile_BringUpFailureIsAbsorbed(t *testing.T) {
	runner := &process.MockRunner{Err: errors.New("compose file not found")}
	pub := &events.Recorder{}
	r := NewRestarter(testConfig(0), staticProber(false, nil), runner, pub, clock.NewMock())

	assert.NotPanics(t, func() {
		assert.True(t, r.Reconcile(context.Background()))
	})
	assert.Equal(t, types.ClusterStateUp, r.State())
	require.Len(t, pub.Events(), 1)
	assert.Contains(t, pub.Events()[0].Message, "compose file not found")
}

func TestReconcile_NoBackoffBetweenCycles(t *testing.T) {
	runner := &process.MockRunner{}
	r := NewRestarter(testConfig(0), staticProber(false, nil), runner, nil, clock.NewMock())

	for i := 0; i < 3; i++ {
		r.Reconcile(context.Background())
	}

	assert.Equal(t, 3, len(runner.Runs()))
	n, _ := r.Restarts()
	assert.Equal(t, 3, n)
}

func TestReconcile_CancelledDuringSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &process.MockRunner{}
	r := NewRestarter(testConfig(time.Hour), staticProber(false, nil), runner, nil, clock.NewMock())

	done := make(chan struct{})
	go func() {
		r.Reconcile(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(runner.Runs()) == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Reconcile did not return after cancellation")
	}
}
