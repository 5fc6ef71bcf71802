package process

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/keepalive/pkg/types"
)

// Launch records one call to a MockLauncher
type Launch struct {
	Command types.Command
	LogFile string
}

// MockLauncher records launches instead of starting processes. Errors maps
// a command path to the error its launch should fail with.
type MockLauncher struct {
	mu       sync.Mutex
	launches []Launch
	Errors   map[string]error
}

// NewMockLauncher creates an empty mock launcher
func NewMockLauncher() *MockLauncher {
	return &MockLauncher{Errors: make(map[string]error)}
}

// Launch records the call
func (m *MockLauncher) Launch(cmd types.Command, logFile string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.launches = append(m.launches, Launch{Command: cmd, LogFile: logFile})
	if err := m.Errors[cmd.Path]; err != nil {
		return 0, err
	}
	return 1000 + len(m.launches), nil
}

// Launches returns the recorded launches in call order
func (m *MockLauncher) Launches() []Launch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Launch(nil), m.launches...)
}

// MockRunner records blocking runs
type MockRunner struct {
	mu     sync.Mutex
	runs   []types.Command
	Output string
	Err    error
}

// Run records the call and returns the configured output and error
func (m *MockRunner) Run(ctx context.Context, cmd types.Command, timeout time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, cmd)
	return m.Output, m.Err
}

// Runs returns the recorded commands in call order
func (m *MockRunner) Runs() []types.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.Command(nil), m.runs...)
}
