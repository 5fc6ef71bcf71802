package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Command describes an external command invocation
type Command struct {
	Path string   `yaml:"path" json:"path"`
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`
	Dir  string   `yaml:"dir,omitempty" json:"dir,omitempty"`
	Env  []string `yaml:"env,omitempty" json:"env,omitempty"`
}

// IsZero reports whether no executable is set
func (c Command) IsZero() bool {
	return c.Path == ""
}

// String renders the command line for log output
func (c Command) String() string {
	if c.IsZero() {
		return ""
	}
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Dimension is one name/value pair qualifying a metric
type Dimension struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// ComponentSpec describes a worker process the watchdog keeps alive.
// Presence is decided by a substring match of Name against the shared
// process listing, so Name must be unique within the catalogue.
type ComponentSpec struct {
	Name           string  `yaml:"name" json:"name"`
	RestartCommand Command `yaml:"restart" json:"restart"`
	LogFile        string  `yaml:"log_file,omitempty" json:"log_file,omitempty"`
}

// ProbeResult is the outcome of a single probe invocation
type ProbeResult struct {
	Healthy   bool
	Output    string
	Err       error
	CheckedAt time.Time
	Duration  time.Duration
}

// ProcessState is the tracked state of a supervised component
type ProcessState string

const (
	ProcessStateUnknown  ProcessState = "unknown"
	ProcessStateStarting ProcessState = "starting"
	ProcessStateHealthy  ProcessState = "healthy"
	ProcessStateFailed   ProcessState = "failed"
)

// ComponentStatus is a point-in-time view of one supervised component
type ComponentStatus struct {
	Name           string
	State          ProcessState
	LastTransition time.Time
	Restarts       int
	LastError      string
}

// ClusterState is the state of the broker cluster restarter
type ClusterState string

const (
	ClusterStateUp         ClusterState = "up"
	ClusterStateRestarting ClusterState = "restarting"
)

// Cycle identifies one pass of the watchdog loop
type Cycle struct {
	Index     uint64
	ID        string
	StartedAt time.Time
}

// NewCycle creates the cycle record for iteration index
func NewCycle(index uint64, startedAt time.Time) Cycle {
	return Cycle{
		Index:     index,
		ID:        uuid.New().String(),
		StartedAt: startedAt,
	}
}
