package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cuemby/keepalive/pkg/types"
	"gopkg.in/yaml.v3"
)

// Telemetry backends
const (
	BackendCloudWatch = "cloudwatch"
	BackendInfluxDB   = "influxdb"
)

// Notifiers
const (
	NotifierSNS  = "sns"
	NotifierNtfy = "ntfy"
)

// MaxBatchLimit is the most data points CloudWatch accepts per PutMetricData call
const MaxBatchLimit = 20

// Config is the complete watchdog configuration
type Config struct {
	InstanceID  string           `yaml:"instance_id"`
	Cluster     ClusterConfig    `yaml:"cluster"`
	Supervisor  SupervisorConfig `yaml:"supervisor"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Alert       AlertConfig      `yaml:"alert"`
	Verifier    VerifierConfig   `yaml:"verifier"`
	Loop        LoopConfig       `yaml:"loop"`
	Storage     StorageConfig    `yaml:"storage"`
	MetricsAddr string           `yaml:"metrics_addr"`
	Log         LogConfig        `yaml:"log"`
}

// ClusterConfig drives the broker cluster restarter
type ClusterConfig struct {
	Probe          types.Command `yaml:"probe"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	BringUp        types.Command `yaml:"bring_up"`
	BringUpTimeout time.Duration `yaml:"bring_up_timeout"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
}

// SupervisorConfig drives the component supervisor
type SupervisorConfig struct {
	Listing        types.Command         `yaml:"listing"`
	ListingTimeout time.Duration         `yaml:"listing_timeout"`
	Components     []types.ComponentSpec `yaml:"components"`
}

// TelemetryConfig drives metric publishing
type TelemetryConfig struct {
	Backend         string         `yaml:"backend"`
	Region          string         `yaml:"region"`
	Namespace       string         `yaml:"namespace"`
	BatchLimit      int            `yaml:"batch_limit"`
	EmitterInterval time.Duration  `yaml:"emitter_interval"`
	InfluxDB        InfluxDBConfig `yaml:"influxdb"`
}

// InfluxDBConfig is used when Backend is influxdb
type InfluxDBConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// AlertConfig drives the gap detector
type AlertConfig struct {
	Notifier         string            `yaml:"notifier"`
	Topic            string            `yaml:"topic"`
	Subject          string            `yaml:"subject"`
	DashboardURL     string            `yaml:"dashboard_url"`
	CanaryMetric     string            `yaml:"canary_metric"`
	CanaryDimensions []types.Dimension `yaml:"canary_dimensions"`
	Window           time.Duration     `yaml:"window"`
	Period           time.Duration     `yaml:"period"`
	Statistic        string            `yaml:"statistic"`
	DedupWindow      time.Duration     `yaml:"dedup_window"`
	AlertOnQueryErr  bool              `yaml:"alert_on_query_error"`
	Ntfy             NtfyConfig        `yaml:"ntfy"`
}

// NtfyConfig is used when Notifier is ntfy
type NtfyConfig struct {
	ServerURL string `yaml:"server_url"`
	Token     string `yaml:"token"`
}

// VerifierConfig drives the widget verifier
type VerifierConfig struct {
	Command types.Command `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoopConfig holds the loop pacing
type LoopConfig struct {
	StepDelay time.Duration `yaml:"step_delay"`
	Interval  time.Duration `yaml:"interval"`
}

// StorageConfig holds history storage settings
type StorageConfig struct {
	DataDir   string `yaml:"data_dir"`
	MaxEvents int    `yaml:"max_events"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load reads a YAML file and overlays it on Default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse overlays YAML data on Default and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the configuration for values the watchdog cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.InstanceID == "" {
		errs = append(errs, errors.New("instance_id is required"))
	}
	if c.Cluster.Probe.IsZero() {
		errs = append(errs, errors.New("cluster.probe.path is required"))
	}
	if c.Cluster.BringUp.IsZero() {
		errs = append(errs, errors.New("cluster.bring_up.path is required"))
	}
	if c.Supervisor.Listing.IsZero() {
		errs = append(errs, errors.New("supervisor.listing.path is required"))
	}

	seen := make(map[string]bool)
	for i, comp := range c.Supervisor.Components {
		switch {
		case comp.Name == "":
			errs = append(errs, fmt.Errorf("supervisor.components[%d].name is required", i))
		case seen[comp.Name]:
			errs = append(errs, fmt.Errorf("supervisor.components[%d]: duplicate name %q", i, comp.Name))
		}
		seen[comp.Name] = true
		if comp.RestartCommand.IsZero() {
			errs = append(errs, fmt.Errorf("supervisor.components[%d].restart.path is required", i))
		}
	}

	for name, d := range map[string]time.Duration{
		"cluster.probe_timeout":      c.Cluster.ProbeTimeout,
		"cluster.bring_up_timeout":   c.Cluster.BringUpTimeout,
		"supervisor.listing_timeout": c.Supervisor.ListingTimeout,
		"verifier.timeout":           c.Verifier.Timeout,
		"alert.window":               c.Alert.Window,
		"alert.period":               c.Alert.Period,
		"loop.interval":              c.Loop.Interval,
		"telemetry.emitter_interval": c.Telemetry.EmitterInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	for name, d := range map[string]time.Duration{
		"cluster.settle_delay": c.Cluster.SettleDelay,
		"loop.step_delay":      c.Loop.StepDelay,
		"alert.dedup_window":   c.Alert.DedupWindow,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}

	if c.Telemetry.BatchLimit < 1 || c.Telemetry.BatchLimit > MaxBatchLimit {
		errs = append(errs, fmt.Errorf("telemetry.batch_limit must be between 1 and %d", MaxBatchLimit))
	}
	if c.Telemetry.Namespace == "" {
		errs = append(errs, errors.New("telemetry.namespace is required"))
	}
	switch c.Telemetry.Backend {
	case BackendCloudWatch:
		if c.Telemetry.Region == "" {
			errs = append(errs, errors.New("telemetry.region is required for cloudwatch"))
		}
	case BackendInfluxDB:
		if c.Telemetry.InfluxDB.URL == "" || c.Telemetry.InfluxDB.Bucket == "" {
			errs = append(errs, errors.New("telemetry.influxdb.url and bucket are required for influxdb"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown telemetry.backend %q", c.Telemetry.Backend))
	}

	switch c.Alert.Notifier {
	case NotifierSNS, NotifierNtfy:
	default:
		errs = append(errs, fmt.Errorf("unknown alert.notifier %q", c.Alert.Notifier))
	}
	if c.Alert.Topic == "" {
		errs = append(errs, errors.New("alert.topic is required"))
	}
	if c.Alert.CanaryMetric == "" {
		errs = append(errs, errors.New("alert.canary_metric is required"))
	}

	return errors.Join(errs...)
}
