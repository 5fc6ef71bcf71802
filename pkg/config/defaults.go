package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cuemby/keepalive/pkg/types"
)

const (
	brokerContainer = "kafka-1"
	composeDir      = "/home/ec2-user/kafka-cluster"
	javaClasspath   = "/tmp:/usr/share/java/kafka/*:/usr/share/java/cp-base-new/*"
	componentLogDir = "/var/log/keepalive"
)

// worker is one Java producer/consumer of the reference deployment
type worker struct {
	class   string
	jmxPort int
	logName string
}

var referenceWorkers = []worker{
	{"KafkaProducer1", 9104, "producer1.log"},
	{"KafkaProducer2", 9105, "producer2.log"},
	{"KafkaConsumer1", 9106, "consumer1.log"},
	{"KafkaConsumer2", 9107, "consumer2.log"},
	{"HighThroughputProducer", 9108, "high-throughput.log"},
	{"ContinuousProducer", 9109, "continuous-producer.log"},
	{"ContinuousConsumer", 9110, "continuous-consumer.log"},
}

// Default returns the configuration of the reference deployment: a three
// broker docker-compose cluster on one EC2 host reporting to CloudWatch.
func Default() *Config {
	return &Config{
		InstanceID: "i-0a57073bf1538948b",
		Cluster: ClusterConfig{
			Probe: types.Command{
				Path: "docker",
				Args: []string{"exec", brokerContainer, "echo", "test"},
			},
			ProbeTimeout: 5 * time.Second,
			BringUp: types.Command{
				Path: "docker-compose",
				Args: []string{"-f", filepath.Join(composeDir, "docker-compose.yml"), "up", "-d"},
				Dir:  composeDir,
			},
			BringUpTimeout: 2 * time.Minute,
			SettleDelay:    30 * time.Second,
		},
		Supervisor: SupervisorConfig{
			Listing: types.Command{
				Path: "docker",
				Args: []string{"exec", brokerContainer, "ps", "aux"},
			},
			ListingTimeout: 10 * time.Second,
			Components:     defaultComponents(),
		},
		Telemetry: TelemetryConfig{
			Backend:         BackendCloudWatch,
			Region:          "us-west-2",
			Namespace:       "CWAgent",
			BatchLimit:      MaxBatchLimit,
			EmitterInterval: time.Minute,
			InfluxDB: InfluxDBConfig{
				URL:    "http://localhost:8086",
				Org:    "kafka",
				Bucket: "dashboard",
			},
		},
		Alert: AlertConfig{
			Notifier:     NotifierSNS,
			Topic:        "arn:aws:sns:us-west-2:782045727575:kafka-metrics-alerts",
			Subject:      "Kafka Metrics Alert",
			DashboardURL: "https://us-west-2.console.aws.amazon.com/cloudwatch/home?region=us-west-2#dashboards:name=ApacheKafkaOnEc2-Real",
			CanaryMetric: "kafka.producer.request-rate",
			CanaryDimensions: []types.Dimension{
				{Name: "InstanceId", Value: "i-0a57073bf1538948b"},
				{Name: "ProducerGroupName", Value: "KafkaProducer"},
				{Name: "client-id", Value: "dashboard-java-producer"},
			},
			Window:    30 * time.Minute,
			Period:    5 * time.Minute,
			Statistic: "Average",
			Ntfy: NtfyConfig{
				ServerURL: "https://ntfy.sh",
			},
		},
		Verifier: VerifierConfig{
			Command: types.Command{Path: "/home/ec2-user/verify-all-widgets.sh"},
			Timeout: 2 * time.Minute,
		},
		Loop: LoopConfig{
			StepDelay: 5 * time.Second,
			Interval:  5 * time.Minute,
		},
		Storage: StorageConfig{
			DataDir:   "/var/lib/keepalive",
			MaxEvents: 10000,
		},
		MetricsAddr: "127.0.0.1:9464",
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultComponents() []types.ComponentSpec {
	specs := make([]types.ComponentSpec, 0, len(referenceWorkers))
	for _, w := range referenceWorkers {
		specs = append(specs, types.ComponentSpec{
			Name:           w.class,
			RestartCommand: javaWorkerCommand(w),
			LogFile:        filepath.Join(componentLogDir, w.class+".log"),
		})
	}
	return specs
}

// javaWorkerCommand relaunches a worker inside the broker container with JMX
// enabled. The in-container output goes to the worker's own log under /tmp.
func javaWorkerCommand(w worker) types.Command {
	jmx := fmt.Sprintf("-Dcom.sun.management.jmxremote -Dcom.sun.management.jmxremote.port=%d "+
		"-Dcom.sun.management.jmxremote.authenticate=false -Dcom.sun.management.jmxremote.ssl=false", w.jmxPort)
	script := fmt.Sprintf(`KAFKA_JMX_OPTS="%s" java -cp %s %s > /tmp/%s 2>&1`, jmx, javaClasspath, w.class, w.logName)

	return types.Command{
		Path: "docker",
		Args: []string{"exec", "-d", brokerContainer, "bash", "-c", script},
	}
}
