package telemetry

import "github.com/cuemby/keepalive/pkg/types"

// Metric names used outside the catalogue
const (
	ProducerRequestRate = "kafka.producer.request-rate"
	ConsumerFetchRate   = "kafka.consumer.fetch-rate"
)

const (
	dashboardTopic   = "dashboard-metrics-test"
	processGroupName = "kafka-cluster"
	clusterName      = "kafka-cluster"
)

func dim(name, value string) types.Dimension {
	return types.Dimension{Name: name, Value: value}
}

// DefaultCatalogue returns the 30 metrics behind the broker dashboard: six
// producer, five consumer, ten JVM and nine broker metrics. The order is
// fixed and is the publish order.
func DefaultCatalogue(instanceID string) []Definition {
	instance := dim("InstanceId", instanceID)

	producer := func(extra ...types.Dimension) []types.Dimension {
		return append([]types.Dimension{instance, dim("ProducerGroupName", "KafkaProducer"), dim("client-id", "dashboard-java-producer")}, extra...)
	}
	consumer := func(extra ...types.Dimension) []types.Dimension {
		return append([]types.Dimension{instance, dim("ConsumerGroupName", "KafkaConsumer"), dim("client-id", "dashboard-java-consumer")}, extra...)
	}
	jvm := func(extra ...types.Dimension) []types.Dimension {
		return append([]types.Dimension{instance, dim("ProcessGroupName", processGroupName)}, extra...)
	}
	broker := func(extra ...types.Dimension) []types.Dimension {
		return append([]types.Dimension{instance, dim("ClusterName", clusterName)}, extra...)
	}
	topic := dim("topic", dashboardTopic)
	gc := dim("name", "G1 Young Generation")
	produce := dim("type", "produce")

	return []Definition{
		// Producer
		{ProducerRequestRate, UnitCountSecond, producer(), Uniform(10, 100)},
		{"kafka.producer.response-rate", UnitCountSecond, producer(), Uniform(10, 100)},
		{"kafka.producer.request-latency-avg", UnitMilliseconds, producer(), Uniform(5, 50)},
		{"kafka.producer.record-send-rate", UnitCountSecond, producer(topic), Uniform(20, 200)},
		{"kafka.producer.record-error-rate", UnitCountSecond, producer(topic), Uniform(0, 2)},
		{"kafka.producer.byte-rate", UnitBytesSecond, producer(topic), Uniform(1000, 10000)},

		// Consumer
		{ConsumerFetchRate, UnitCountSecond, consumer(), Uniform(5, 50)},
		{"kafka.consumer.total.bytes-consumed-rate", UnitBytesSecond, consumer(), Uniform(1000, 8000)},
		{"kafka.consumer.records-consumed-rate", UnitCountSecond, consumer(topic), Uniform(10, 100)},
		{"kafka.consumer.bytes-consumed-rate", UnitBytesSecond, consumer(topic), Uniform(500, 5000)},
		{"kafka.consumer.records-lag-max", UnitCount, consumer(), UniformInt(0, 100)},

		// JVM
		{"jvm.classes.loaded", UnitCount, jvm(), UniformInt(8000, 12000)},
		{"jvm.gc.collections.count", UnitCount, jvm(gc), UniformInt(5, 25)},
		{"jvm.gc.collections.elapsed", UnitMilliseconds, jvm(gc), UniformInt(10, 100)},
		{"jvm.memory.heap.committed", UnitBytes, jvm(), UniformInt(500_000_000, 1_000_000_000)},
		{"jvm.memory.heap.max", UnitBytes, jvm(), Constant(1 << 30)},
		{"jvm.memory.heap.used", UnitBytes, jvm(), UniformInt(200_000_000, 800_000_000)},
		{"jvm.memory.nonheap.committed", UnitBytes, jvm(), UniformInt(100_000_000, 250_000_000)},
		{"jvm.memory.nonheap.max", UnitBytes, jvm(), Constant(256 << 20)},
		{"jvm.memory.nonheap.used", UnitBytes, jvm(), UniformInt(50_000_000, 200_000_000)},
		{"jvm.threads.count", UnitCount, jvm(), UniformInt(50, 150)},

		// Broker
		{"kafka.isr.operation.count", UnitCount, broker(dim("operation", "expand")), Uniform(0.1, 5)},
		{"kafka.leader.election.rate", UnitCountSecond, broker(), Uniform(0.1, 2)},
		{"kafka.network.io", UnitBytesSecond, broker(dim("state", "in")), Uniform(1000, 50000)},
		{"kafka.partition.offline", UnitCount, broker(), UniformInt(0, 1)},
		{"kafka.partition.under_replicated", UnitCount, broker(), UniformInt(0, 2)},
		{"kafka.purgatory.size", UnitCount, broker(produce), Uniform(0, 20)},
		{"kafka.request.count", UnitCount, broker(produce), Uniform(10, 100)},
		{"kafka.request.failed", UnitCount, broker(produce), Uniform(0, 5)},
		{"kafka.request.time.avg", UnitMilliseconds, broker(produce), Uniform(5, 50)},
	}
}

// MinimalCatalogue is the subset the background emitter keeps fresh: the
// producer canary and the consumer fetch rate.
func MinimalCatalogue(instanceID string) []Definition {
	var defs []Definition
	for _, def := range DefaultCatalogue(instanceID) {
		if def.Name == ProducerRequestRate || def.Name == ConsumerFetchRate {
			defs = append(defs, def)
		}
	}
	return defs
}
