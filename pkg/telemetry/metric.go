package telemetry

import (
	"time"

	"github.com/cuemby/keepalive/pkg/config"
	"github.com/cuemby/keepalive/pkg/types"
)

// Unit is the unit tag attached to a published metric
type Unit string

const (
	UnitCount        Unit = "Count"
	UnitCountSecond  Unit = "Count/Second"
	UnitBytes        Unit = "Bytes"
	UnitBytesSecond  Unit = "Bytes/Second"
	UnitMilliseconds Unit = "Milliseconds"
)

// GeneratorKind selects how a Generator produces values
type GeneratorKind string

const (
	GeneratorUniform    GeneratorKind = "uniform"
	GeneratorUniformInt GeneratorKind = "uniform_int"
	GeneratorConstant   GeneratorKind = "constant"
)

// Generator describes the range a synthetic value is drawn from
type Generator struct {
	Kind GeneratorKind
	Min  float64
	Max  float64
}

// Uniform draws a float from [min, max)
func Uniform(min, max float64) Generator {
	return Generator{Kind: GeneratorUniform, Min: min, Max: max}
}

// UniformInt draws an integer from [min, max], both inclusive
func UniformInt(min, max int64) Generator {
	return Generator{Kind: GeneratorUniformInt, Min: float64(min), Max: float64(max)}
}

// Constant always yields v
func Constant(v float64) Generator {
	return Generator{Kind: GeneratorConstant, Min: v, Max: v}
}

// Contains reports whether v is a value the generator can produce
func (g Generator) Contains(v float64) bool {
	switch g.Kind {
	case GeneratorConstant:
		return v == g.Min
	case GeneratorUniformInt:
		return v >= g.Min && v <= g.Max && v == float64(int64(v))
	default:
		return v >= g.Min && v <= g.Max
	}
}

// Definition is one static catalogue entry
type Definition struct {
	Name       string
	Unit       Unit
	Dimensions []types.Dimension
	Generator  Generator
}

// MetricDescriptor is one data point ready to publish
type MetricDescriptor struct {
	Name       string
	Value      float64
	Unit       Unit
	Dimensions []types.Dimension
	Timestamp  time.Time
}

// DataPoint is one aggregated value returned by a query
type DataPoint struct {
	Timestamp time.Time
	Value     float64
}

// Query selects one metric series over a time range
type Query struct {
	Namespace  string
	Name       string
	Dimensions []types.Dimension
	Start      time.Time
	End        time.Time
	Period     time.Duration
	Statistic  string
}

// Build produces one descriptor per definition, in catalogue order, all
// stamped with ts
func Build(defs []Definition, source MetricSource, ts time.Time) []MetricDescriptor {
	descs := make([]MetricDescriptor, 0, len(defs))
	for _, def := range defs {
		descs = append(descs, MetricDescriptor{
			Name:       def.Name,
			Value:      source.Value(def),
			Unit:       def.Unit,
			Dimensions: def.Dimensions,
			Timestamp:  ts,
		})
	}
	return descs
}

// Split cuts descs into consecutive batches of at most limit entries.
// Concatenating the batches yields descs unchanged. A non-positive limit
// uses config.MaxBatchLimit.
func Split(descs []MetricDescriptor, limit int) [][]MetricDescriptor {
	if limit <= 0 {
		limit = config.MaxBatchLimit
	}

	batches := make([][]MetricDescriptor, 0, (len(descs)+limit-1)/limit)
	for start := 0; start < len(descs); start += limit {
		end := min(start+limit, len(descs))
		batches = append(batches, descs[start:end])
	}
	return batches
}
