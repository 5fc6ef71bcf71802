package telemetry

import (
	"strings"
	"testing"

	"github.com/cuemby/keepalive/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogueShape(t *testing.T) {
	defs := DefaultCatalogue("i-0a57073bf1538948b")
	require.Len(t, defs, 30)

	groups := map[string]int{}
	for _, def := range defs {
		switch {
		case strings.HasPrefix(def.Name, "kafka.producer."):
			groups["producer"]++
		case strings.HasPrefix(def.Name, "kafka.consumer."):
			groups["consumer"]++
		case strings.HasPrefix(def.Name, "jvm."):
			groups["jvm"]++
		default:
			groups["broker"]++
		}
	}
	assert.Equal(t, map[string]int{"producer": 6, "consumer": 5, "jvm": 10, "broker": 9}, groups)
}

func TestDefaultCatalogueEntries(t *testing.T) {
	valid := map[Unit]bool{UnitCount: true, UnitCountSecond: true, UnitBytes: true, UnitBytesSecond: true, UnitMilliseconds: true}

	seen := map[string]bool{}
	for _, def := range DefaultCatalogue("i-test") {
		assert.True(t, valid[def.Unit], "%s has unit %q", def.Name, def.Unit)
		require.NotEmpty(t, def.Dimensions, def.Name)
		assert.Equal(t, "InstanceId", def.Dimensions[0].Name)
		assert.Equal(t, "i-test", def.Dimensions[0].Value)
		assert.LessOrEqual(t, def.Generator.Min, def.Generator.Max)

		assert.False(t, seen[def.Name], "duplicate metric %s", def.Name)
		seen[def.Name] = true
	}
}

func TestDefaultCatalogueIsFreshEachCall(t *testing.T) {
	a := DefaultCatalogue("i-test")
	a[0].Dimensions[0].Value = "mutated"

	b := DefaultCatalogue("i-test")
	assert.Equal(t, "i-test", b[0].Dimensions[0].Value)
}

func TestCanaryMatchesCatalogue(t *testing.T) {
	cfg := config.Default()

	var canary *Definition
	for _, def := range DefaultCatalogue(cfg.InstanceID) {
		if def.Name == cfg.Alert.CanaryMetric {
			canary = &def
			break
		}
	}
	require.NotNil(t, canary)
	assert.Equal(t, cfg.Alert.CanaryDimensions, canary.Dimensions)
}

func TestMinimalCatalogue(t *testing.T) {
	defs := MinimalCatalogue("i-test")
	require.Len(t, defs, 2)
	assert.Equal(t, ProducerRequestRate, defs[0].Name)
	assert.Equal(t, ConsumerFetchRate, defs[1].Name)
}
