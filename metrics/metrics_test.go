package metrics_test

import (
	"testing"
	"time"

	"github.com/lthibault/log"
	"github.com/stretchr/testify/assert"

	"terminus-realm/worldgen/metrics"
)

func TestMutedClient(t *testing.T) {
	t.Parallel()

	m := metrics.New("", log.New())
	assert.IsType(t, metrics.Client{}, m)

	chunk := m.WithPrefix("chunk")
	assert.NotPanics(t, func() {
		chunk.Incr("generated")
		chunk.Decr("cached")
		chunk.Gauge("cached", 3)
		chunk.Duration("generate", time.Millisecond)
		m.Flush()
	})
	m.Close()
}

func TestNop(t *testing.T) {
	t.Parallel()

	var m metrics.Metrics = metrics.Nop{}
	assert.Equal(t, metrics.Nop{}, m.WithPrefix("loot"))
	m.Incr("loot.create")
	m.Close()
}
