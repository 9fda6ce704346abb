// Package metrics reports generator and game timings to statsd.
package metrics

import (
	"time"

	"github.com/lthibault/log"
	"gopkg.in/alexcesaro/statsd.v2"
)

// Metrics is the subset of a statsd client the services use
type Metrics interface {
	Incr(bucket string)
	Decr(bucket string)
	Gauge(bucket string, value interface{})
	Duration(bucket string, d time.Duration)
	WithPrefix(prefix string) Metrics
	Flush()
	Close()
}

// Client wraps a statsd client
type Client struct{ *statsd.Client }

// New statsd client sending to addr. An empty addr mutes the client.
// Setup failures are logged and yield a no-op implementation.
func New(addr string, logger log.Logger) Metrics {
	c, err := statsd.New(
		statsd.Address(address(addr)),
		statsd.Mute(addr == ""),
		statsd.ErrorHandler(func(err error) {
			logger.WithError(err).
				WithField("statsd", addr).
				Warn("failed to send metrics")
		}),
		statsd.Prefix("worldgen"),
		statsd.FlushPeriod(time.Millisecond*250))
	if err != nil {
		logger.WithError(err).
			Warn("setup failed for statsd metrics")
		return Nop{}
	}

	return Client{c}
}

func address(addr string) string {
	if addr == "" {
		return ":8125"
	}
	return addr
}

func (m Client) Incr(bucket string) {
	m.Client.Count(bucket, 1)
}

func (m Client) Decr(bucket string) {
	m.Client.Count(bucket, -1)
}

func (m Client) Duration(bucket string, d time.Duration) {
	m.Client.Timing(bucket, d.Milliseconds())
}

func (m Client) WithPrefix(prefix string) Metrics {
	return Client{
		Client: m.Client.Clone(statsd.Prefix(prefix)),
	}
}

// Nop discards every metric
type Nop struct{}

func (Nop) Incr(string)                    {}
func (Nop) Decr(string)                    {}
func (Nop) Gauge(string, interface{})      {}
func (Nop) Duration(string, time.Duration) {}
func (Nop) WithPrefix(string) Metrics      { return Nop{} }
func (Nop) Flush()                         {}
func (Nop) Close()                         {}
