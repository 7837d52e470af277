// Package metrics is the boundary to the DogStatsD agent. The scan path only
// ever talks to the Sink interface, transport trouble is buffered or dropped
// by the client and never surfaces into a scan.
package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Sink is the minimal counter/timer surface the instrumentation reports
// into. Tag strings use the canonical "name:value" form.
type Sink interface {
	Increment(name string, tags []string)
	Timing(name string, elapsed time.Duration, tags []string)
}

// Nop drops every event. Used when no agent is configured and in tests.
type Nop struct{}

func (Nop) Increment(string, []string)             {}
func (Nop) Timing(string, time.Duration, []string) {}

// Dogstatsd adapts the datadog-go client to Sink. Client errors are
// intentionally discarded, see package comment.
type Dogstatsd struct {
	c *statsd.Client
}

func (d Dogstatsd) Increment(name string, tags []string) {
	_ = d.c.Incr(name, tags, 1)
}

func (d Dogstatsd) Timing(name string, elapsed time.Duration, tags []string) {
	_ = d.c.Timing(name, elapsed, tags, 1)
}

func (d Dogstatsd) Close() error {
	return d.c.Close()
}

// Configure dials the DogStatsD agent and attaches the constant tags every
// event is reported with. An empty addr disables reporting and yields Nop.
func Configure(addr, engineName, osType, polyWork, source string) (Sink, error) {
	if addr == "" {
		return Nop{}, nil
	}

	tags := []string{
		"poly_work:" + polyWork,
		"engine_name:" + engineName,
		"pod_name:" + source,
		"os:" + osType,
	}
	if polyWork == "local" {
		tags = append(tags, "testing")
	}

	c, err := statsd.New(addr,
		statsd.WithNamespace("polyswarm."),
		statsd.WithTags(tags),
	)
	if err != nil {
		return nil, fmt.Errorf("dialing statsd agent %s: %w", addr, err)
	}
	return Dogstatsd{c: c}, nil
}
