package metrics_test

import (
	"testing"
	"time"

	"github.com/polyswarm/microengine-go/internal/metrics"
	"github.com/stretchr/testify/require"
)

func TestConfigureDisabled(t *testing.T) {
	t.Parallel()

	sink, err := metrics.Configure("", "engine", "linux", "local", "pod-1")
	require.NoError(t, err)
	require.IsType(t, metrics.Nop{}, sink)

	// a disabled sink swallows events
	sink.Increment("microengine.scan.success", []string{"type:file"})
	sink.Timing("microengine.scan.time", time.Second, []string{"type:file"})
}

func TestConfigureDogstatsd(t *testing.T) {
	t.Parallel()

	// the client buffers over UDP, no agent needs to listen
	sink, err := metrics.Configure("127.0.0.1:8125", "engine", "linux", "local", "pod-1")
	require.NoError(t, err)

	d, ok := sink.(metrics.Dogstatsd)
	require.True(t, ok)

	sink.Increment("microengine.scan.success", []string{"type:file"})
	sink.Timing("microengine.scan.time", time.Second, []string{"type:file"})
	require.NoError(t, d.Close())
}
