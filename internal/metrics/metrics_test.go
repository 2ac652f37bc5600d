package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEmitter(t *testing.T) {
	registry := prometheus.NewRegistry()
	emitter := InitMetricsAndEmitter(registry)
	ctx := context.Background()

	emitter.EmitSearchMetrics(ctx, "mean-wait", "current", 4, true, false)
	emitter.EmitSearchMetrics(ctx, "mean-wait", "current", 2, false, true)
	emitter.EmitSearchMetrics(ctx, "mean-wait", "max", 1, false, false)
	emitter.EmitErrorMetrics(ctx, "not_converged")
	emitter.EmitRequiredServers(ctx, "current", 42)

	assert.Equal(t, 2.0, testutil.ToFloat64(rowsSized.WithLabelValues("mean-wait", "current")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rowsSized.WithLabelValues("mean-wait", "max")))
	assert.Equal(t, 1.0, testutil.ToFloat64(stabilizationBumps.WithLabelValues("current")))
	assert.Equal(t, 1.0, testutil.ToFloat64(precisionWarnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(searchFailures.WithLabelValues("not_converged")))
	assert.Equal(t, 42.0, testutil.ToFloat64(requiredServers.WithLabelValues("current")))
	assert.Equal(t, 1, testutil.CollectAndCount(searchIterations))

	path := filepath.Join(t.TempDir(), "sizing.prom")
	require.NoError(t, WriteTextfile(path, registry))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "checkout_rows_sized_total"))
}
