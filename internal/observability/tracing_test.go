package observability

import (
	"context"
	"errors"
	"testing"

	"sudonet/internal/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "sudonet-test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_Stdout(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "sudonet-test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1,
	})
	require.NoError(t, err)

	span, ctx := NewSpan(context.Background(), "test.span", attribute.String("k", "v"))
	assert.NotNil(t, ctx)
	span.SetError(errors.New("boom"))
	span.End()
	assert.Len(t, span.TraceID(), 32)

	assert.NoError(t, shutdown(context.Background()))
}

func TestTracingConfigFrom(t *testing.T) {
	tc := TracingConfigFrom(&config.Config{
		Env:                 "production",
		TracingEnabled:      true,
		TracingExporter:     " OTLP ",
		OTLPEndpoint:        "collector:4318",
		TracingSamplerRatio: 0.25,
	})
	assert.Equal(t, ServiceName, tc.ServiceName)
	assert.Equal(t, "otlp", tc.Exporter)
	assert.Equal(t, "collector:4318", tc.OTLPEndpoint)
	assert.Equal(t, 0.25, tc.SamplerRatio)
	assert.True(t, tc.Enabled)
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(TracingConfig{Enabled: true, Exporter: "jaeger"})
	assert.ErrorContains(t, err, `unknown tracing exporter "jaeger"`)
}

func TestMetrics_Increment(t *testing.T) {
	before := testutil.ToFloat64(StreetCredToggles.WithLabelValues("marked"))
	StreetCredToggles.WithLabelValues("marked").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StreetCredToggles.WithLabelValues("marked")))
}
