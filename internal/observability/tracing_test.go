package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewSpanWithoutProvider(t *testing.T) {
	span, ctx := NewSpan(context.Background(), "aggregate.recompute", attribute.Int("movie.id", 1))
	require.NotNil(t, ctx)
	span.AddAttributes(attribute.String("result", "ok"))
	span.SetError(errors.New("boom"))
	span.SetError(nil)
	span.End()
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", ResultLabel(nil))
	assert.Equal(t, "error", ResultLabel(errors.New("x")))
}

func TestTrackQueryObserves(t *testing.T) {
	before := testutil.CollectAndCount(DatabaseQueryLatency)
	done := TrackQuery("select", "tracking_test_table")
	done()
	assert.Equal(t, before+1, testutil.CollectAndCount(DatabaseQueryLatency))
}
