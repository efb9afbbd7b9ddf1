package bulk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTransactionSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	c := newTestConnector(&recordingTransport{})
	a := c.Enqueue(Get([]string{"a"}, ""))
	b := c.Enqueue(Get([]string{"b"}, ""))
	_, err := a.Wait(context.Background())
	require.NoError(t, err)
	_, err = b.Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	var found bool
	for _, span := range recorder.Ended() {
		if span.Name() != "bulk.transaction" {
			continue
		}
		found = true
		attrs := attribute.NewSet(span.Attributes()...)
		parts, ok := attrs.Value("bulk.parts")
		require.True(t, ok)
		assert.EqualValues(t, 2, parts.AsInt64())
		failed, ok := attrs.Value("bulk.failed_parts")
		require.True(t, ok)
		assert.EqualValues(t, 0, failed.AsInt64())
	}
	assert.True(t, found)
}
