package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{Enabled: true, Output: &buf, Version: "test"})
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "Engine.Attack")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"Engine.Attack"`)
	assert.Contains(t, out, ServiceName)
}

//nolint:staticcheck // a nil context is the case under test
func TestSetup_NilContext(t *testing.T) {
	shutdown, err := Setup(nil, Config{Enabled: true})
	assert.Error(t, err)
	assert.NotNil(t, shutdown)
}
