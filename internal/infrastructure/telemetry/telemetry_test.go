package telemetry_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-connector/internal/infrastructure/telemetry"
)

func TestSetup_SinEndpoint_CierreNoOp(t *testing.T) {
	shutdown := telemetry.Setup(context.Background(), "pos-terminal", telemetry.Config{}, zerolog.Nop())

	assert.NoError(t, shutdown(context.Background()))
}
