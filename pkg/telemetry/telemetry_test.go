package telemetry

import (
	"testing"

	"github.com/siel/acumulus-sync/internal/config"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestModuleRegistersTracerProvider(t *testing.T) {
	// No OTLP endpoint: spans stay local, nothing dials out.
	app := fxtest.New(t,
		fx.Supply(config.Config{AppName: "acusync", AppVersion: "test"}),
		fx.Supply(zap.NewNop()),
		Module,
	)
	app.RequireStart()
	defer app.RequireStop()

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "the sdk provider must replace the no-op global")
}
