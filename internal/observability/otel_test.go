package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/go-quotes-api/internal/config"
)

// keepOTelGlobals restores the global provider and propagator after t.
func keepOTelGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func enabledConfig(service string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: service,
		SampleRatio: 1.0,
	}
}

func TestSetupOTel_Disabled(t *testing.T) {
	keepOTelGlobals(t)
	before := otel.GetTracerProvider()

	cfg := enabledConfig("go-quotes-api")
	cfg.Enabled = false
	shutdown, err := SetupOTel(context.Background(), cfg, "v0.0.0")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupOTel_Enabled(t *testing.T) {
	cases := []struct {
		name     string
		insecure bool
		ctx      func() context.Context
	}{
		{name: "insecure", insecure: true, ctx: context.Background},
		{name: "tls", insecure: false, ctx: context.Background},
		{name: "canceled context", insecure: true, ctx: func() context.Context {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keepOTelGlobals(t)

			cfg := enabledConfig("quotes-" + strings.ReplaceAll(tc.name, " ", "-"))
			cfg.Insecure = tc.insecure
			shutdown, err := SetupOTel(tc.ctx(), cfg, "v1.2.3")
			require.NoError(t, err)
			t.Cleanup(func() { _ = shutdown(context.Background()) })

			_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
			assert.True(t, ok, "expected the SDK tracer provider to be installed")

			ctx, span := otel.Tracer("quotes").Start(context.Background(), "QuoteService.Get")
			carrier := propagation.MapCarrier{}
			otel.GetTextMapPropagator().Inject(ctx, carrier)
			span.End()
			assert.NotEmpty(t, carrier.Get("traceparent"))
		})
	}
}

func TestSetupOTel_SeamErrorsLeaveGlobals(t *testing.T) {
	cases := []struct {
		name  string
		patch func() (restore func())
	}{
		{
			name: "exporter",
			patch: func() func() {
				orig := newOTLPExporterFn
				newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
					return nil, errors.New("exporter down")
				}
				return func() { newOTLPExporterFn = orig }
			},
		},
		{
			name: "resource",
			patch: func() func() {
				orig := newServiceResourceFn
				newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) {
					return nil, errors.New("bad resource")
				}
				return func() { newServiceResourceFn = orig }
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keepOTelGlobals(t)
			t.Cleanup(tc.patch())

			tp := otel.GetTracerProvider()
			prop := otel.GetTextMapPropagator()

			_, err := SetupOTel(context.Background(), enabledConfig("go-quotes-api"), "v0")
			require.Error(t, err)
			assert.Equal(t, tp, otel.GetTracerProvider())
			assert.Equal(t, prop, otel.GetTextMapPropagator())
		})
	}
}

func TestSetupOTel_ResourceCarriesServiceAndVersion(t *testing.T) {
	keepOTelGlobals(t)

	orig := newServiceResourceFn
	t.Cleanup(func() { newServiceResourceFn = orig })

	var gotService, gotVersion string
	newServiceResourceFn = func(ctx context.Context, service, version string) (*resource.Resource, error) {
		gotService, gotVersion = service, version
		return orig(ctx, service, version)
	}

	shutdown, err := SetupOTel(context.Background(), enabledConfig("go-quotes-api"), "v2.0.1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	assert.Equal(t, "go-quotes-api", gotService)
	assert.Equal(t, "v2.0.1", gotVersion)
}

func TestSetupOTel_ShutdownWithinDeadline(t *testing.T) {
	keepOTelGlobals(t)

	shutdown, err := SetupOTel(context.Background(), enabledConfig("go-quotes-api"), "v1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestSampler(t *testing.T) {
	cases := map[float64]string{
		1:   "AlwaysOnSampler",
		2:   "AlwaysOnSampler",
		0:   "AlwaysOffSampler",
		-1:  "AlwaysOffSampler",
		0.5: "TraceIDRatioBased{0.5}",
	}
	for ratio, root := range cases {
		assert.True(t, strings.HasPrefix(sampler(ratio).Description(), "ParentBased{root:"+root),
			"sampler(%v) = %q", ratio, sampler(ratio).Description())
	}
}
