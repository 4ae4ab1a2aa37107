package telemetry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects which telemetry signals are exported.
type Options struct {
	ServiceName       string
	CollectorEndpoint string
	Insecure          bool
	SamplingRatio     float64
	Tracing           bool
	Metrics           bool
	MetricsInterval   time.Duration
	Logs              bool
	Profiling         bool
	PyroscopeAddress  string
}

// Telemetry bundles the providers started by Setup.
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
}

// Setup starts every enabled provider. Disabled signals get no-op providers
// so callers never nil-check.
func Setup(ctx context.Context, opts Options, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{}
	var err error

	if t.Profiler, err = NewProfiler(ProfilerConfig{
		Enabled:         opts.Profiling,
		ServerAddress:   opts.PyroscopeAddress,
		ApplicationName: opts.ServiceName,
	}, logger); err != nil {
		return nil, err
	}

	if t.Tracer, err = NewTracerProvider(ctx, Config{
		Enabled:           opts.Tracing,
		CollectorEndpoint: opts.CollectorEndpoint,
		SamplingRatio:     opts.SamplingRatio,
		ServiceName:       opts.ServiceName,
		Insecure:          opts.Insecure,
	}, logger); err != nil {
		return nil, errors.Join(err, t.Profiler.Stop())
	}
	if t.Profiler.IsEnabled() {
		if err := t.Tracer.EnableSpanProfiles(); err != nil {
			logger.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	if t.Meter, err = NewMeterProvider(ctx, MetricsConfig{
		Enabled:           opts.Metrics,
		CollectorEndpoint: opts.CollectorEndpoint,
		ExportInterval:    opts.MetricsInterval,
		ServiceName:       opts.ServiceName,
		Insecure:          opts.Insecure,
	}, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	if t.Logs, err = NewLoggerProvider(ctx, LogsConfig{
		Enabled:           opts.Logs,
		CollectorEndpoint: opts.CollectorEndpoint,
		ServiceName:       opts.ServiceName,
		Insecure:          opts.Insecure,
	}, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	return t, nil
}

// BridgeLogger tees logger into the OTLP log pipeline when log export is on.
func (t *Telemetry) BridgeLogger(logger *zap.Logger, level zapcore.Level) *zap.Logger {
	if t.Logs == nil {
		return logger
	}
	return t.Logs.Bridge(logger, level)
}

// Shutdown flushes and stops every started provider, joining their errors.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	return errors.Join(errs...)
}
