package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Level = slog.Level

const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
	LevelFatal   = slog.Level(12)
)

var (
	Logger          = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: programLevel}))
	errorSampleRate atomic.Int32
	programLevel    = new(slog.LevelVar)
	shutdownFunc    func(context.Context) error
)

// Counters are incremented regardless of sampling and served by the metrics endpoint
var (
	TotalErrors     atomic.Int64
	TotalWarnings   atomic.Int64
	Total5xxErrors  atomic.Int64
	Total4xxErrors  atomic.Int64
	Total400Errors  atomic.Int64
	Total404Errors  atomic.Int64
	Total409Errors  atomic.Int64
	DegradedFetches atomic.Int64
)

func init() {
	errorSampleRate.Store(1)
}

// Options selects the handler. OTEL wins over Dev when both are set.
type Options struct {
	Dev         bool
	Level       slog.Level
	ServiceName string
	// SampleRate logs 1 of every N warnings and errors; <= 1 logs all
	SampleRate int
	OTEL       bool
	Output     io.Writer
}

// OptionsFromEnv reads OTEL_ENABLED, OTEL_SERVICE_NAME and ERROR_SAMPLE_RATE
func OptionsFromEnv(dev bool, level slog.Level) Options {
	opts := Options{
		Dev:         dev,
		Level:       level,
		ServiceName: os.Getenv("OTEL_SERVICE_NAME"),
		OTEL:        strings.EqualFold(os.Getenv("OTEL_ENABLED"), "true"),
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "agrisense"
	}
	if s := os.Getenv("ERROR_SAMPLE_RATE"); s != "" {
		fmt.Sscanf(s, "%d", &opts.SampleRate)
	}
	return opts
}

// Setup installs the process logger and returns it. Tint is used in dev,
// JSON in prod, and the OTLP bridge when OTEL is enabled.
func Setup(opts Options) *slog.Logger {
	programLevel.Set(opts.Level)
	if opts.SampleRate > 0 {
		errorSampleRate.Store(int32(opts.SampleRate))
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler
	switch {
	case opts.OTEL:
		h, shutdown, err := otelHandler(context.Background(), opts.ServiceName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to setup OTEL logging, falling back to JSON: %v\n", err)
			handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: programLevel})
		} else {
			shutdownFunc = shutdown
			handler = h
		}
	case opts.Dev:
		handler = tint.NewHandler(out, &tint.Options{
			AddSource:  true,
			Level:      programLevel,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: programLevel})
	}

	Logger = slog.New(handler).With("app", opts.ServiceName)
	slog.SetDefault(Logger)
	return Logger
}

func otelHandler(ctx context.Context, serviceName string) (slog.Handler, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)

	h := &levelHandler{
		level:   programLevel,
		handler: otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(loggerProvider)),
	}
	return h, loggerProvider.Shutdown, nil
}

// levelHandler filters by level; the OTEL bridge does not
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}

// Shutdown flushes the OTEL exporter, if any
func Shutdown(ctx context.Context) error {
	if shutdownFunc != nil {
		return shutdownFunc(ctx)
	}
	return nil
}

func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

func GetLevel() slog.Level {
	return programLevel.Level()
}

// ParseLevel converts a level name, including TRACE and FATAL, to slog.Level
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s (defaulting to INFO)", levelStr)
	}
}

func shouldSample() bool {
	rate := errorSampleRate.Load()
	if rate <= 1 {
		return true
	}
	return rand.Intn(int(rate)) == 0
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn counts every call but only logs a sample
func Warn(msg string, args ...any) {
	TotalWarnings.Add(1)
	if shouldSample() {
		Logger.Warn(msg, args...)
	}
}

// Error counts every call but only logs a sample
func Error(msg string, args ...any) {
	TotalErrors.Add(1)
	if shouldSample() {
		Logger.Error(msg, args...)
	}
}

// Fatal logs and exits
func Fatal(msg string, args ...any) {
	Logger.Log(context.Background(), LevelFatal, msg, args...)
	if shutdownFunc != nil {
		_ = shutdownFunc(context.Background())
	}
	os.Exit(1)
}

// ErrorHttp5xx counts a server error response
func ErrorHttp5xx() {
	Total5xxErrors.Add(1)
	TotalErrors.Add(1)
}

// WarnHttp4xx counts a client error response
func WarnHttp4xx(status int) {
	Total4xxErrors.Add(1)
	TotalWarnings.Add(1)

	switch status {
	case 400:
		Total400Errors.Add(1)
	case 404:
		Total404Errors.Add(1)
	case 409:
		Total409Errors.Add(1)
	}
}

// WarnDegradedFetch counts a weather fetch that fell back to static data
func WarnDegradedFetch() {
	DegradedFetches.Add(1)
	TotalWarnings.Add(1)
}

// Snapshot returns the current counter values
func Snapshot() map[string]int64 {
	return map[string]int64{
		"errors":          TotalErrors.Load(),
		"warnings":        TotalWarnings.Load(),
		"http5xx":         Total5xxErrors.Load(),
		"http4xx":         Total4xxErrors.Load(),
		"http400":         Total400Errors.Load(),
		"http404":         Total404Errors.Load(),
		"http409":         Total409Errors.Load(),
		"degradedFetches": DegradedFetches.Load(),
	}
}
