package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{" info ", LevelInfo, false},
		{"warn", LevelWarning, false},
		{"Warning", LevelWarning, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(Options{Level: LevelInfo, ServiceName: "agrisense-test", Output: &buf})
	t.Cleanup(func() { SetLevel(LevelInfo) })

	l.Debug("hidden")
	l.Info("forecast fetched", "district", "Kaski")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "forecast fetched", rec["msg"])
	assert.Equal(t, "Kaski", rec["district"])
	assert.Equal(t, "agrisense-test", rec["app"])
	assert.Same(t, l, slog.Default())
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Level: LevelInfo, Output: &buf})
	t.Cleanup(func() { SetLevel(LevelInfo) })

	SetLevel(LevelError)
	assert.Equal(t, LevelError, GetLevel())
	Info("dropped")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetup_Dev(t *testing.T) {
	var buf bytes.Buffer
	Setup(Options{Dev: true, Level: LevelInfo, ServiceName: "agrictl", Output: &buf})

	Info("tinted")
	assert.Contains(t, buf.String(), "tinted")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "dev output should not be JSON")
}

func TestCounters(t *testing.T) {
	Setup(Options{Level: LevelInfo, Output: &bytes.Buffer{}})
	before := Snapshot()

	WarnHttp4xx(404)
	WarnHttp4xx(409)
	WarnHttp4xx(422)
	ErrorHttp5xx()
	WarnDegradedFetch()
	Warn("sampled warning")
	Error("sampled error")

	after := Snapshot()
	delta := func(k string) int64 { return after[k] - before[k] }

	assert.EqualValues(t, 3, delta("http4xx"))
	assert.EqualValues(t, 1, delta("http404"))
	assert.EqualValues(t, 1, delta("http409"))
	assert.EqualValues(t, 0, delta("http400"))
	assert.EqualValues(t, 1, delta("http5xx"))
	assert.EqualValues(t, 1, delta("degradedFetches"))
	assert.EqualValues(t, 5, delta("warnings"))
	assert.EqualValues(t, 2, delta("errors"))
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "TRUE")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("ERROR_SAMPLE_RATE", "10")

	opts := OptionsFromEnv(true, LevelDebug)
	assert.True(t, opts.OTEL)
	assert.True(t, opts.Dev)
	assert.Equal(t, "agrisense", opts.ServiceName)
	assert.Equal(t, 10, opts.SampleRate)
	assert.Equal(t, LevelDebug, opts.Level)
}
