package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"agrictl"}, args...))
	return &out, err
}

func decodeOutput(t *testing.T, out *bytes.Buffer) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &v), out.String())
	return v
}

func TestClassify(t *testing.T) {
	out, err := runCLI(t, "classify", "--district", "Kaski")
	require.NoError(t, err)
	assert.Equal(t, "Kaski", decodeOutput(t, out)["district"])

	out, err = runCLI(t, "classify", "--lat", "27.70", "--lon", "85.32", "--alt", "3000")
	require.NoError(t, err)
	got := decodeOutput(t, out)
	assert.Equal(t, "Kathmandu", got["district"])
	assert.Equal(t, "High-Hill/Cold", got["climateZone"])

	_, err = runCLI(t, "classify")
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	out, err := runCLI(t, "recommend", "--temp", "25", "--rain", "10", "--soil", "Loam", "--moisture", "Medium")
	require.NoError(t, err)

	picks := decodeOutput(t, out)["crops"].([]any)
	require.Len(t, picks, 3)
	assert.Equal(t, "Rice", picks[0].(map[string]any)["crop"])

	out, err = runCLI(t, "recommend", "--temp", "25", "--rain", "10", "--soil", " loam", "--moisture", "MEDIUM")
	require.NoError(t, err)
	picks = decodeOutput(t, out)["crops"].([]any)
	assert.Equal(t, "Rice", picks[0].(map[string]any)["crop"])

	_, err = runCLI(t, "recommend", "--temp", "25", "--rain", "10", "--soil", "Peat", "--moisture", "Low")
	assert.Error(t, err)
}

func TestAlerts_Synthetic(t *testing.T) {
	out, err := runCLI(t, "--seed", "7", "alerts", "--district", "Chitwan", "--days", "10")
	require.NoError(t, err)

	got := decodeOutput(t, out)
	days := got["forecast"].(map[string]any)["days"].([]any)
	assert.Len(t, days, 10)
	assert.LessOrEqual(t, len(got["alerts"].([]any)), 6)
}

func TestAlerts_RejectsBadDays(t *testing.T) {
	for _, days := range []string{"0", "-1"} {
		_, err := runCLI(t, "alerts", "--district", "Kaski", "--days", days)
		assert.Error(t, err, "--days %s", days)
	}
}

func TestTrend(t *testing.T) {
	out, err := runCLI(t, "trend", "100", "105", "120")
	require.NoError(t, err)
	analysis := decodeOutput(t, out)["analysis"].(map[string]any)
	assert.Equal(t, "rising", analysis["trend"])

	out, err = runCLI(t, "--seed", "1", "trend")
	require.NoError(t, err)
	assert.Len(t, decodeOutput(t, out)["prices"].([]any), 14)

	_, err = runCLI(t, "trend", "cheap")
	assert.Error(t, err)
}

func TestZone(t *testing.T) {
	out, err := runCLI(t, "zone", "--lang", "ne", "highhill")
	require.NoError(t, err)
	got := decodeOutput(t, out)
	assert.Equal(t, "High-Hill/Cold", got["zone"])
	assert.Len(t, got["schemes"].([]any), 4)

	_, err = runCLI(t, "zone", "arctic")
	assert.Error(t, err)
}

func TestYield(t *testing.T) {
	out, err := runCLI(t, "yield", "--crop", "Rice", "--land", "2", "--per-hectare", "4")
	require.NoError(t, err)
	assert.InDelta(t, 8.0, decodeOutput(t, out)["totalTons"], 1e-9)

	_, err = runCLI(t, "yield", "--crop", "Rice", "--land", "-1")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	out, err := runCLI(t, "token", "--secret", "cli-test-secret-0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "."), 3)
}
