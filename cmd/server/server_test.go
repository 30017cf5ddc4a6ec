//go:build integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/agrisense/advisor/internal/config"
	"github.com/agrisense/advisor/internal/httpapi"
)

// setupTestConfig starts a PostgreSQL testcontainer and returns a config
// pointing at it. The weather upstream always fails so forecasts degrade.
func setupTestConfig(t *testing.T) (config.Config, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	cfg := config.Config{
		AppEnv:         "dev",
		DBDriver:       "postgres",
		DatabaseURL:    fmt.Sprintf("postgres://postgres:password@%s:%s/testdb?sslmode=disable", host, port.Port()),
		DBMaxOpenConns: 5,
		MigrationsPath: "../../migrations",
		WeatherBaseURL: upstream.URL,
		WeatherTimeout: time.Second,
		ForecastTTL:    time.Minute,
		MarketTick:     time.Second,
		AdminJWTSecret: "integration-admin-secret-0123456789",
	}

	cleanup := func() {
		upstream.Close()
		postgres.Terminate(ctx)
	}

	return cfg, cleanup
}

func makeRequest(t *testing.T, method, url, token string, body any, wantStatus int) map[string]any {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, url, wantStatus, resp.StatusCode, raw)
	}

	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return out
}

// TestEndToEnd_AdvisoryWorkflow walks a farmer session and an admin rule
// change against a real database:
// 1. Health and seeded rules
// 2. Recommendation from the seeded rules
// 3. Dashboard with a degraded forecast
// 4. Admin adds a rule that changes the recommendation
// 5. Poll vote and survey credits persist
func TestEndToEnd_AdvisoryWorkflow(t *testing.T) {
	cfg, cleanup := setupTestConfig(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	defer a.close()

	server := httptest.NewServer(a.handler)
	defer server.Close()
	baseURL := server.URL + "/api/v1"

	t.Log("Step 1: Checking health...")
	health := makeRequest(t, http.MethodGet, baseURL+"/health", "", nil, http.StatusOK)
	if health["rulesLoaded"] != float64(5) {
		t.Errorf("Expected 5 seeded rules, got %v", health["rulesLoaded"])
	}

	t.Log("Step 2: Recommending crops...")
	field := map[string]any{"temp": 25, "rain": 10, "soil": "Loam", "moisture": "Medium", "elevation": 500}
	rec := makeRequest(t, http.MethodPost, baseURL+"/recommend", "", field, http.StatusOK)
	crops := rec["crops"].([]any)
	if first := crops[0].(map[string]any)["crop"]; first != "Rice" {
		t.Errorf("Expected Rice first, got %v", first)
	}

	t.Log("Step 3: Building dashboard...")
	dash := makeRequest(t, http.MethodPost, baseURL+"/dashboard", "", map[string]any{
		"classify": map[string]any{"district": "Chitwan"},
	}, http.StatusOK)
	session := dash["session"].(map[string]any)
	forecast := session["forecast"].(map[string]any)
	if forecast["degraded"] != true {
		t.Errorf("Expected degraded forecast when upstream fails, got %v", forecast["degraded"])
	}

	t.Log("Step 4: Adding an admin rule...")
	token, err := httpapi.IssueAdminToken(cfg.AdminJWTSecret, "integration", time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	makeRequest(t, http.MethodGet, baseURL+"/admin/rules", "", nil, http.StatusUnauthorized)
	makeRequest(t, http.MethodPost, baseURL+"/admin/rules", token, map[string]any{
		"id":         "loam-first",
		"name":       "Loam favours ginger",
		"expression": `field.soil == "Loam"`,
		"priority":   1,
		"crops":      []map[string]any{{"crop": "Ginger", "reason": "Loam drains well."}},
	}, http.StatusCreated)

	rec = makeRequest(t, http.MethodPost, baseURL+"/recommend", "", field, http.StatusOK)
	crops = rec["crops"].([]any)
	if first := crops[0].(map[string]any)["crop"]; first != "Ginger" {
		t.Errorf("Expected Ginger first after rule change, got %v", first)
	}

	analytics := makeRequest(t, http.MethodGet, baseURL+"/admin/analytics/recommendation", token, nil, http.StatusOK)
	if events := analytics["events"].([]any); len(events) != 2 {
		t.Errorf("Expected 2 recommendation events, got %d", len(events))
	}

	t.Log("Step 5: Voting and completing a survey...")
	poll := makeRequest(t, http.MethodPost, baseURL+"/polls", "", map[string]any{
		"question": "Which input is hardest to find?",
		"options":  []string{"Seed", "Fertilizer", "Labour"},
	}, http.StatusCreated)
	pollID := poll["id"].(string)

	makeRequest(t, http.MethodPost, baseURL+"/polls/"+pollID+"/votes", "", map[string]any{"voterId": "f-1", "option": 1}, http.StatusOK)
	makeRequest(t, http.MethodPost, baseURL+"/polls/"+pollID+"/votes", "", map[string]any{"voterId": "f-1", "option": 2}, http.StatusConflict)

	makeRequest(t, http.MethodPost, baseURL+"/farmers/f-1/surveys", "", map[string]any{
		"answers": []string{"1", "2", "3", "4", "5", "6"},
	}, http.StatusOK)
	credits := makeRequest(t, http.MethodGet, baseURL+"/farmers/f-1/credits", "", nil, http.StatusOK)
	if credits["credits"] != float64(20) {
		t.Errorf("Expected 20 credits, got %v", credits["credits"])
	}
}
