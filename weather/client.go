package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	DefaultTimeout = 5 * time.Second
	forecastDays   = 10
)

// Forecast is a daily series for one coordinate. Degraded is set when the
// provider could not be reached and the fixed fallback series was used.
type Forecast struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Days      []DailyWeather `json:"days"`
	Degraded  bool           `json:"degraded"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// Forecaster returns a forecast for a coordinate. Implementations never
// fail; an unreachable provider yields a degraded forecast.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64) Forecast
}

// Fallback returns the fixed five-day series used when the provider fails
func Fallback(lat, lon float64) Forecast {
	highs := []float64{26, 27, 28, 27, 26}
	lows := []float64{18, 19, 20, 19, 18}
	rain := []float64{10, 8, 6, 5, 12}

	days := make([]DailyWeather, len(highs))
	for i := range highs {
		days[i] = DailyWeather{HighTempC: highs[i], LowTempC: lows[i], RainfallMm: rain[i]}
	}
	return Forecast{Latitude: lat, Longitude: lon, Days: days, Degraded: true, FetchedAt: time.Now().UTC()}
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	// onDegraded is called once per fallback
	onDegraded func()
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithDegradedHook registers a callback run whenever the fallback is served
func WithDegradedHook(fn func()) ClientOption {
	return func(c *Client) { c.onDegraded = fn }
}

// NewClient builds an Open-Meteo client. An empty baseURL or a non-positive
// timeout selects the defaults.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Forecast(ctx context.Context, lat, lon float64) Forecast {
	days, err := c.fetch(ctx, lat, lon)
	if err != nil {
		c.logger.Warn("weather provider failed, using fallback series",
			"lat", lat, "lon", lon, "error", err)
		if c.onDegraded != nil {
			c.onDegraded()
		}
		return Fallback(lat, lon)
	}
	return Forecast{Latitude: lat, Longitude: lon, Days: days, FetchedAt: time.Now().UTC()}
}

type dailyResponse struct {
	Daily struct {
		Time    []string   `json:"time"`
		TempMax []*float64 `json:"temperature_2m_max"`
		TempMin []*float64 `json:"temperature_2m_min"`
		Precip  []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

var errMalformed = errors.New("malformed forecast response")

func (c *Client) fetch(ctx context.Context, lat, lon float64) ([]DailyWeather, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("forecast_days", strconv.Itoa(forecastDays))
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read forecast: %w", err)
	}

	var result dailyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return result.days()
}

// days requires equal-length, non-empty arrays with no null values
func (r dailyResponse) days() ([]DailyWeather, error) {
	d := r.Daily
	n := len(d.Time)
	if n == 0 || len(d.TempMax) != n || len(d.TempMin) != n || len(d.Precip) != n {
		return nil, fmt.Errorf("%w: lengths time=%d max=%d min=%d precip=%d",
			errMalformed, n, len(d.TempMax), len(d.TempMin), len(d.Precip))
	}

	out := make([]DailyWeather, n)
	for i := 0; i < n; i++ {
		if d.TempMax[i] == nil || d.TempMin[i] == nil || d.Precip[i] == nil {
			return nil, fmt.Errorf("%w: null value on %s", errMalformed, d.Time[i])
		}
		out[i] = DailyWeather{
			Date:       d.Time[i],
			HighTempC:  *d.TempMax[i],
			LowTempC:   *d.TempMin[i],
			RainfallMm: *d.Precip[i],
		}
	}
	return out, nil
}
