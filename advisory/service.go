// Package advisory assembles the farmer dashboard from the pure advisors.
// All per-user state lives in a caller-owned Session.
package advisory

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/agrisense/advisor/crops"
	"github.com/agrisense/advisor/location"
	"github.com/agrisense/advisor/market"
	"github.com/agrisense/advisor/weather"
)

var ErrNoLocation = errors.New("session has no location")

// Session is the state a client keeps between calls. Dashboard fills in
// Forecast and Market when they are missing and returns the updated copy.
type Session struct {
	Language Language           `json:"language"`
	Location *location.Location `json:"location,omitempty"`
	Forecast *weather.Forecast  `json:"forecast,omitempty"`
	Market   *market.Series     `json:"market,omitempty"`
}

type Dashboard struct {
	Session     Session           `json:"session"`
	Alerts      []weather.Alert   `json:"alerts"`
	Insights    []weather.Insight `json:"insights"`
	Suggestions crops.Suggestions `json:"suggestions"`
	Schemes     []Scheme          `json:"schemes"`
	Notices     []Notice          `json:"notices"`
}

// AlertEvent is published once per displayed alert
type AlertEvent struct {
	District string        `json:"district"`
	Zone     location.Zone `json:"zone"`
	Alert    weather.Alert `json:"alert"`
	Degraded bool          `json:"degraded"`
	IssuedAt time.Time     `json:"issuedAt"`
}

// Publisher delivers events; implementations live in internal/events
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// AlertSubject is the subject prefix for alert events; the district is appended
const AlertSubject = "agrisense.alerts"

type Service struct {
	forecaster weather.Forecaster
	publisher  Publisher
	logger     *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRand fixes the source for synthetic market data
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

func NewService(forecaster weather.Forecaster, opts ...Option) *Service {
	s := &Service{
		forecaster: forecaster,
		logger:     slog.Default(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dashboard builds every panel for the session location. The location is
// reclassified from its coordinates; district and zone sent by the caller are
// ignored. Forecast and market data already present in the session are reused
// only while the forecast was fetched for the same coordinates.
func (s *Service) Dashboard(ctx context.Context, sess Session) (Dashboard, error) {
	if sess.Location == nil {
		return Dashboard{}, ErrNoLocation
	}
	if sess.Language == "" {
		sess.Language = LanguageEnglish
	}
	loc := location.Classify(sess.Location.Latitude, sess.Location.Longitude, sess.Location.Altitude)
	if sess.Forecast == nil || sess.Forecast.Latitude != loc.Latitude ||
		sess.Forecast.Longitude != loc.Longitude || sess.Location.District != loc.District {
		sess.Forecast, sess.Market = nil, nil
	}
	sess.Location = &loc

	if sess.Forecast == nil {
		f := s.forecaster.Forecast(ctx, loc.Latitude, loc.Longitude)
		sess.Forecast = &f
	}
	if sess.Market == nil {
		s.mu.Lock()
		series := market.NewSeries(s.rng, loc.District)
		s.mu.Unlock()
		sess.Market = &series
	}

	alerts := weather.DisplayAlerts(sess.Forecast.Days, weather.DisplayCap)
	s.publishAlerts(ctx, loc, alerts, sess.Forecast.Degraded)

	return Dashboard{
		Session:     sess,
		Alerts:      alerts,
		Insights:    weather.Insights(sess.Forecast.Days),
		Suggestions: crops.ZoneSuggestions(loc.ClimateZone),
		Schemes:     Schemes(loc.ClimateZone, sess.Language),
		Notices:     Notices(),
	}, nil
}

// publishAlerts is best effort; failures are logged and the dashboard is
// still returned
func (s *Service) publishAlerts(ctx context.Context, loc location.Location, alerts []weather.Alert, degraded bool) {
	if s.publisher == nil || len(alerts) == 0 {
		return
	}
	subject := AlertSubject + "." + loc.District
	now := time.Now().UTC()
	for _, a := range alerts {
		ev := AlertEvent{District: loc.District, Zone: loc.ClimateZone, Alert: a, Degraded: degraded, IssuedAt: now}
		if err := s.publisher.Publish(ctx, subject, ev); err != nil {
			s.logger.Warn("failed to publish alert", "subject", subject, "message", a.Message, "error", err)
		}
	}
}
