package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/agrisense/advisor/advisory"
	"github.com/agrisense/advisor/community"
	"github.com/agrisense/advisor/crops"
	"github.com/agrisense/advisor/location"
	"github.com/agrisense/advisor/market"
	"github.com/agrisense/advisor/rules"
	"github.com/agrisense/advisor/weather"
)

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"districts": location.Districts()})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	loc, err := req.resolveLocation()
	if err != nil {
		respondErr(w, "cannot resolve location", err)
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

// conditions accepts soil and moisture in any case; the engine rejects
// anything still unknown
func (req RecommendRequest) conditions() rules.Conditions {
	return rules.Conditions{
		TempC:      req.Temp,
		RainMm:     req.Rain,
		Soil:       rules.Soil(req.Soil),
		Moisture:   rules.Moisture(req.Moisture),
		ElevationM: req.Elevation,
	}.Normalize()
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	c := req.conditions()
	picks, err := s.deps.Engine.Recommend(c)
	if err != nil {
		respondErr(w, "recommendation failed", err)
		return
	}

	s.record(r.Context(), community.KindRecommendation, map[string]any{
		"conditions": c,
		"crops":      picks,
	})
	respondJSON(w, http.StatusOK, RecommendResponse{Crops: picks})
}

func (s *Server) handleZoneSuggestions(w http.ResponseWriter, r *http.Request) {
	zone, err := location.ParseZone(chi.URLParam(r, "zone"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown climate zone", err)
		return
	}
	respondJSON(w, http.StatusOK, crops.ZoneSuggestions(zone))
}

// handleAlerts caps the list at ?cap=N (default 6); ?all=true returns every alert
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	var req AlertsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	limit := weather.DisplayCap
	if v := r.URL.Query().Get("cap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "cap must be a non-negative integer", err)
			return
		}
		limit = n
	}

	all := weather.BuildAlerts(req.Days)
	shown := all
	if r.URL.Query().Get("all") != "true" {
		shown = weather.DisplayAlerts(req.Days, limit)
	}
	respondJSON(w, http.StatusOK, AlertsResponse{Alerts: shown, Total: len(all)})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		respondError(w, http.StatusBadRequest, "lat and lon query parameters are required", nil)
		return
	}

	f := s.deps.Forecaster.Forecast(r.Context(), lat, lon)
	respondJSON(w, http.StatusOK, map[string]any{
		"forecast": f,
		"alerts":   weather.DisplayAlerts(f.Days, weather.DisplayCap),
		"insights": weather.Insights(f.Days),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var req DashboardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Classify != nil {
		loc, err := req.Classify.resolveLocation()
		if err != nil {
			respondErr(w, "cannot resolve location", err)
			return
		}
		req.Session.Location = &loc
		req.Session.Forecast = nil
		req.Session.Market = nil
	}
	if _, err := advisory.ParseLanguage(string(req.Session.Language)); err != nil {
		respondError(w, http.StatusBadRequest, "unsupported language", err)
		return
	}

	d, err := s.deps.Advisory.Dashboard(r.Context(), req.Session)
	if err != nil {
		respondErr(w, "failed to build dashboard", err)
		return
	}

	s.record(r.Context(), community.KindBehaviour, map[string]any{
		"action":   "dashboard",
		"district": d.Session.Location.District,
		"alerts":   len(d.Alerts),
	})
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	var req TrendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	respondJSON(w, http.StatusOK, market.AnalyzeTrend(req.Prices))
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"items":               s.deps.Board.Items(),
		"averageProducePrice": s.deps.Board.AverageProducePrice(),
		"currency":            "NPR",
	})
}

func (s *Server) handleNearby(w http.ResponseWriter, r *http.Request) {
	district := chi.URLParam(r, "district")
	respondJSON(w, http.StatusOK, map[string]any{
		"district": district,
		"markets":  market.NearbyMarkets(district),
	})
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	zone, err := location.ParseZone(r.URL.Query().Get("zone"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown climate zone", err)
		return
	}
	lang, err := advisory.ParseLanguage(r.URL.Query().Get("lang"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported language", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"schemes": advisory.Schemes(zone, lang)})
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"notices": advisory.Notices()})
}

func (s *Server) handleYield(w http.ResponseWriter, r *http.Request) {
	var req YieldRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	est, err := advisory.EstimateYield(req.Crop, req.LandHa, req.PerHectare)
	if err != nil {
		respondErr(w, "cannot estimate yield", err)
		return
	}
	respondJSON(w, http.StatusOK, est)
}
