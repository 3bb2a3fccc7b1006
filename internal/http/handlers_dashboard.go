package http

import (
	"fmt"
	"net/http"

	"faktura/internal/log"
)

// handleForecast serves GET /api/forecast?months=N. N defaults to the
// configured horizon and must lie in [0,120].
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", s.svc.Forecasts.DefaultHorizon())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if months < 0 || months > maxHorizon {
		s.writeError(w, r, invalidField("months", fmt.Errorf("must be between 0 and %d", maxHorizon)))
		return
	}

	f, err := s.svc.Forecasts.Generate(r.Context(), months)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Forecast generated",
		log.FieldHorizon, months,
		"entries", len(f.Entries))
	NewJSONResponse().Body(toForecastResponse(f)).Write(w)
}

// handleDashboard serves the invoice book summary.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Invoices.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(toDashboardResponse(stats)).Write(w)
}
