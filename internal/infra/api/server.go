package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"visitgate/internal/infra/logging"
	"visitgate/internal/usecase"
)

// Server exposes the billing collaborator callback on its own listener. The
// external billing system pushes plan and period changes here after payment
// events; the handler persists them and resyncs room activation.
type Server struct {
	companyUC   *usecase.CompanyUseCase
	callbackKey string
	log         *zerolog.Logger
}

func NewServer(companyUC *usecase.CompanyUseCase, callbackKey string, logger *zerolog.Logger) *Server {
	return &Server{companyUC: companyUC, callbackKey: callbackKey, log: logger}
}

// Register attaches handlers to the provided mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/billing/update", s.handleBillingUpdate)
	mux.HandleFunc("/api/v1/admin/companies", s.handleListCompanies)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// authorized checks the shared key the billing collaborator and operator
// tooling present on this listener.
func (s *Server) authorized(r *http.Request) bool {
	return s.callbackKey != "" && r.Header.Get("X-Billing-Key") == s.callbackKey
}

type billingUpdateRequest struct {
	CompanyID          int64      `json:"company_id"`
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at"`
}

func (s *Server) handleBillingUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.callbackKey == "" {
		s.log.Error().Msg("billing callback key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req billingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CompanyID <= 0 {
		http.Error(w, "company_id is required", http.StatusBadRequest)
		return
	}

	if err := s.companyUC.ApplyBillingUpdate(ctx, req.CompanyID, req.Plan, req.Status, req.TrialEndsAt, req.SubscriptionEndsAt); err != nil {
		logging.With(ctx, s.log).Error().Err(err).Int64("company_id", req.CompanyID).Msg("billing update failed")
		http.Error(w, "Failed to apply billing update", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "applied"})
}

type companySummary struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Slug               string     `json:"slug,omitempty"`
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
}

// handleListCompanies pages tenants for operator tooling, guarded by the same
// shared key as the billing callback.
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	companies, err := s.companyUC.List(ctx, offset, limit)
	if err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("company listing failed")
		http.Error(w, "Failed to list companies", http.StatusInternalServerError)
		return
	}

	out := make([]companySummary, 0, len(companies))
	for _, c := range companies {
		out = append(out, companySummary{
			ID:                 c.ID,
			Name:               c.Name,
			Slug:               c.Slug,
			Plan:               string(c.Plan),
			Status:             string(c.Status),
			TrialEndsAt:        c.TrialEndsAt,
			SubscriptionEndsAt: c.SubscriptionEndsAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
