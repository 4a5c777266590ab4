package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"
	"telegram-membership-bot/internal/usecase"
)

// Server implements the admin v1 handlers.
type Server struct {
	codes usecase.ActivationUseCase
	users usecase.UserUseCase
	log   *zerolog.Logger
}

func NewServer(codes usecase.ActivationUseCase, users usecase.UserUseCase, logger *zerolog.Logger) *Server {
	return &Server{codes: codes, users: users, log: logger}
}

// RegisterAPIV1 mounts the v1 routes on r. Authentication is the caller's concern.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/activation-codes", s.createActivationCodes)
		r.Get("/stats", s.stats)
	})
}

type CreateActivationCodesRequest struct {
	Type       string `json:"type"` // "membership" | "points"
	Count      int    `json:"count"`
	ExpireDays *int   `json:"expire_days,omitempty"`
	Points     *int64 `json:"points,omitempty"`
}

type ActivationCode struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Type       string    `json:"type"`
	ExpireDays *int      `json:"expire_days,omitempty"`
	Points     *int64    `json:"points,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Stats struct {
	Users int `json:"users"`
}

func (s *Server) createActivationCodes(w http.ResponseWriter, r *http.Request) {
	var req CreateActivationCodesRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	ct, err := model.ParseCodeType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "type must be membership or points")
		return
	}

	codes, err := s.codes.Provision(r.Context(), usecase.ProvisionRequest{
		Type:       ct,
		Count:      req.Count,
		ExpireDays: req.ExpireDays,
		Points:     req.Points,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logging.With(r.Context(), s.log).Error().Err(err).Msg("provision activation codes failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	metrics.AddActivationCodesProvisioned(ct.String(), len(codes))
	items := make([]ActivationCode, 0, len(codes))
	for _, c := range codes {
		items = append(items, ActivationCode{
			ID:         c.ID,
			Code:       c.Code,
			Type:       c.Type.String(),
			ExpireDays: c.ExpireDays,
			Points:     c.Points,
			CreatedAt:  c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusCreated, map[string]any{"items": items})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	n, err := s.users.Count(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("count users failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, Stats{Users: n})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
