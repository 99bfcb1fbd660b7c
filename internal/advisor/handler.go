package advisor

import (
	"encoding/json"
	"net/http"

	"github.com/asvab-prep/backend/internal/assessment"
	"github.com/asvab-prep/backend/internal/irt"
	"github.com/asvab-prep/backend/internal/models"
)

type Handler struct {
	advisor    *Advisor
	assessment *assessment.Service
}

func NewHandler(advisor *Advisor, assessment *assessment.Service) *Handler {
	return &Handler{advisor: advisor, assessment: assessment}
}

func (h *Handler) StudyPlan(w http.ResponseWriter, r *http.Request) {
	var req models.EstimateAbilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "user_id is required"})
		return
	}

	report, err := h.assessment.EstimateAbility(req.UserID)
	if err != nil {
		kind := irt.Kind(err)
		status := http.StatusInternalServerError
		if kind == "no_responses" {
			status = http.StatusNotFound
		}
		writeJSON(w, status, models.ErrorResponse{Error: err.Error(), Kind: kind})
		return
	}

	plan, err := h.advisor.StudyPlan(r.Context(), report)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Study plan generation failed: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
