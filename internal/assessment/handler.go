package assessment

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/asvab-prep/backend/internal/analysis"
	"github.com/asvab-prep/backend/internal/irt"
	"github.com/asvab-prep/backend/internal/models"
	"github.com/asvab-prep/backend/internal/selector"
)

// maxBatchUsers bounds one batch ability request.
const maxBatchUsers = 100

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) EstimateAbility(w http.ResponseWriter, r *http.Request) {
	var req models.EstimateAbilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "user_id is required"})
		return
	}

	resp, err := h.service.EstimateAbility(req.UserID)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) EstimateAbilitiesBatch(w http.ResponseWriter, r *http.Request) {
	var req models.EstimateAbilitiesBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if len(req.UserIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "user_ids is required"})
		return
	}
	if len(req.UserIDs) > maxBatchUsers {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "at most 100 user_ids per request"})
		return
	}

	writeJSON(w, http.StatusOK, h.service.EstimateAbilitiesBatch(req.UserIDs))
}

func (h *Handler) PassingProbability(w http.ResponseWriter, r *http.Request) {
	var req models.PassingProbabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "user_id is required"})
		return
	}
	if len(req.ExamStructure.Questions) == 0 && len(req.ExamStructure.Topics) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "exam_structure requires questions or topics"})
		return
	}

	resp, err := h.service.PassingProbability(req)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) DiagnosticSet(w http.ResponseWriter, r *http.Request) {
	var req models.DiagnosticSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.NumQuestions > 100 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "num_questions must be at most 100"})
		return
	}

	writeJSON(w, http.StatusOK, h.service.DiagnosticSet(req))
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.NextQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "user_id is required"})
		return
	}

	resp, err := h.service.NextQuestion(req)
	if err != nil {
		if err == selector.ErrNoCandidates {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	snap := h.service.holder.Current()
	writeJSON(w, http.StatusOK, analysis.Analyze(snap.Bank.Items()))
}

func (h *Handler) Recalibrate(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Recalibrate()
	if err != nil {
		log.Printf("WARN: recalibration failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Recalibration failed: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"item_count":      snap.Bank.Len(),
		"dropped_records": snap.DroppedRecords,
		"calibrated_at":   snap.CalibratedAt,
		"message":         "Bank recalibrated successfully",
	})
}

// writeKindError maps the engine's error taxonomy onto HTTP statuses with
// a stable kind code in the body.
func writeKindError(w http.ResponseWriter, err error) {
	kind := irt.Kind(err)

	status := http.StatusInternalServerError
	switch kind {
	case "no_responses":
		status = http.StatusNotFound
	case "unknown_item", "empty_exam", "invalid_threshold":
		status = http.StatusBadRequest
	case "numeric_instability":
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, models.ErrorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
