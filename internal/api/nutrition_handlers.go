package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"example.com/fitcoach/internal/domain"
	"example.com/fitcoach/internal/observability"
)

// NutritionLogRequest is the payload for POST /v1/nutrition/logs.
type NutritionLogRequest struct {
	FoodName string  `json:"food_name"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Date     string  `json:"date"`
	MealType string  `json:"meal_type"`
}

// Validate ensures request correctness.
func (r NutritionLogRequest) Validate() error {
	if strings.TrimSpace(r.FoodName) == "" {
		return errors.New("food_name is required")
	}
	if r.MealType == "" {
		return errors.New("meal_type is required")
	}
	return nil
}

func (h *Handler) getNutritionDay(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Nutrition.Day(r.Context(), currentUser(r).ID, r.URL.Query().Get("date"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDailySummaryView(summary))
}

func (h *Handler) addNutritionLog(w http.ResponseWriter, r *http.Request) {
	var req NutritionLogRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.Nutrition.AddLog(r.Context(), domain.NutritionLog{
		UserID:   currentUser(r).ID,
		FoodName: req.FoodName,
		Calories: req.Calories,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fats:     req.Fats,
		Date:     req.Date,
		MealType: domain.MealType(strings.ToLower(req.MealType)),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	observability.RecordAction(observability.ActionNutritionLogged)
	writeJSON(w, http.StatusCreated, toNutritionLogView(*entry))
}

func (h *Handler) deleteNutritionLog(w http.ResponseWriter, r *http.Request) {
	if err := h.Nutrition.DeleteLog(r.Context(), currentUser(r).ID, chi.URLParam(r, "logID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Nutrition.Recommend(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationView(rec))
}
