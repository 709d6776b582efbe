package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DietPlanServiceInterface は食事プラン参照に必要なインターフェース。
type DietPlanServiceInterface interface {
	// DietPlan はクラス種別の食事プランを時刻順で返す。
	DietPlan(classType string) (*dietPlanResponse, error)
}

// dietPlanMeal は食事プランの1エントリのAPIレスポンス。
type dietPlanMeal struct {
	Slot string `json:"slot"`
	Meal string `json:"meal"`
	Time string `json:"time"`
}

// dietPlanResponse は食事プランのAPIレスポンス。
type dietPlanResponse struct {
	ClassType string         `json:"class_type"`
	Meals     []dietPlanMeal `json:"meals"`
}

// DietPlanHandler は食事プランのHTTPハンドラー。
type DietPlanHandler struct {
	service DietPlanServiceInterface
}

// NewDietPlanHandler はDietPlanHandlerを生成する。
func NewDietPlanHandler(service DietPlanServiceInterface) *DietPlanHandler {
	return &DietPlanHandler{service: service}
}

// GetPlan はクラス種別の食事プランを返す。
// GET /api/diet-plans/{classType}
func (h *DietPlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.DietPlan(chi.URLParam(r, "classType"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, plan)
}
