package handlers

import (
	"log/slog"
	"net/http"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/utils"
)

// ChartHandler 组织架构图
type ChartHandler struct {
	base
}

func NewChartHandler(cfg *config.Config, svc *services.Service, log *slog.Logger) *ChartHandler {
	return &ChartHandler{base: newBase(cfg, svc, log)}
}

// GET /api/chart
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	chart, err := h.svc.BuildChart(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, chart)
}
