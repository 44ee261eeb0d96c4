package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/utils"
)

const serviceName = "orgchart-backend"

// HealthHandler 健康检查
type HealthHandler struct {
	base
}

func NewHealthHandler(cfg *config.Config, svc *services.Service, log *slog.Logger) *HealthHandler {
	return &HealthHandler{base: newBase(cfg, svc, log)}
}

// GET /
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, dbStatus, code := "healthy", "healthy", http.StatusOK
	if err := h.svc.HealthCheck(ctx); err != nil {
		h.log.Warn("health check failed", "error", err)
		status, dbStatus, code = "degraded", "unhealthy", http.StatusServiceUnavailable
	}

	utils.WriteJSONResponse(w, code, map[string]interface{}{
		"service":     serviceName,
		"environment": h.config.Environment,
		"database":    h.databaseType(),
		"db_status":   dbStatus,
		"status":      status,
		"timestamp":   time.Now().Unix(),
	})
}

// GET /debug/db-pool (development only)
func (h *HealthHandler) PoolStats(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, database.GetConnectionStats())
}

// databaseType 获取数据库类型
func (h *HealthHandler) databaseType() string {
	switch {
	case h.config.PostgresDSN != "":
		return "postgresql"
	case h.config.MongoURI != "":
		return "mongodb"
	default:
		return "local"
	}
}
