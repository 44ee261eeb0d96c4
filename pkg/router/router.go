// Package router assembles the chi router shared by the Vercel function and
// the standalone server.
package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/handlers"
	"orgchart-backend/pkg/metrics"
	customMiddleware "orgchart-backend/pkg/middleware"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/storage"
	"orgchart-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps 路由依赖
type Deps struct {
	Config  *config.Config
	Service *services.Service
	Auth    customMiddleware.TokenValidator
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// UploadDir 本地上传目录；为空时不挂载 /uploads/
	UploadDir string
}

// NewRouter 创建完整的 HTTP 路由
func NewRouter(deps Deps) *chi.Mux {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	cfg := deps.Config

	router := chi.NewRouter()
	setupMiddleware(router, cfg, deps.Metrics, log)
	setupRoutes(router, deps, log)
	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config, m *metrics.Metrics, log *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(customMiddleware.Logger(log))
	router.Use(customMiddleware.Metrics(m))
	router.Use(customMiddleware.Recovery(cfg, log))
	router.Use(customMiddleware.CORS(cfg))

	// Vercel 函数有时间限制，留5秒缓冲
	router.Use(middleware.Timeout(25 * time.Second))
	router.Use(middleware.Compress(5))

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, deps Deps, log *slog.Logger) {
	cfg := deps.Config
	healthHandler := handlers.NewHealthHandler(cfg, deps.Service, log)
	orgHandler := handlers.NewOrganizationHandler(cfg, deps.Service, log)
	deptHandler := handlers.NewDepartmentHandler(cfg, deps.Service, log)
	memberHandler := handlers.NewTeamMemberHandler(cfg, deps.Service, log)
	chartHandler := handlers.NewChartHandler(cfg, deps.Service, log)

	router.Get("/", healthHandler.HealthCheck)
	router.Handle("/metrics", deps.Metrics.Handler())

	if deps.UploadDir != "" {
		fs := http.StripPrefix(storage.LocalURLPrefix, http.FileServer(http.Dir(deps.UploadDir)))
		router.Handle(storage.LocalURLPrefix+"*", fs)
	}

	if cfg.IsDevelopment() {
		router.Get("/debug/db-pool", healthHandler.PoolStats)
	}

	// multipart 请求体在图片上限之外留 1MB 给表单字段
	uploadLimit := customMiddleware.MaxBodySize(cfg.MaxUploadBytes + 1<<20)
	jsonLimit := customMiddleware.MaxBodySize(1 << 20)

	router.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.AuthMiddleware(deps.Auth, log))

		r.Route("/organization", func(r chi.Router) {
			r.Get("/", orgHandler.GetOrganization)
			r.With(uploadLimit).Post("/", orgHandler.CreateOrganization)
			r.With(jsonLimit, customMiddleware.ContentTypeJSON).Put("/", orgHandler.UpdateOrganization)
		})

		r.Route("/departments", func(r chi.Router) {
			r.Get("/", deptHandler.ListDepartments)
			r.Get("/all", deptHandler.ListAllDepartments)
			r.Get("/{id}", deptHandler.GetDepartment)
			r.With(uploadLimit).Post("/", deptHandler.CreateDepartment)
		})

		r.Route("/teammembers", func(r chi.Router) {
			r.Get("/", memberHandler.ListTeamMembers)
			r.With(jsonLimit, customMiddleware.ContentTypeJSON).Post("/", memberHandler.CreateTeamMember)
			r.With(jsonLimit, customMiddleware.ContentTypeJSON).Post("/invite", memberHandler.InviteTeamMembers)
			r.Delete("/{id}", memberHandler.DeleteTeamMember)
		})

		r.Get("/chart", chartHandler.GetChart)
	})

	// 404处理
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
	})
}
