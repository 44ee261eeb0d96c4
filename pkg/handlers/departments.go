package handlers

import (
	"log/slog"
	"net/http"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// DepartmentHandler 部门接口
type DepartmentHandler struct {
	base
}

func NewDepartmentHandler(cfg *config.Config, svc *services.Service, log *slog.Logger) *DepartmentHandler {
	return &DepartmentHandler{base: newBase(cfg, svc, log)}
}

// GET /api/departments?organizationId=
func (h *DepartmentHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, utils.GetQueryParam(r, "organizationId", ""))
}

// GET /api/departments/all
func (h *DepartmentHandler) ListAllDepartments(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

func (h *DepartmentHandler) list(w http.ResponseWriter, r *http.Request, organizationID string) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	departments, err := h.svc.ListDepartments(r.Context(), userID, organizationID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, departments)
}

// GET /api/departments/{id}
func (h *DepartmentHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	dept, err := h.svc.GetDepartment(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, dept)
}

// POST /api/departments (multipart; subfunctions is a JSON string, hodPic optional)
func (h *DepartmentHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	pic, err := readUpload(r, "hodPic", h.config.MaxUploadBytes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	dept, err := h.svc.CreateDepartment(r.Context(), userID, services.DepartmentInput{
		DepartmentName:    r.FormValue("departmentName"),
		HODName:           r.FormValue("hodName"),
		HODEmail:          r.FormValue("hodEmail"),
		Role:              r.FormValue("role"),
		DepartmentDetails: r.FormValue("departmentDetails"),
		Subfunctions:      r.FormValue("subfunctions"),
		HODPic:            pic,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{
		"department": dept,
		"message":    "Department created successfully",
	})
}
