package handlers

import (
	"log/slog"
	"net/http"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/models"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/utils"
)

// OrganizationHandler 组织档案接口
type OrganizationHandler struct {
	base
}

func NewOrganizationHandler(cfg *config.Config, svc *services.Service, log *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{base: newBase(cfg, svc, log)}
}

// GET /api/organization
func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	org, err := h.svc.GetOrganization(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, org)
}

// POST /api/organization (multipart, optional ceoPic file)
func (h *OrganizationHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	pic, err := readUpload(r, "ceoPic", h.config.MaxUploadBytes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	in := services.OrganizationInput{
		Name:             r.FormValue("name"),
		CEOName:          r.FormValue("ceoName"),
		Email:            r.FormValue("email"),
		Industry:         r.FormValue("industry"),
		CompanySize:      r.FormValue("companySize"),
		City:             r.FormValue("city"),
		Country:          r.FormValue("country"),
		Location:         r.FormValue("location"),
		YearFounded:      r.FormValue("yearFounded"),
		OrganizationType: r.FormValue("organizationType"),
		NumberOfOffices:  r.FormValue("numberOfOffices"),
		HRToolsUsed:      r.FormValue("hrToolsUsed"),
		HiringLevel:      r.FormValue("hiringLevel"),
		WorkModel:        r.FormValue("workModel"),
		CEOPic:           pic,
	}

	org, err := h.svc.CreateOrganization(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{
		"organization": org,
		"message":      "Organization created successfully",
	})
}

// PUT /api/organization (json patch)
func (h *OrganizationHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var patch models.OrganizationPatch
	if err := utils.ParseJSONBody(r, &patch); err != nil {
		utils.WriteValidationErrorResponse(w, "Invalid request body")
		return
	}

	org, err := h.svc.UpdateOrganization(r.Context(), userID, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"organization": org})
}
