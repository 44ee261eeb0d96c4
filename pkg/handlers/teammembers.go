package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/models"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// TeamMemberHandler 团队成员与邀请接口
type TeamMemberHandler struct {
	base
}

func NewTeamMemberHandler(cfg *config.Config, svc *services.Service, log *slog.Logger) *TeamMemberHandler {
	return &TeamMemberHandler{base: newBase(cfg, svc, log)}
}

// GET /api/teammembers?organizationId=&departmentId=&subfunctionIndex=&invited=
func (h *TeamMemberHandler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	q := services.TeamMemberQuery{
		OrganizationID: utils.GetQueryParam(r, "organizationId", ""),
		DepartmentID:   utils.GetQueryParam(r, "departmentId", ""),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("subfunctionIndex")); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteValidationErrorResponse(w, "subfunctionIndex must be an integer")
			return
		}
		q.SubfunctionIndex = &idx
	}
	if invited, err := strconv.ParseBool(r.URL.Query().Get("invited")); err == nil {
		q.InvitedOnly = invited
	}

	members, err := h.svc.ListTeamMembers(r.Context(), userID, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, members)
}

// POST /api/teammembers
func (h *TeamMemberHandler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in services.TeamMemberInput
	if err := utils.ParseJSONBody(r, &in); err != nil {
		utils.WriteValidationErrorResponse(w, "Invalid request body")
		return
	}

	tm, err := h.svc.CreateTeamMember(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{
		"teammember": tm,
		"message":    "Team member added",
	})
}

// DELETE /api/teammembers/{id}
func (h *TeamMemberHandler) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteTeamMember(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"deleted": true, "id": id})
}

// POST /api/teammembers/invite
func (h *TeamMemberHandler) InviteTeamMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.InviteRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteValidationErrorResponse(w, "teammemberIds must be a non-empty array")
		return
	}

	result, err := h.svc.InviteTeamMembers(r.Context(), userID, req.TeamMemberIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccessResponse(w, result)
}
