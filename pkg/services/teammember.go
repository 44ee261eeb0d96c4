package services

import (
	"context"
	"errors"
	"strings"

	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/lock"
	"orgchart-backend/pkg/models"
)

// 唯一索引拒绝组长时重新推导的次数
const maxLeadAttempts = 2

// TeamMemberInput 创建团队成员的请求体
// 子职能可以用位置索引或稳定ID指定，两者都给时必须一致
type TeamMemberInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	DepartmentID     string `json:"departmentId"`
	SubfunctionIndex *int   `json:"subfunctionIndex"`
	SubfunctionID    string `json:"subfunctionId"`
}

// TeamMemberQuery 列表过滤条件
type TeamMemberQuery struct {
	OrganizationID   string
	DepartmentID     string
	SubfunctionIndex *int
	InvitedOnly      bool
}

// CreateTeamMember adds a member to a department subfunction, deriving role and
// reportTo from the members already there. The read-derive-write sequence runs
// under a per-subfunction lock.
func (s *Service) CreateTeamMember(ctx context.Context, userID string, in TeamMemberInput) (*models.TeamMember, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	departmentID := strings.TrimSpace(in.DepartmentID)
	subfunctionID := strings.TrimSpace(in.SubfunctionID)
	if name == "" || email == "" || departmentID == "" || (in.SubfunctionIndex == nil && subfunctionID == "") {
		return nil, ValidationError("Missing fields")
	}

	dept, err := s.GetDepartment(ctx, userID, departmentID)
	if err != nil {
		return nil, err
	}

	index, sub, ok := resolveSubfunction(dept, in.SubfunctionIndex, subfunctionID)
	if !ok {
		return nil, NotFoundError("Subfunction not found")
	}

	unlock, err := s.locker.Lock(ctx, lock.TeamLeadKey(dept.ID, sub.ID))
	if err != nil {
		return nil, InternalError(err)
	}
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxLeadAttempts; attempt++ {
		existing, err := s.db.ListTeamMembers(ctx, database.TeamMemberFilter{
			DepartmentID:  dept.ID,
			SubfunctionID: sub.ID,
		})
		if err != nil {
			return nil, InternalError(err)
		}

		role, reportTo := DeriveRole(existing, dept.HODName)
		tm := &models.TeamMember{
			Name:             name,
			Email:            email,
			Role:             role,
			ReportTo:         reportTo,
			OrganizationID:   dept.OrganizationID,
			UserID:           userID,
			DepartmentID:     dept.ID,
			SubfunctionID:    sub.ID,
			SubfunctionIndex: index,
		}

		err = s.db.CreateTeamMember(ctx, tm)
		if err == nil {
			s.metrics.TeamMemberCreated(string(tm.Role))
			s.log.Info("team member created",
				"team_member_id", tm.ID,
				"department_id", tm.DepartmentID,
				"subfunction_id", tm.SubfunctionID,
				"role", tm.Role,
			)
			return tm, nil
		}
		if !errors.Is(err, database.ErrDuplicate) {
			return nil, InternalError(err)
		}

		// 另一个实例抢先写入了组长
		s.metrics.TeamLeadConflict()
		s.log.Warn("team lead already assigned, re-deriving", "department_id", dept.ID, "subfunction_id", sub.ID)
		lastErr = err
	}
	return nil, ConflictError("Team lead already assigned for this subfunction", lastErr)
}

// ListTeamMembers 列出调用方的团队成员
func (s *Service) ListTeamMembers(ctx context.Context, userID string, q TeamMemberQuery) ([]models.TeamMember, error) {
	members, err := s.db.ListTeamMembers(ctx, database.TeamMemberFilter{
		UserID:           userID,
		OrganizationID:   q.OrganizationID,
		DepartmentID:     q.DepartmentID,
		SubfunctionIndex: q.SubfunctionIndex,
		InvitedOnly:      q.InvitedOnly,
	})
	if err != nil {
		return nil, InternalError(err)
	}
	return members, nil
}

// DeleteTeamMember removes a member. Other members' reportTo is left as is.
func (s *Service) DeleteTeamMember(ctx context.Context, userID, id string) error {
	if err := s.db.DeleteTeamMember(ctx, userID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return NotFoundError("Team member not found")
		}
		return InternalError(err)
	}
	s.log.Info("team member deleted", "team_member_id", id)
	return nil
}

func resolveSubfunction(dept *models.Department, index *int, id string) (int, models.Subfunction, bool) {
	if index != nil {
		sub, ok := dept.SubfunctionAt(*index)
		if !ok || (id != "" && sub.ID != id) {
			return 0, models.Subfunction{}, false
		}
		return *index, sub, true
	}
	for i, sub := range dept.Subfunctions {
		if sub.ID == id {
			return i, sub, true
		}
	}
	return 0, models.Subfunction{}, false
}
