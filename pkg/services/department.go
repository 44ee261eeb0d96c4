package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/models"

	"github.com/google/uuid"
)

// DepartmentInput 创建部门的表单字段；Subfunctions 是 JSON 字符串
type DepartmentInput struct {
	DepartmentName    string
	HODName           string
	HODEmail          string
	Role              string
	DepartmentDetails string
	Subfunctions      string
	HODPic            []byte
}

type subfunctionInput struct {
	Name    *string `json:"name"`
	Details string  `json:"details"`
}

// ParseSubfunctions decodes the JSON subfunction list, trims names and assigns
// each entry a fresh id. An empty raw string yields an empty list.
func ParseSubfunctions(raw string) ([]models.Subfunction, error) {
	result := []models.Subfunction{}
	if strings.TrimSpace(raw) == "" {
		return result, nil
	}

	var entries []subfunctionInput
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, ValidationError("Invalid subfunctions format.")
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Name == nil {
			return nil, ValidationError("Invalid subfunctions format.")
		}
		name := strings.TrimSpace(*e.Name)
		if name == "" {
			return nil, ValidationError("Subfunction names must not be empty.")
		}
		if _, dup := seen[name]; dup {
			return nil, ValidationError("Subfunction names must be unique within the department.")
		}
		seen[name] = struct{}{}

		result = append(result, models.Subfunction{
			ID:      uuid.NewString(),
			Name:    name,
			Details: strings.TrimSpace(e.Details),
		})
	}
	return result, nil
}

// CreateDepartment 在调用方的组织下创建部门
func (s *Service) CreateDepartment(ctx context.Context, userID string, in DepartmentInput) (*models.Department, error) {
	dept := &models.Department{
		DepartmentName:    strings.TrimSpace(in.DepartmentName),
		HODName:           strings.TrimSpace(in.HODName),
		HODEmail:          strings.TrimSpace(in.HODEmail),
		Role:              strings.TrimSpace(in.Role),
		DepartmentDetails: strings.TrimSpace(in.DepartmentDetails),
		UserID:            userID,
	}
	if dept.DepartmentName == "" || dept.HODName == "" || dept.HODEmail == "" || dept.Role == "" {
		return nil, ValidationError("All required fields are required.")
	}

	subfunctions, err := ParseSubfunctions(in.Subfunctions)
	if err != nil {
		return nil, err
	}
	dept.Subfunctions = subfunctions

	org, err := s.GetOrganization(ctx, userID)
	if err != nil {
		return nil, err
	}
	dept.OrganizationID = org.ID

	pic, err := s.savePicture(ctx, "departments", in.HODPic)
	if err != nil {
		return nil, err
	}
	dept.HODPic = pic

	if err := s.db.CreateDepartment(ctx, dept); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("Department with this name already exists in this organization for this user.", err)
		}
		return nil, InternalError(err)
	}

	s.log.Info("department created",
		"department_id", dept.ID,
		"organization_id", dept.OrganizationID,
		"subfunctions", len(dept.Subfunctions),
	)
	return dept, nil
}

// ListDepartments 列出调用方的部门，可按组织过滤
func (s *Service) ListDepartments(ctx context.Context, userID, organizationID string) ([]models.Department, error) {
	departments, err := s.db.ListDepartments(ctx, database.DepartmentFilter{
		UserID:         userID,
		OrganizationID: organizationID,
	})
	if err != nil {
		return nil, InternalError(err)
	}
	return departments, nil
}

// GetDepartment returns a department owned by the caller.
func (s *Service) GetDepartment(ctx context.Context, userID, id string) (*models.Department, error) {
	dept, err := s.db.GetDepartment(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Department not found")
		}
		return nil, InternalError(err)
	}
	if dept.UserID != userID {
		return nil, NotFoundError("Department not found")
	}
	return dept, nil
}
