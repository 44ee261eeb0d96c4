package models

import "time"

// TeamMemberRole 团队成员角色，创建时推导，之后不再重新计算
type TeamMemberRole string

const (
	RoleTeamLead   TeamMemberRole = "Team Lead"
	RoleTeamMember TeamMemberRole = "Team Member"
)

// TeamMember 团队成员
// ReportTo 保存的是名字而不是引用：组长被删除后该字段保持原值
type TeamMember struct {
	ID               string         `json:"_id" db:"id" bson:"_id"`
	Name             string         `json:"name" db:"name" bson:"name"`
	Email            string         `json:"email" db:"email" bson:"email"`
	Role             TeamMemberRole `json:"role" db:"role" bson:"role"`
	ReportTo         string         `json:"reportTo" db:"report_to" bson:"reportTo"`
	OrganizationID   string         `json:"organization" db:"organization_id" bson:"organization"`
	UserID           string         `json:"user" db:"user_id" bson:"user"`
	DepartmentID     string         `json:"department" db:"department_id" bson:"department"`
	SubfunctionID    string         `json:"subfunctionId" db:"subfunction_id" bson:"subfunctionId"`
	SubfunctionIndex int            `json:"subfunctionIndex" db:"subfunction_index" bson:"subfunctionIndex"`
	Invited          bool           `json:"invited" db:"invited" bson:"invited"`
	InvitedAt        *time.Time     `json:"invitedAt,omitempty" db:"invited_at" bson:"invitedAt,omitempty"`
	CreatedAt        time.Time      `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// IsLead reports whether the member was assigned the Team Lead role.
func (m TeamMember) IsLead() bool {
	return m.Role == RoleTeamLead
}
