package services

import "orgchart-backend/pkg/models"

// DeriveRole decides the role and reporting line of a new team member from the
// members already in the same subfunction, oldest first.
//
// The first member becomes Team Lead and reports to the head of department.
// Everyone after that is a Team Member reporting to the earliest Team Lead, or
// to the head of department when no lead is left.
func DeriveRole(existing []models.TeamMember, hodName string) (models.TeamMemberRole, string) {
	if len(existing) == 0 {
		return models.RoleTeamLead, hodName
	}
	for _, m := range existing {
		if m.IsLead() {
			return models.RoleTeamMember, m.Name
		}
	}
	return models.RoleTeamMember, hodName
}
