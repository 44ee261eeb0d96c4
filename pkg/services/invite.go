package services

import (
	"context"
	"errors"
	"strings"

	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/models"
)

const (
	inviteNotFoundMessage = "Team member not found"
	inviteFailedMessage   = "Failed to invite team member"
)

// InviteTeamMembers marks each id as invited. Ids are processed one by one;
// failures are reported per id and never roll back the others.
func (s *Service) InviteTeamMembers(ctx context.Context, userID string, ids []string) (*models.InviteResult, error) {
	if len(ids) == 0 {
		return nil, ValidationError("teammemberIds must be a non-empty array")
	}

	result := &models.InviteResult{
		Invited: []string{},
		Failed:  []models.InviteFailure{},
	}
	seen := make(map[string]struct{}, len(ids))

	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if id == "" {
			result.Failed = append(result.Failed, models.InviteFailure{ID: raw, Message: inviteNotFoundMessage})
			s.metrics.Invitation("failed")
			continue
		}

		err := s.db.MarkTeamMemberInvited(ctx, userID, id)
		switch {
		case err == nil:
			result.Invited = append(result.Invited, id)
			s.metrics.Invitation("invited")
		case errors.Is(err, database.ErrNotFound):
			result.Failed = append(result.Failed, models.InviteFailure{ID: id, Message: inviteNotFoundMessage})
			s.metrics.Invitation("failed")
		default:
			s.log.Error("invite team member failed", "team_member_id", id, "error", err)
			result.Failed = append(result.Failed, models.InviteFailure{ID: id, Message: inviteFailedMessage})
			s.metrics.Invitation("failed")
		}
	}

	s.log.Info("invitations processed", "invited", len(result.Invited), "failed", len(result.Failed))
	return result, nil
}
