package services

import (
	"context"
	"testing"

	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/logger"
	"orgchart-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteTeamMembers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	dept := seedDepartment(t, svc, "u1", twoSubfunctions)
	a := addMember(t, svc, "u1", dept.ID, "A", 0)
	b := addMember(t, svc, "u1", dept.ID, "B", 0)

	res, err := svc.InviteTeamMembers(ctx, "u1", []string{a.ID, "missing", b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, res.Invited)
	assert.Equal(t, []models.InviteFailure{{ID: "missing", Message: "Team member not found"}}, res.Failed)

	invited, err := svc.ListTeamMembers(ctx, "u1", TeamMemberQuery{InvitedOnly: true})
	require.NoError(t, err)
	assert.Len(t, invited, 2)
}

func TestInviteIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	dept := seedDepartment(t, svc, "u1", twoSubfunctions)
	a := addMember(t, svc, "u1", dept.ID, "A", 0)

	_, err := svc.InviteTeamMembers(ctx, "u1", []string{a.ID})
	require.NoError(t, err)
	res, err := svc.InviteTeamMembers(ctx, "u1", []string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, res.Invited)
	assert.Empty(t, res.Failed)
}

func TestInviteCannotTouchOtherUsers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	theirs := seedDepartment(t, svc, "u2", twoSubfunctions)
	z := addMember(t, svc, "u2", theirs.ID, "Z", 0)

	res, err := svc.InviteTeamMembers(ctx, "u1", []string{z.ID})
	require.NoError(t, err)
	assert.Empty(t, res.Invited)
	require.Len(t, res.Failed, 1)

	members, err := svc.ListTeamMembers(ctx, "u2", TeamMemberQuery{InvitedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestInvitePartialFailureKeepsSuccesses(t *testing.T) {
	db := &failingDB{LocalDatabase: database.NewMemoryDatabase()}
	svc := New(db, WithPictures(&fakePictures{}), WithLogger(logger.Discard()))
	dept := seedDepartment(t, svc, "u1", twoSubfunctions)
	a := addMember(t, svc, "u1", dept.ID, "A", 0)

	res, err := svc.InviteTeamMembers(context.Background(), "u1", []string{"explode", a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, res.Invited)
	assert.Equal(t, []models.InviteFailure{{ID: "explode", Message: "Failed to invite team member"}}, res.Failed)
}

func TestInviteRequiresIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.InviteTeamMembers(context.Background(), "u1", nil)
	assert.Equal(t, KindValidation, KindOf(err))
}
