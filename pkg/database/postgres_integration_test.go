//go:build integration

package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"orgchart-backend/pkg/logger"
	"orgchart-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) *PostgresDatabase {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "orgchart",
			"POSTGRES_PASSWORD": "orgchart",
			"POSTGRES_DB":       "orgchart",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://orgchart:orgchart@%s:%s/orgchart?sslmode=disable", host, port.Port())
	db, err := NewPostgresDatabase(ctx, dsn, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db.DB(), logger.Discard()))
	return db
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	db := startPostgres(t)

	org := &models.Organization{Name: "Acme", UserID: "u1", City: "Lagos", Country: "NG", Location: "Lagos, NG"}
	require.NoError(t, db.CreateOrganization(ctx, org))
	assert.ErrorIs(t, db.CreateOrganization(ctx, &models.Organization{Name: "Again", UserID: "u1"}), ErrDuplicate)

	dept := &models.Department{
		DepartmentName:    "Engineering",
		HODName:           "Hana",
		HODEmail:          "hana@acme.io",
		Role:              "CTO",
		DepartmentDetails: "builds things",
		OrganizationID:    org.ID,
		UserID:            "u1",
		Subfunctions:      []models.Subfunction{{ID: "s1", Name: "Backend"}, {ID: "s2", Name: "Frontend"}},
	}
	require.NoError(t, db.CreateDepartment(ctx, dept))

	got, err := db.GetDepartment(ctx, dept.ID)
	require.NoError(t, err)
	assert.Equal(t, dept.Subfunctions, got.Subfunctions)

	_, err = db.GetDepartment(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)

	lead := &models.TeamMember{
		Name: "A", Email: "a@acme.io", Role: models.RoleTeamLead, ReportTo: "Hana",
		OrganizationID: org.ID, UserID: "u1", DepartmentID: dept.ID, SubfunctionID: "s1",
	}
	require.NoError(t, db.CreateTeamMember(ctx, lead))

	dup := *lead
	dup.ID = ""
	dup.Name = "B"
	assert.ErrorIs(t, db.CreateTeamMember(ctx, &dup), ErrDuplicate)

	require.NoError(t, db.MarkTeamMemberInvited(ctx, "u1", lead.ID))
	require.NoError(t, db.MarkTeamMemberInvited(ctx, "u1", lead.ID))
	assert.ErrorIs(t, db.MarkTeamMemberInvited(ctx, "u2", lead.ID), ErrNotFound)

	members, err := db.ListTeamMembers(ctx, TeamMemberFilter{UserID: "u1", InvitedOnly: true})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.NotNil(t, members[0].InvitedAt)
}

func TestPostgresConcurrentLeadsRejected(t *testing.T) {
	ctx := context.Background()
	db := startPostgres(t)

	org := &models.Organization{Name: "Acme", UserID: "u1"}
	require.NoError(t, db.CreateOrganization(ctx, org))
	dept := &models.Department{DepartmentName: "Ops", OrganizationID: org.ID, UserID: "u1",
		Subfunctions: []models.Subfunction{{ID: "s1", Name: "Infra"}}}
	require.NoError(t, db.CreateDepartment(ctx, dept))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := db.CreateTeamMember(ctx, &models.TeamMember{
				Name: fmt.Sprintf("m%d", i), Role: models.RoleTeamLead, OrganizationID: org.ID,
				UserID: "u1", DepartmentID: dept.ID, SubfunctionID: "s1",
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}
