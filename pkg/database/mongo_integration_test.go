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

func startMongo(t *testing.T) *MongoDatabase {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	db, err := NewMongoDatabase(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()), "orgchart_test", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMongoSeqIsSharedAndMonotonic(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := db.nextSeq(ctx, teamMembersCollection)
			assert.NoError(t, err)
			mu.Lock()
			seen[seq] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, 16)
	for i := int64(1); i <= 16; i++ {
		assert.True(t, seen[i], "missing seq %d", i)
	}
}

func TestMongoTeamMembersListedInInsertOrder(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t)

	names := []string{"A", "B", "C", "D"}
	for i, name := range names {
		role := models.RoleTeamMember
		if i == 0 {
			role = models.RoleTeamLead
		}
		require.NoError(t, db.CreateTeamMember(ctx, &models.TeamMember{
			Name: name, Role: role, UserID: "u1", DepartmentID: "d1", SubfunctionID: "s1",
		}))
	}

	members, err := db.ListTeamMembers(ctx, TeamMemberFilter{DepartmentID: "d1", SubfunctionID: "s1"})
	require.NoError(t, err)
	require.Len(t, members, len(names))
	for i, m := range members {
		assert.Equal(t, names[i], m.Name)
	}

	second := &models.TeamMember{Name: "E", Role: models.RoleTeamLead, UserID: "u1", DepartmentID: "d1", SubfunctionID: "s1"}
	assert.ErrorIs(t, db.CreateTeamMember(ctx, second), ErrDuplicate)
}
