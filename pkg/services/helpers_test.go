package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/logger"
	"orgchart-backend/pkg/metrics"
	"orgchart-backend/pkg/models"

	"github.com/stretchr/testify/require"
)

type fakePictures struct {
	mu       sync.Mutex
	prefixes []string
	err      error
}

func (f *fakePictures) SavePicture(ctx context.Context, prefix string, raw []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefix)
	return "https://cdn.example/" + prefix + "/pic.jpg", nil
}

func newTestService(t *testing.T) (*Service, *database.LocalDatabase, *fakePictures) {
	t.Helper()
	db := database.NewMemoryDatabase()
	pics := &fakePictures{}
	svc := New(db,
		WithPictures(pics),
		WithMetrics(metrics.New()),
		WithLogger(logger.Discard()),
	)
	return svc, db, pics
}

func validOrganization() OrganizationInput {
	return OrganizationInput{
		Name:             "Acme",
		CEOName:          "Ada",
		Email:            "ceo@acme.io",
		Industry:         "Software",
		CompanySize:      "11-50",
		City:             "Berlin",
		Country:          "Germany",
		YearFounded:      "2015",
		OrganizationType: "Private",
		NumberOfOffices:  "2",
		HRToolsUsed:      "None",
		HiringLevel:      "Mid",
		WorkModel:        "Hybrid",
	}
}

// seedDepartment creates an organization and an "Eng" department with the given subfunctions.
func seedDepartment(t *testing.T, svc *Service, userID string, subfunctions string) *models.Department {
	t.Helper()
	ctx := context.Background()
	_, err := svc.CreateOrganization(ctx, userID, validOrganization())
	require.NoError(t, err)

	dept, err := svc.CreateDepartment(ctx, userID, DepartmentInput{
		DepartmentName: "Eng",
		HODName:        "Hana",
		HODEmail:       "hana@acme.io",
		Role:           "CTO",
		Subfunctions:   subfunctions,
	})
	require.NoError(t, err)
	return dept
}

func intPtr(i int) *int { return &i }

// racingDB inserts a competing lead right before the first team member write,
// the way a second instance without a shared lock would.
type racingDB struct {
	*database.LocalDatabase
	once sync.Once
}

func (r *racingDB) CreateTeamMember(ctx context.Context, tm *models.TeamMember) error {
	var raceErr error
	r.once.Do(func() {
		racer := *tm
		racer.Name = "Racer"
		racer.Role = models.RoleTeamLead
		raceErr = r.LocalDatabase.CreateTeamMember(ctx, &racer)
	})
	if raceErr != nil {
		return raceErr
	}
	return r.LocalDatabase.CreateTeamMember(ctx, tm)
}

type failingDB struct {
	*database.LocalDatabase
}

var errBoom = errors.New("boom")

func (f *failingDB) MarkTeamMemberInvited(ctx context.Context, userID, id string) error {
	if id == "explode" {
		return errBoom
	}
	return f.LocalDatabase.MarkTeamMemberInvited(ctx, userID, id)
}

