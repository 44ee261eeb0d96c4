package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubfunctions(t *testing.T) {
	subs, err := ParseSubfunctions(`[{"name":" Backend ","details":"APIs"},{"name":"Frontend"}]`)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Backend", subs[0].Name)
	assert.Equal(t, "APIs", subs[0].Details)
	assert.NotEmpty(t, subs[0].ID)
	assert.NotEqual(t, subs[0].ID, subs[1].ID)

	subs, err = ParseSubfunctions("")
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.NotNil(t, subs)
}

func TestParseSubfunctionsRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		msg  string
	}{
		{"malformed json", `[{"name":`, "Invalid subfunctions format."},
		{"not an array", `{"name":"x"}`, "Invalid subfunctions format."},
		{"missing name", `[{"details":"x"}]`, "Invalid subfunctions format."},
		{"empty name", `[{"name":"   "}]`, "Subfunction names must not be empty."},
		{"duplicate after trim", `[{"name":"Ops"},{"name":" Ops "}]`, "Subfunction names must be unique within the department."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubfunctions(tt.raw)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

// Creation fails exactly when some trimmed name is empty or repeated.
func TestParseSubfunctionsProperty(t *testing.T) {
	pool := []string{"Ops", " Ops", "ops", "", "  ", "Sales", "Sales ", "QA"}

	// every list of up to three names drawn from pool
	var lists [][]string
	var walk func(prefix []string)
	walk = func(prefix []string) {
		lists = append(lists, append([]string(nil), prefix...))
		if len(prefix) == 3 {
			return
		}
		for _, n := range pool {
			walk(append(prefix, n))
		}
	}
	walk(nil)

	for _, names := range lists {
		wantFail := false
		seen := map[string]bool{}
		parts := make([]string, 0, len(names))
		for _, n := range names {
			trimmed := strings.TrimSpace(n)
			if trimmed == "" || seen[trimmed] {
				wantFail = true
			}
			seen[trimmed] = true
			parts = append(parts, fmt.Sprintf(`{"name":%q}`, n))
		}
		raw := "[" + strings.Join(parts, ",") + "]"

		_, err := ParseSubfunctions(raw)
		assert.Equal(t, wantFail, err != nil, "names %q", names)
	}
}

func TestCreateDepartment(t *testing.T) {
	svc, _, pics := newTestService(t)
	ctx := context.Background()
	org, err := svc.CreateOrganization(ctx, "u1", validOrganization())
	require.NoError(t, err)

	dept, err := svc.CreateDepartment(ctx, "u1", DepartmentInput{
		DepartmentName:    " Eng ",
		HODName:           "Hana",
		HODEmail:          "hana@acme.io",
		Role:              "CTO",
		DepartmentDetails: "Builds product",
		Subfunctions:      `[{"name":"Backend"},{"name":"Frontend"}]`,
		HODPic:            []byte("jpeg"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Eng", dept.DepartmentName)
	assert.Equal(t, org.ID, dept.OrganizationID)
	assert.Equal(t, "u1", dept.UserID)
	assert.Len(t, dept.Subfunctions, 2)
	assert.Contains(t, dept.HODPic, "/departments/")
	assert.Contains(t, pics.prefixes, "departments")
}

func TestCreateDepartmentRequiresFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateDepartment(context.Background(), "u1", DepartmentInput{DepartmentName: "Eng", HODName: "Hana"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "All required fields are required.", err.Error())
}

func TestCreateDepartmentWithoutOrganization(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateDepartment(context.Background(), "u1", DepartmentInput{
		DepartmentName: "Eng", HODName: "Hana", HODEmail: "h@a.io", Role: "CTO",
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Organization not found for the user.", err.Error())
}

func TestCreateDepartmentDuplicateName(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedDepartment(t, svc, "u1", "")

	_, err := svc.CreateDepartment(context.Background(), "u1", DepartmentInput{
		DepartmentName: "Eng", HODName: "Other", HODEmail: "o@a.io", Role: "VP",
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "Department with this name already exists")
}

func TestDepartmentsAreScopedToCaller(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mine := seedDepartment(t, svc, "u1", "")
	theirs := seedDepartment(t, svc, "u2", "")

	list, err := svc.ListDepartments(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	// guessing another user's organization id leaks nothing
	list, err = svc.ListDepartments(ctx, "u1", theirs.OrganizationID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.GetDepartment(ctx, "u1", theirs.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}
