package router

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/database"
	"orgchart-backend/pkg/logger"
	"orgchart-backend/pkg/metrics"
	"orgchart-backend/pkg/models"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/storage"
	"orgchart-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type testServer struct {
	t       *testing.T
	handler http.Handler
	jwt     *utils.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Environment:    "test",
		Port:           "3000",
		JWTSecret:      testSecret,
		MaxUploadBytes: 1 << 20,
		PictureMaxSize: 64,
		AllowedOrigins: []string{"*"},
	}

	dir := t.TempDir()
	uploader, err := storage.NewLocalUploader(dir, "http://localhost"+storage.LocalURLPrefix)
	require.NoError(t, err)
	pictures := storage.NewPictureStore(uploader, cfg.PictureMaxSize)

	m := metrics.New()
	svc := services.New(database.NewMemoryDatabase(),
		services.WithPictures(pictures),
		services.WithMetrics(m),
		services.WithLogger(logger.Discard()),
	)

	jwtSvc := utils.NewJWTService(testSecret)
	return &testServer{
		t:   t,
		jwt: jwtSvc,
		handler: NewRouter(Deps{
			Config:    cfg,
			Service:   svc,
			Auth:      jwtSvc,
			Metrics:   m,
			Logger:    logger.Discard(),
			UploadDir: pictures.LocalDir(),
		}),
	}
}

func (s *testServer) token(userID string) string {
	tok, _, err := s.jwt.GenerateAccessToken(userID, "", time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(userID, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(userID))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) json(userID, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(data)
	}
	return s.do(userID, method, path, "application/json", body)
}

func (s *testServer) multipart(userID, path string, fields map[string]string, fileField string, file []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile(fileField, "pic.png")
		require.NoError(s.t, err)
		_, err = fw.Write(file)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())
	return s.do(userID, http.MethodPost, path, mw.FormDataContentType(), &buf)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 80))
	for x := 0; x < 120; x++ {
		for y := 0; y < 80; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func organizationForm() map[string]string {
	return map[string]string{
		"name":             "Acme",
		"ceoName":          "Ada",
		"email":            "ceo@acme.io",
		"industry":         "Software",
		"companySize":      "11-50",
		"city":             "Berlin",
		"country":          "Germany",
		"yearFounded":      "2015",
		"organizationType": "Private",
		"numberOfOffices":  "2",
		"hrToolsUsed":      "None",
		"hiringLevel":      "Mid",
		"workModel":        "Hybrid",
	}
}

func departmentForm() map[string]string {
	return map[string]string{
		"departmentName":    "Engineering",
		"hodName":           "Hana",
		"hodEmail":          "hana@acme.io",
		"role":              "CTO",
		"departmentDetails": "builds things",
		"subfunctions":      `[{"name":"Backend"},{"name":"Frontend"}]`,
	}
}

func TestRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/organization", "/api/departments", "/api/teammembers", "/api/chart"} {
		rec := s.do("", http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		var body utils.APIError
		decode(t, rec, &body)
		assert.Equal(t, "Unauthorized", body.Message)
	}
}

func TestOrganizationEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("u1", http.MethodGet, "/api/organization", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.multipart("u1", "/api/organization", organizationForm(), "ceoPic", pngBytes(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Organization models.Organization `json:"organization"`
		Message      string              `json:"message"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "Acme", created.Organization.Name)
	assert.Equal(t, "Berlin, Germany", created.Organization.Location)
	require.True(t, strings.HasPrefix(created.Organization.CEOPic, "http://localhost/uploads/organizations/"), created.Organization.CEOPic)

	// the stored picture is served back as a JPEG
	picPath := strings.TrimPrefix(created.Organization.CEOPic, "http://localhost")
	rec = s.do("", http.MethodGet, picPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, format, err := image.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	rec = s.multipart("u1", "/api/organization", organizationForm(), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var conflict utils.APIError
	decode(t, rec, &conflict)
	assert.Equal(t, "User already has an organization", conflict.Message)
	assert.Equal(t, utils.CodeConflict, conflict.Code)

	rec = s.json("u1", http.MethodPut, "/api/organization", map[string]string{"name": "Acme GmbH"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Acme GmbH"`)

	rec = s.do("u1", http.MethodGet, "/api/organization", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Organization
	decode(t, rec, &got)
	assert.Equal(t, created.Organization.ID, got.ID)
	assert.Equal(t, "Acme GmbH", got.Name)
}

func TestCreateOrganizationValidation(t *testing.T) {
	s := newTestServer(t)

	form := organizationForm()
	delete(form, "ceoName")
	rec := s.multipart("u1", "/api/organization", form, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body utils.APIError
	decode(t, rec, &body)
	assert.Equal(t, utils.CodeValidationError, body.Code)

	rec = s.multipart("u1", "/api/organization", organizationForm(), "ceoPic", []byte("not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid image")
}

func TestOrgChartFlow(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.multipart("u1", "/api/organization", organizationForm(), "", nil).Code)

	rec := s.multipart("u1", "/api/departments", departmentForm(), "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var deptResp struct {
		Department models.Department `json:"department"`
		Message    string            `json:"message"`
	}
	decode(t, rec, &deptResp)
	dept := deptResp.Department
	assert.Equal(t, "Department created successfully", deptResp.Message)
	require.Len(t, dept.Subfunctions, 2)
	assert.NotEmpty(t, dept.Subfunctions[0].ID)

	rec = s.multipart("u1", "/api/departments", departmentForm(), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Department with this name already exists")

	bad := departmentForm()
	bad["departmentName"] = "Ops"
	bad["subfunctions"] = "{nope"
	rec = s.multipart("u1", "/api/departments", bad, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid subfunctions format.")

	addMember := func(name string, index int) models.TeamMember {
		rec := s.json("u1", http.MethodPost, "/api/teammembers", map[string]interface{}{
			"name": name, "email": name + "@acme.io", "departmentId": dept.ID, "subfunctionIndex": index,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp struct {
			TeamMember models.TeamMember `json:"teammember"`
			Message    string            `json:"message"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, "Team member added", resp.Message)
		return resp.TeamMember
	}

	a := addMember("A", 0)
	assert.Equal(t, models.RoleTeamLead, a.Role)
	assert.Equal(t, "Hana", a.ReportTo)
	b := addMember("B", 0)
	assert.Equal(t, models.RoleTeamMember, b.Role)
	assert.Equal(t, "A", b.ReportTo)
	c := addMember("C", 1)
	assert.Equal(t, models.RoleTeamLead, c.Role)

	rec = s.json("u1", http.MethodPost, "/api/teammembers", map[string]interface{}{
		"name": "D", "email": "d@acme.io", "departmentId": dept.ID, "subfunctionIndex": 5,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Subfunction not found")

	rec = s.json("u1", http.MethodPost, "/api/teammembers", map[string]interface{}{"name": "D"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing fields")

	rec = s.do("u1", http.MethodGet, "/api/teammembers?departmentId="+dept.ID+"&subfunctionIndex=0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var members []models.TeamMember
	decode(t, rec, &members)
	require.Len(t, members, 2)
	assert.Equal(t, "A", members[0].Name)

	rec = s.do("u1", http.MethodGet, "/api/teammembers?subfunctionIndex=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.json("u1", http.MethodPost, "/api/teammembers/invite", map[string]interface{}{
		"teammemberIds": []string{a.ID, "nope"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var invite models.InviteResult
	decode(t, rec, &invite)
	assert.Equal(t, []string{a.ID}, invite.Invited)
	assert.Equal(t, []models.InviteFailure{{ID: "nope", Message: "Team member not found"}}, invite.Failed)

	rec = s.json("u1", http.MethodPost, "/api/teammembers/invite", map[string]interface{}{"teammemberIds": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do("u1", http.MethodGet, "/api/chart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var chart models.Chart
	decode(t, rec, &chart)
	require.Len(t, chart.Departments, 1)
	require.NotNil(t, chart.Departments[0].Subfunctions[0].Lead)
	assert.Equal(t, "A", chart.Departments[0].Subfunctions[0].Lead.Name)
	assert.Empty(t, chart.Departments[0].Subfunctions[0].Members)
	assert.Nil(t, chart.Departments[0].Subfunctions[1].Lead)

	rec = s.do("u1", http.MethodDelete, "/api/teammembers/"+b.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":true`)
	rec = s.do("u1", http.MethodDelete, "/api/teammembers/"+b.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do("u1", http.MethodGet, "/api/departments/all", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var departments []models.Department
	decode(t, rec, &departments)
	assert.Len(t, departments, 1)

	rec = s.do("u1", http.MethodGet, "/api/departments?organizationId="+dept.OrganizationID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &departments)
	assert.Len(t, departments, 1)

	rec = s.do("u1", http.MethodGet, "/api/departments/"+dept.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do("u2", http.MethodGet, "/api/departments/"+dept.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do("", http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `orgchart_team_members_created_total{role="Team Lead"} 2`)
}

func TestOtherUsersSeeNothing(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.multipart("u1", "/api/organization", organizationForm(), "", nil).Code)
	require.Equal(t, http.StatusCreated, s.multipart("u1", "/api/departments", departmentForm(), "", nil).Code)

	rec := s.do("u2", http.MethodGet, "/api/departments/all", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do("u2", http.MethodGet, "/api/chart", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndFallbackRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("", http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"db_status":"healthy"`)

	rec = s.do("u1", http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do("u1", http.MethodPatch, "/api/chart", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
