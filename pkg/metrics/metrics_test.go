package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest(http.MethodGet, "/api/departments", 200, 15*time.Millisecond)
	m.RecordRequest(http.MethodGet, "/api/departments", 200, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/api/departments", "200")))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.TeamMemberCreated("Team Lead")
	m.TeamMemberCreated("Team Member")
	m.TeamMemberCreated("Team Member")
	m.Invitation("invited")
	m.Invitation("failed")
	m.TeamLeadConflict()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.teamMembersCreated.WithLabelValues("Team Lead")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.teamMembersCreated.WithLabelValues("Team Member")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invitations.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.teamLeadRetries))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("GET", "/", 200, time.Millisecond)
		m.TeamMemberCreated("Team Lead")
		m.Invitation("invited")
		m.PictureUploaded()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.PictureUploaded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orgchart_pictures_uploaded_total 1")
}
