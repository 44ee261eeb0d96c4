package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/logger"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorMapsKinds(t *testing.T) {
	b := newBase(&config.Config{Environment: "development"}, nil, logger.Discard())

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", services.ValidationError("Missing fields"), http.StatusBadRequest, utils.CodeValidationError, "Missing fields"},
		{"not found", services.NotFoundError("Department not found"), http.StatusNotFound, utils.CodeNotFound, "Department not found"},
		{"conflict", services.ConflictError("User already has an organization", errors.New("dup key")), http.StatusBadRequest, utils.CodeConflict, "User already has an organization"},
		{"unauthorized", services.UnauthorizedError("Unauthorized"), http.StatusUnauthorized, utils.CodeUnauthorized, "Unauthorized"},
		{"internal", services.InternalError(errors.New("connection refused")), http.StatusInternalServerError, utils.CodeInternalError, "connection refused"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, utils.CodeInternalError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			b.writeError(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body utils.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestWriteErrorRedactsInternalInProduction(t *testing.T) {
	b := newBase(&config.Config{Environment: "production"}, nil, logger.Discard())
	rec := httptest.NewRecorder()
	b.writeError(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), services.InternalError(errors.New("pq: password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), redactedInternalMessage)
	assert.NotContains(t, rec.Body.String(), "password")

	// caller-facing kinds are never redacted
	rec = httptest.NewRecorder()
	b.writeError(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), services.NotFoundError("Team member not found"))
	assert.Contains(t, rec.Body.String(), "Team member not found")
}

func uploadRequest(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Acme"))
	if data != nil {
		fw, err := mw.CreateFormFile(field, "pic.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/organization", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, parseForm(req))
	return req
}

func TestReadUpload(t *testing.T) {
	data, err := readUpload(uploadRequest(t, "ceoPic", nil), "ceoPic", 16)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = readUpload(uploadRequest(t, "ceoPic", []byte("0123456789")), "ceoPic", 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), data)

	_, err = readUpload(uploadRequest(t, "ceoPic", bytes.Repeat([]byte("x"), 17)), "ceoPic", 16)
	assert.Equal(t, services.KindValidation, services.KindOf(err))
}

func TestParseFormRejectsOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", string(bytes.Repeat([]byte("a"), 4096))))
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/organization", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Body = http.MaxBytesReader(rec, req.Body, 512)

	err := parseForm(req)
	require.Error(t, err)
	assert.Equal(t, services.KindValidation, services.KindOf(err))
}
