// Package handlers exposes the org-chart operations over HTTP. Handlers decode
// the request, call the service and map its error kinds to status codes.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/middleware"
	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/utils"
)

// multipart 表单在内存中保留的上限，超出部分落盘
const multipartMemory = 8 << 20

// base 所有 handler 共享的依赖
type base struct {
	config *config.Config
	svc    *services.Service
	log    *slog.Logger
}

func newBase(cfg *config.Config, svc *services.Service, log *slog.Logger) base {
	if log == nil {
		log = slog.Default()
	}
	return base{config: cfg, svc: svc, log: log}
}

// userID 取出认证中间件放入的用户；缺失时写 401 并返回 false
func (b *base) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Unauthorized")
		return "", false
	}
	return user.ID, true
}

// parseForm accepts multipart and url-encoded bodies alike.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.ValidationError("Request body too large")
		}
		return services.ValidationError("Invalid form data")
	}
	return nil
}

// readUpload 读取可选的图片字段；未上传时返回 nil
func readUpload(r *http.Request, field string, maxBytes int64) ([]byte, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, services.ValidationError("Invalid " + field + " upload")
	}
	defer file.Close()

	tooLarge := services.ValidationError(fmt.Sprintf("%s must be at most %d bytes", field, maxBytes))
	if header.Size > maxBytes {
		return nil, tooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, services.InternalError(fmt.Errorf("read %s: %w", field, err))
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge
	}
	return data, nil
}
