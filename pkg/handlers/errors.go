package handlers

import (
	"errors"
	"net/http"

	"orgchart-backend/pkg/services"
	"orgchart-backend/pkg/utils"
)

const redactedInternalMessage = "Internal server error occurred"

// writeError 把业务错误映射为 HTTP 响应
// 冲突沿用原前端的约定返回 400，code 区分为 CONFLICT
func (b *base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	message := err.Error()
	var se *services.Error
	if errors.As(err, &se) && se.Message != "" {
		message = se.Message
	}

	switch services.KindOf(err) {
	case services.KindValidation:
		utils.WriteValidationErrorResponse(w, message)
	case services.KindNotFound:
		utils.WriteNotFoundResponse(w, message)
	case services.KindConflict:
		utils.WriteErrorResponseWithCode(w, http.StatusBadRequest, utils.CodeConflict, message)
	case services.KindUnauthorized:
		utils.WriteUnauthorizedResponse(w, message)
	default:
		b.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		if b.config != nil && b.config.IsProduction() {
			utils.WriteInternalServerErrorResponse(w, redactedInternalMessage)
			return
		}
		utils.WriteInternalServerErrorResponse(w, err.Error())
	}
}
