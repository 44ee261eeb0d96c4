package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"orgchart-backend/pkg/models"
	"orgchart-backend/pkg/utils"
)

// ContextKey 用于在context中存储用户信息的键
type ContextKey string

const (
	UserContextKey ContextKey = "user"
)

var errUnauthenticated = errors.New("user not authenticated")

// TokenValidator turns a bearer token into the calling user.
type TokenValidator interface {
	ExtractUserFromToken(tokenString string) (*models.User, error)
}

// AuthMiddleware JWT认证中间件；任何失败都返回 401 {"message":"Unauthorized"}
func AuthMiddleware(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Debug("auth: missing or malformed authorization header", "path", r.URL.Path)
				utils.WriteUnauthorizedResponse(w, "Unauthorized")
				return
			}

			user, err := validator.ExtractUserFromToken(tokenString)
			if err != nil {
				log.Debug("auth: token rejected", "path", r.URL.Path, "error", err)
				utils.WriteUnauthorizedResponse(w, "Unauthorized")
				return
			}

			setRequestUser(r.Context(), user.ID)
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUser 把用户放入 context（测试和内部调用使用）
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUserFromContext 从context中获取用户信息
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// RequireUser 要求用户必须已认证的辅助函数
func RequireUser(ctx context.Context) (*models.User, error) {
	user, ok := GetUserFromContext(ctx)
	if !ok || user == nil || user.ID == "" {
		return nil, errUnauthenticated
	}
	return user, nil
}
