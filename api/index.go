package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"orgchart-backend/pkg/app"
	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/logger"
	"orgchart-backend/pkg/utils"
)

// 冷启动时创建一次，热调用之间复用；创建失败时下次请求重试
var (
	cached   *app.App
	cachedMu sync.Mutex
)

// Handler 是Vercel函数的入口点
// 所有API端点集中在一个Chi路由器中管理
func Handler(w http.ResponseWriter, r *http.Request) {
	a, err := instance(r.Context())
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}
	a.Router.ServeHTTP(w, r)
}

func instance(ctx context.Context) (*app.App, error) {
	cachedMu.Lock()
	defer cachedMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	cfg := config.GetCached()
	log := logger.New("orgchart-api", cfg)

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	a, err := app.New(initCtx, cfg, log)
	if err != nil {
		log.Error("failed to initialise application", "error", err)
		return nil, err
	}
	cached = a
	return a, nil
}
