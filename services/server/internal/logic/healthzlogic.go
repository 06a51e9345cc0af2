package logic

import (
	"context"
	"time"

	"github.com/cuihairu/faultline/internal/db"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type HealthzLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHealthzLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HealthzLogic {
	return &HealthzLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *HealthzLogic) Healthz() (*types.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(l.ctx, 2*time.Second)
	defer cancel()
	if err := db.Ping(ctx, l.svcCtx.DB); err != nil {
		l.Errorf("health check: %v", err)
		return &types.HealthResponse{Status: "degraded", Database: "unreachable"}, err
	}
	return &types.HealthResponse{Status: "ok", Database: "ok"}, nil
}
