package logic

import (
	"context"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type FaultGetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFaultGetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FaultGetLogic {
	return &FaultGetLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *FaultGetLogic) FaultGet(req *types.IdPath) (*types.Fault, error) {
	f, err := l.svcCtx.Faults.Get(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	out := toFault(f)
	return &out, nil
}
