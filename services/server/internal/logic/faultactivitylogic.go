package logic

import (
	"context"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type FaultActivityLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFaultActivityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FaultActivityLogic {
	return &FaultActivityLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *FaultActivityLogic) FaultActivity(req *types.IdPath) ([]types.FaultActivity, error) {
	list, err := l.svcCtx.Faults.Activity(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	out := make([]types.FaultActivity, 0, len(list))
	for _, a := range list {
		out = append(out, toActivity(a))
	}
	return out, nil
}
