package logic

import (
	"context"
	"fmt"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type FaultDeleteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFaultDeleteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FaultDeleteLogic {
	return &FaultDeleteLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *FaultDeleteLogic) FaultDelete(req *types.IdPath) (*types.MessageResponse, error) {
	if err := l.svcCtx.Faults.DeleteFault(l.ctx, req.Id); err != nil {
		return nil, err
	}
	return &types.MessageResponse{Message: fmt.Sprintf("fault %d deleted", req.Id)}, nil
}
