package logic

import (
	"context"
	"fmt"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type FaultImageDeleteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFaultImageDeleteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FaultImageDeleteLogic {
	return &FaultImageDeleteLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *FaultImageDeleteLogic) FaultImageDelete(req *types.ImagePath) (*types.MessageResponse, error) {
	if err := l.svcCtx.Faults.DeleteFaultImage(l.ctx, req.ImageId); err != nil {
		return nil, err
	}
	return &types.MessageResponse{Message: fmt.Sprintf("image %d deleted", req.ImageId)}, nil
}
