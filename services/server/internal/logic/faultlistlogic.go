package logic

import (
	"context"

	"github.com/cuihairu/faultline/internal/access"
	faultsvc "github.com/cuihairu/faultline/internal/service/faults"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type FaultListLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFaultListLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FaultListLogic {
	return &FaultListLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *FaultListLogic) FaultList(req *types.FaultListRequest) ([]types.Fault, error) {
	view, err := access.ParseView(req.View)
	if err != nil {
		return nil, err
	}
	list, err := l.svcCtx.Faults.List(l.ctx, faultsvc.ListInput{
		View:         view,
		ChiefdomID:   optID(req.ChiefdomId),
		ReportedByID: optID(req.ReportedById),
		Status:       req.Status,
	})
	if err != nil {
		return nil, err
	}
	return toFaults(list), nil
}

func optID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
