package logic

import (
	"context"
	"fmt"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type RegionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRegionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RegionLogic {
	return &RegionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RegionLogic) List() ([]types.Region, error) {
	list, err := l.svcCtx.Org.ListRegions(l.ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Region, 0, len(list))
	for _, x := range list {
		out = append(out, *toRegion(x))
	}
	return out, nil
}

func (l *RegionLogic) Get(req *types.IdPath) (*types.Region, error) {
	x, err := l.svcCtx.Org.GetRegion(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return toRegion(x), nil
}

func (l *RegionLogic) Create(req *types.RegionRequest) (*types.Region, error) {
	x, err := l.svcCtx.Org.CreateRegion(l.ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return toRegion(x), nil
}

func (l *RegionLogic) Update(req *types.RegionRequest) (*types.Region, error) {
	x, err := l.svcCtx.Org.UpdateRegion(l.ctx, req.Id, req.Name)
	if err != nil {
		return nil, err
	}
	return toRegion(x), nil
}

func (l *RegionLogic) Delete(req *types.IdPath) (*types.MessageResponse, error) {
	if err := l.svcCtx.Org.DeleteRegion(l.ctx, req.Id); err != nil {
		return nil, err
	}
	return &types.MessageResponse{Message: fmt.Sprintf("region %d deleted", req.Id)}, nil
}
