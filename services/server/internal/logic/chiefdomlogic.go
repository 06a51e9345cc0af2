package logic

import (
	"context"
	"fmt"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type ChiefdomLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewChiefdomLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChiefdomLogic {
	return &ChiefdomLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ChiefdomLogic) List(req *types.ChiefdomListRequest) ([]types.Chiefdom, error) {
	list, err := l.svcCtx.Org.ListChiefdoms(l.ctx, req.ProjectId)
	if err != nil {
		return nil, err
	}
	out := make([]types.Chiefdom, 0, len(list))
	for _, x := range list {
		out = append(out, *toChiefdom(x))
	}
	return out, nil
}

func (l *ChiefdomLogic) Get(req *types.IdPath) (*types.Chiefdom, error) {
	x, err := l.svcCtx.Org.GetChiefdom(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return toChiefdom(x), nil
}

func (l *ChiefdomLogic) Create(req *types.ChiefdomRequest) (*types.Chiefdom, error) {
	x, err := l.svcCtx.Org.CreateChiefdom(l.ctx, req.Name, req.ProjectId)
	if err != nil {
		return nil, err
	}
	return toChiefdom(x), nil
}

func (l *ChiefdomLogic) Update(req *types.ChiefdomRequest) (*types.Chiefdom, error) {
	x, err := l.svcCtx.Org.UpdateChiefdom(l.ctx, req.Id, req.Name, req.ProjectId)
	if err != nil {
		return nil, err
	}
	return toChiefdom(x), nil
}

func (l *ChiefdomLogic) Delete(req *types.IdPath) (*types.MessageResponse, error) {
	if err := l.svcCtx.Org.DeleteChiefdom(l.ctx, req.Id); err != nil {
		return nil, err
	}
	return &types.MessageResponse{Message: fmt.Sprintf("chiefdom %d deleted", req.Id)}, nil
}
