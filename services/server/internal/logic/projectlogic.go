package logic

import (
	"context"
	"fmt"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type ProjectLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewProjectLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ProjectLogic {
	return &ProjectLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ProjectLogic) List(req *types.ProjectListRequest) ([]types.Project, error) {
	list, err := l.svcCtx.Org.ListProjects(l.ctx, req.RegionId)
	if err != nil {
		return nil, err
	}
	out := make([]types.Project, 0, len(list))
	for _, x := range list {
		out = append(out, *toProject(x))
	}
	return out, nil
}

func (l *ProjectLogic) Get(req *types.IdPath) (*types.Project, error) {
	x, err := l.svcCtx.Org.GetProject(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return toProject(x), nil
}

func (l *ProjectLogic) Create(req *types.ProjectRequest) (*types.Project, error) {
	x, err := l.svcCtx.Org.CreateProject(l.ctx, req.Name, req.RegionId)
	if err != nil {
		return nil, err
	}
	return toProject(x), nil
}

func (l *ProjectLogic) Update(req *types.ProjectRequest) (*types.Project, error) {
	x, err := l.svcCtx.Org.UpdateProject(l.ctx, req.Id, req.Name, req.RegionId)
	if err != nil {
		return nil, err
	}
	return toProject(x), nil
}

func (l *ProjectLogic) Delete(req *types.IdPath) (*types.MessageResponse, error) {
	if err := l.svcCtx.Org.DeleteProject(l.ctx, req.Id); err != nil {
		return nil, err
	}
	return &types.MessageResponse{Message: fmt.Sprintf("project %d deleted", req.Id)}, nil
}
