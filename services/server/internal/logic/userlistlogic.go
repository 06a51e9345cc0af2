package logic

import (
	"context"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type UserListLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUserListLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UserListLogic {
	return &UserListLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UserListLogic) UserList(req *types.UserListRequest) ([]types.User, error) {
	list, err := l.svcCtx.Users.List(l.ctx, req.Role, req.ChiefdomId)
	if err != nil {
		return nil, err
	}
	out := make([]types.User, 0, len(list))
	for _, u := range list {
		out = append(out, *toUser(u))
	}
	return out, nil
}
