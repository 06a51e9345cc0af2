package logic

import (
	"context"
	"fmt"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type UserDeleteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUserDeleteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UserDeleteLogic {
	return &UserDeleteLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UserDeleteLogic) UserDelete(req *types.IdPath) (*types.MessageResponse, error) {
	caller, ok := access.IdentityFrom(l.ctx)
	if !ok {
		return nil, errs.Unauthenticated()
	}
	if err := l.svcCtx.Users.Delete(l.ctx, caller, req.Id); err != nil {
		return nil, err
	}
	l.svcCtx.AuditEvent(l.ctx, "user.delete", "", userTarget(req.Id), nil)
	return &types.MessageResponse{Message: fmt.Sprintf("user %d deleted", req.Id)}, nil
}
