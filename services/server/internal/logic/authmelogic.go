package logic

import (
	"context"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type AuthMeLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAuthMeLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AuthMeLogic {
	return &AuthMeLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *AuthMeLogic) AuthMe() (*types.User, error) {
	id, ok := access.IdentityFrom(l.ctx)
	if !ok {
		return nil, errs.Unauthenticated()
	}
	u, err := l.svcCtx.Users.Get(l.ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return toUser(u), nil
}
