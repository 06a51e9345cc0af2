package logic

import (
	"context"

	usersvc "github.com/cuihairu/faultline/internal/service/users"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type UserUpdateLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUserUpdateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UserUpdateLogic {
	return &UserUpdateLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UserUpdateLogic) UserUpdate(req *types.UserUpdateRequest) (*types.User, error) {
	u, err := l.svcCtx.Users.Update(l.ctx, req.Id, usersvc.UpdateInput{
		Username:      req.Username,
		Name:          req.Name,
		Role:          req.Role,
		ChiefdomID:    req.ChiefdomId,
		ClearChiefdom: req.ClearChiefdom,
		Email:         req.Email,
		Phone:         req.Phone,
	})
	if err != nil {
		return nil, err
	}
	l.svcCtx.AuditEvent(l.ctx, "user.update", "", userTarget(u.ID), map[string]string{"role": u.Role})
	return toUser(u), nil
}
