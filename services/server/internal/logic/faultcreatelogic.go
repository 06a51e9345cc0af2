package logic

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cuihairu/faultline/internal/access"
	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/internal/repo/gorm/idempotency"

	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type FaultCreateLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFaultCreateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FaultCreateLogic {
	return &FaultCreateLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

const createRoute = "fault.create"

// FaultCreate files a fault. With an Idempotency-Key a repeated request gets
// the first response back and creates nothing.
func (l *FaultCreateLogic) FaultCreate(p FaultPayload) (*types.FaultMutationResponse, error) {
	if p.IdempotencyKey == "" {
		return l.create(p)
	}
	caller, ok := access.IdentityFrom(l.ctx)
	if !ok {
		return nil, errs.Unauthenticated()
	}
	hash, err := p.fingerprint()
	if err != nil {
		return nil, err
	}
	rec, err := l.svcCtx.Idempotency.Lookup(l.ctx, caller.UserID, p.IdempotencyKey, createRoute, hash)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		var resp types.FaultMutationResponse
		if err := json.Unmarshal([]byte(rec.ResponseBody), &resp); err != nil {
			return nil, errs.Internal(err)
		}
		l.Infof("replayed create for key %q: fault %d", p.IdempotencyKey, resp.Fault.Id)
		return &resp, nil
	}
	resp, err := l.create(p)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, errs.Internal(err)
	}
	err = l.svcCtx.Idempotency.Save(l.ctx, &idempotency.Record{
		Key:          p.IdempotencyKey,
		UserID:       caller.UserID,
		Route:        createRoute,
		RequestHash:  hash,
		StatusCode:   http.StatusCreated,
		ResponseBody: string(body),
	})
	if err != nil {
		l.Errorf("record idempotency key %q: %v", p.IdempotencyKey, err)
	}
	return resp, nil
}

func (l *FaultCreateLogic) create(p FaultPayload) (*types.FaultMutationResponse, error) {
	in, err := createInput(p)
	if err != nil {
		return nil, err
	}
	out, err := l.svcCtx.Faults.Create(l.ctx, in)
	if err != nil {
		return nil, err
	}
	if failed := len(out.Images) - out.Ingested; failed > 0 {
		l.Infof("fault %d created with %d of %d images rejected", out.Fault.ID, failed, len(out.Images))
	}
	return toMutation(out), nil
}
