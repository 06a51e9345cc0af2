package handler

import (
	"net/http"

	"github.com/cuihairu/faultline/services/server/internal/logic"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func ChiefdomCreateHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChiefdomRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, badRequest(err))
			return
		}

		l := logic.NewChiefdomLogic(r.Context(), svcCtx)
		resp, err := l.Create(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusCreated, resp)
		}
	}
}
