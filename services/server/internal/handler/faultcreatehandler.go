package handler

import (
	"net/http"

	"github.com/cuihairu/faultline/services/server/internal/logic"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func FaultCreateHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, release, err := readFaultPayload(w, r, svcCtx.Config.Images.MaxUploadBytes)
		defer release()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		payload.IdempotencyKey = r.Header.Get("Idempotency-Key")

		l := logic.NewFaultCreateLogic(r.Context(), svcCtx)
		resp, err := l.FaultCreate(payload)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusCreated, resp)
		}
	}
}
