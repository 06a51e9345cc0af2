package handler

import (
	"net/http"

	"github.com/cuihairu/faultline/services/server/internal/logic"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func AuthMeHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewAuthMeLogic(r.Context(), svcCtx)
		resp, err := l.AuthMe()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
