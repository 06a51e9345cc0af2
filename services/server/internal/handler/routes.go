package handler

import (
	"net/http"
	"time"

	"github.com/cuihairu/faultline/internal/auth/rbac"
	"github.com/cuihairu/faultline/services/server/internal/middleware"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/zeromicro/go-zero/rest"
)

// mutationGrace is added to the image timeout for fault writes so ingestion
// fails on its own deadline before the route times out.
const mutationGrace = 15 * time.Second

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	auth := middleware.NewAuthMiddleware(serverCtx)
	perm := func(resource, action string, h http.HandlerFunc) http.HandlerFunc {
		return auth.Handle(resource, action)(h)
	}

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/healthz",
				Handler: HealthzHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/uploads/:filename",
				Handler: UploadHandler(serverCtx),
			},
		},
	)

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/auth/login",
				Handler: AuthLoginHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/auth/me",
				Handler: auth.Authenticated(AuthMeHandler(serverCtx)),
			},
		},
		rest.WithPrefix("/api"),
	)

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/faults",
				Handler: perm(rbac.ResFaults, rbac.ActRead, FaultListHandler(serverCtx)),
			},
			{
				Method:  http.MethodGet,
				Path:    "/faults/export",
				Handler: perm(rbac.ResFaults, rbac.ActRead, FaultExportHandler(serverCtx)),
			},
			{
				Method:  http.MethodGet,
				Path:    "/faults/:id",
				Handler: perm(rbac.ResFaults, rbac.ActRead, FaultGetHandler(serverCtx)),
			},
			{
				Method:  http.MethodGet,
				Path:    "/faults/:id/activity",
				Handler: perm(rbac.ResFaults, rbac.ActRead, FaultActivityHandler(serverCtx)),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/faults/:id",
				Handler: perm(rbac.ResFaults, rbac.ActDelete, FaultDeleteHandler(serverCtx)),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/faults/images/:imageId",
				Handler: perm(rbac.ResImages, rbac.ActDelete, FaultImageDeleteHandler(serverCtx)),
			},
		},
		rest.WithPrefix("/api"),
	)

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/faults",
				Handler: perm(rbac.ResFaults, rbac.ActCreate, FaultCreateHandler(serverCtx)),
			},
			{
				Method:  http.MethodPut,
				Path:    "/faults/:id",
				Handler: perm(rbac.ResFaults, rbac.ActUpdate, FaultUpdateHandler(serverCtx)),
			},
		},
		rest.WithPrefix("/api"),
		rest.WithTimeout(serverCtx.Config.Images.Timeout+mutationGrace),
	)

	server.AddRoutes(orgRoutes(serverCtx, perm), rest.WithPrefix("/api"))

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/users",
				Handler: perm(rbac.ResUsers, rbac.ActRead, UserListHandler(serverCtx)),
			},
			{
				Method:  http.MethodGet,
				Path:    "/users/:id",
				Handler: perm(rbac.ResUsers, rbac.ActRead, UserGetHandler(serverCtx)),
			},
			{
				Method:  http.MethodPost,
				Path:    "/users",
				Handler: perm(rbac.ResUsers, rbac.ActCreate, UserCreateHandler(serverCtx)),
			},
			{
				Method:  http.MethodPut,
				Path:    "/users/:id",
				Handler: perm(rbac.ResUsers, rbac.ActUpdate, UserUpdateHandler(serverCtx)),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/users/:id",
				Handler: perm(rbac.ResUsers, rbac.ActDelete, UserDeleteHandler(serverCtx)),
			},
			{
				// self-service; the users service checks self or admin
				Method:  http.MethodPut,
				Path:    "/users/:id/password",
				Handler: auth.Authenticated(PasswordChangeHandler(serverCtx)),
			},
		},
		rest.WithPrefix("/api"),
	)
}

func orgRoutes(serverCtx *svc.ServiceContext, perm func(string, string, http.HandlerFunc) http.HandlerFunc) []rest.Route {
	type crud struct {
		path                              string
		list, get, create, update, delete http.HandlerFunc
	}
	sets := []crud{
		{"/regions", RegionListHandler(serverCtx), RegionGetHandler(serverCtx), RegionCreateHandler(serverCtx), RegionUpdateHandler(serverCtx), RegionDeleteHandler(serverCtx)},
		{"/projects", ProjectListHandler(serverCtx), ProjectGetHandler(serverCtx), ProjectCreateHandler(serverCtx), ProjectUpdateHandler(serverCtx), ProjectDeleteHandler(serverCtx)},
		{"/chiefdoms", ChiefdomListHandler(serverCtx), ChiefdomGetHandler(serverCtx), ChiefdomCreateHandler(serverCtx), ChiefdomUpdateHandler(serverCtx), ChiefdomDeleteHandler(serverCtx)},
	}
	var routes []rest.Route
	for _, s := range sets {
		routes = append(routes,
			rest.Route{Method: http.MethodGet, Path: s.path, Handler: perm(rbac.ResOrg, rbac.ActRead, s.list)},
			rest.Route{Method: http.MethodGet, Path: s.path + "/:id", Handler: perm(rbac.ResOrg, rbac.ActRead, s.get)},
			rest.Route{Method: http.MethodPost, Path: s.path, Handler: perm(rbac.ResOrg, rbac.ActCreate, s.create)},
			rest.Route{Method: http.MethodPut, Path: s.path + "/:id", Handler: perm(rbac.ResOrg, rbac.ActUpdate, s.update)},
			rest.Route{Method: http.MethodDelete, Path: s.path + "/:id", Handler: perm(rbac.ResOrg, rbac.ActDelete, s.delete)},
		)
	}
	return routes
}
