package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuihairu/faultline/internal/audit/chain"
	"github.com/cuihairu/faultline/internal/auth/rbac"
	"github.com/cuihairu/faultline/internal/events"
	"github.com/cuihairu/faultline/internal/platform/objstore"
	"github.com/cuihairu/faultline/internal/report"
	usersvc "github.com/cuihairu/faultline/internal/service/users"
	"github.com/cuihairu/faultline/services/server/internal/config"
	"github.com/cuihairu/faultline/services/server/internal/middleware"
	"github.com/cuihairu/faultline/services/server/internal/svc"
	"github.com/cuihairu/faultline/services/server/internal/types"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/zeromicro/go-zero/rest/httpx"
	"github.com/zeromicro/go-zero/rest/pathvar"
)

type harness struct {
	t        *testing.T
	ctx      *svc.ServiceContext
	auth     *middleware.AuthMiddleware
	uploads  string
	auditLog string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	httpx.SetErrorHandlerCtx(ErrorHandler)
	var c config.Config
	c.Database.DataSource = "file::memory:"
	c.Database.AutoMigrate = true
	c.Auth.JWTSecret = "test-secret"
	c.Storage = objstore.Config{Driver: objstore.DriverFile, BaseDir: filepath.Join(t.TempDir(), "uploads")}
	c.Events = events.Config{Driver: "noop"}
	c.Images.MaxUploadBytes = 20 << 20
	c.Audit.File = filepath.Join(t.TempDir(), "security.log")

	ctx, err := svc.NewServiceContext(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	return &harness{t: t, ctx: ctx, auth: middleware.NewAuthMiddleware(ctx), uploads: c.Storage.BaseDir, auditLog: c.Audit.File}
}

type call struct {
	method, target string
	body           io.Reader
	contentType    string
	token          string
	vars           map[string]string
	headers        map[string]string
}

func (h *harness) do(handler http.HandlerFunc, c call) *httptest.ResponseRecorder {
	r := httptest.NewRequest(c.method, c.target, c.body)
	if c.contentType != "" {
		r.Header.Set("Content-Type", c.contentType)
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		r.Header.Set(k, v)
	}
	if c.vars != nil {
		r = pathvar.WithVars(r, c.vars)
	}
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func (h *harness) login(username, password string) string {
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	w := h.do(AuthLoginHandler(h.ctx), call{method: http.MethodPost, target: "/api/auth/login",
		body: strings.NewReader(body), contentType: "application/json"})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var resp types.LoginResponse
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(h.t, resp.Token)
	return resp.Token
}

func (h *harness) user(username, role string, chiefdom *uint) {
	_, err := h.ctx.Users.Create(h.t.Context(), usersvc.CreateInput{
		Username: username, Password: username + "-pw", Role: role, ChiefdomID: chiefdom,
	})
	require.NoError(h.t, err)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, images int) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	pic := pngBytes(t, 64, 48)
	for i := 0; i < images; i++ {
		part, err := mw.CreateFormFile("images", fmt.Sprintf("photo%d.png", i))
		require.NoError(t, err)
		_, err = part.Write(pic)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestCreateThenCloseScenario(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	c, err := h.ctx.Org.CreateChiefdom(ctx, "Ankara", nil)
	require.NoError(t, err)
	h.user("admin", "admin", nil)
	tok := h.login("admin", "admin-pw")

	create := h.auth.Handle(rbac.ResFaults, rbac.ActCreate)(FaultCreateHandler(h.ctx))
	w := h.do(create, call{method: http.MethodPost, target: "/api/faults", token: tok, contentType: "application/json",
		body: strings.NewReader(fmt.Sprintf(`{"title":"A","description":"d","chiefdomId":%d}`, c.ID))})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[types.FaultMutationResponse](t, w)
	require.Equal(t, "open", created.Fault.Status)
	id := created.Fault.Id

	list := h.auth.Handle(rbac.ResFaults, rbac.ActRead)(FaultListHandler(h.ctx))
	w = h.do(list, call{method: http.MethodGet, target: fmt.Sprintf("/api/faults?chiefdomId=%d", c.ID), token: tok})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	faults := decode[[]types.Fault](t, w)
	require.Len(t, faults, 1)
	require.Equal(t, "open", faults[0].Status)
	require.NotNil(t, faults[0].ReportedBy)
	require.Equal(t, "admin", faults[0].ReportedBy.Username)

	body, ct := multipartBody(t, map[string]string{
		"status": "closed", "faultDate": "01.01.2025", "solution": "fixed",
	}, 1)
	update := h.auth.Handle(rbac.ResFaults, rbac.ActUpdate)(FaultUpdateHandler(h.ctx))
	w = h.do(update, call{method: http.MethodPut, target: fmt.Sprintf("/api/faults/%d", id), token: tok,
		body: body, contentType: ct, vars: map[string]string{"id": fmt.Sprint(id)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode[types.FaultMutationResponse](t, w)
	require.Equal(t, 1, closed.Ingested)
	require.Len(t, closed.Fault.Images, 1)

	get := h.auth.Handle(rbac.ResFaults, rbac.ActRead)(FaultGetHandler(h.ctx))
	w = h.do(get, call{method: http.MethodGet, target: fmt.Sprintf("/api/faults/%d", id), token: tok,
		vars: map[string]string{"id": fmt.Sprint(id)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f := decode[types.Fault](t, w)
	require.Equal(t, "closed", f.Status)
	require.Equal(t, "01.01.2025", f.FaultDate)
	require.Equal(t, "fixed", f.Solution)
	require.Equal(t, "A", f.Title)

	name := strings.TrimPrefix(f.Images[0].Url, objstore.PublicPrefix)
	w = h.do(UploadHandler(h.ctx), call{method: http.MethodGet, target: f.Images[0].Url,
		vars: map[string]string{"filename": name}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	del := h.auth.Handle(rbac.ResFaults, rbac.ActDelete)(FaultDeleteHandler(h.ctx))
	w = h.do(del, call{method: http.MethodDelete, target: fmt.Sprintf("/api/faults/%d", id), token: tok,
		vars: map[string]string{"id": fmt.Sprint(id)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, err = os.Stat(filepath.Join(h.uploads, name))
	require.True(t, os.IsNotExist(err), "stored image should be removed")

	w = h.do(list, call{method: http.MethodGet, target: "/api/faults", token: tok})
	require.Empty(t, decode[[]types.Fault](t, w))
}

func TestTooManyImagesRejected(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	c, err := h.ctx.Org.CreateChiefdom(ctx, "Konya", nil)
	require.NoError(t, err)
	h.user("admin", "admin", nil)
	tok := h.login("admin", "admin-pw")

	body, ct := multipartBody(t, map[string]string{
		"title": "B", "description": "d", "chiefdomId": fmt.Sprint(c.ID),
	}, 6)
	create := h.auth.Handle(rbac.ResFaults, rbac.ActCreate)(FaultCreateHandler(h.ctx))
	w := h.do(create, call{method: http.MethodPost, target: "/api/faults", token: tok, body: body, contentType: ct})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	e := decode[types.ErrorResponse](t, w)
	require.Equal(t, http.StatusBadRequest, e.Code)

	entries, _ := os.ReadDir(h.uploads)
	require.Empty(t, entries)
}

func TestAccessBoundaries(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	c1, err := h.ctx.Org.CreateChiefdom(ctx, "North", nil)
	require.NoError(t, err)
	c2, err := h.ctx.Org.CreateChiefdom(ctx, "South", nil)
	require.NoError(t, err)
	h.user("admin", "admin", nil)
	h.user("w1", "worker", &c1.ID)
	h.user("ctc", "ctc", nil)
	admin := h.login("admin", "admin-pw")

	create := h.auth.Handle(rbac.ResFaults, rbac.ActCreate)(FaultCreateHandler(h.ctx))
	for _, cid := range []uint{c1.ID, c2.ID} {
		w := h.do(create, call{method: http.MethodPost, target: "/api/faults", token: admin, contentType: "application/json",
			body: strings.NewReader(fmt.Sprintf(`{"title":"t","description":"d","chiefdomId":%d}`, cid))})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	list := h.auth.Handle(rbac.ResFaults, rbac.ActRead)(FaultListHandler(h.ctx))

	w := h.do(list, call{method: http.MethodGet, target: "/api/faults"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = h.do(list, call{method: http.MethodGet, target: "/api/faults", token: "garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	worker := h.login("w1", "w1-pw")
	w = h.do(list, call{method: http.MethodGet, target: fmt.Sprintf("/api/faults?chiefdomId=%d", c2.ID), token: worker})
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decode[[]types.Fault](t, w), "query must not widen a worker's scope")
	w = h.do(list, call{method: http.MethodGet, target: "/api/faults", token: worker})
	got := decode[[]types.Fault](t, w)
	require.Len(t, got, 1)
	require.Equal(t, c1.ID, got[0].ChiefdomId)

	w = h.do(create, call{method: http.MethodPost, target: "/api/faults", token: worker, contentType: "application/json",
		body: strings.NewReader(fmt.Sprintf(`{"title":"t","description":"d","chiefdomId":%d}`, c1.ID))})
	require.Equal(t, http.StatusForbidden, w.Code)

	ctc := h.login("ctc", "ctc-pw")
	w = h.do(list, call{method: http.MethodGet, target: "/api/faults", token: ctc})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(list, call{method: http.MethodGet, target: "/api/faults?view=sideways", token: admin})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newHarness(t)
	h.user("admin", "admin", nil)
	w := h.do(AuthLoginHandler(h.ctx), call{method: http.MethodPost, target: "/api/auth/login",
		body: strings.NewReader(`{"username":"admin","password":"nope"}`), contentType: "application/json"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	e := decode[types.ErrorResponse](t, w)
	require.Equal(t, "invalid credentials", e.Message)
	require.NotContains(t, w.Body.String(), "passwordHash")
}

func TestOrgDeleteWithDependents(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	r, err := h.ctx.Org.CreateRegion(ctx, "Central")
	require.NoError(t, err)
	_, err = h.ctx.Org.CreateProject(ctx, "Line", &r.ID)
	require.NoError(t, err)
	h.user("admin", "admin", nil)
	tok := h.login("admin", "admin-pw")

	del := h.auth.Handle(rbac.ResOrg, rbac.ActDelete)(RegionDeleteHandler(h.ctx))
	w := h.do(del, call{method: http.MethodDelete, target: fmt.Sprintf("/api/regions/%d", r.ID), token: tok,
		vars: map[string]string{"id": fmt.Sprint(r.ID)}})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	create := h.auth.Handle(rbac.ResOrg, rbac.ActCreate)(RegionCreateHandler(h.ctx))
	w = h.do(create, call{method: http.MethodPost, target: "/api/regions", token: tok, contentType: "application/json",
		body: strings.NewReader(`{"name":"East"}`)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, "East", decode[types.Region](t, w).Name)
}

func TestUsersNeverExposeHash(t *testing.T) {
	h := newHarness(t)
	h.user("admin", "admin", nil)
	tok := h.login("admin", "admin-pw")
	list := h.auth.Handle(rbac.ResUsers, rbac.ActRead)(UserListHandler(h.ctx))
	w := h.do(list, call{method: http.MethodGet, target: "/api/users", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, strings.ToLower(w.Body.String()), "hash")
	require.Len(t, decode[[]types.User](t, w), 1)
}

func TestIdempotentCreate(t *testing.T) {
	h := newHarness(t)
	c, err := h.ctx.Org.CreateChiefdom(t.Context(), "Ankara", nil)
	require.NoError(t, err)
	h.user("eng", "engineer", nil)
	tok := h.login("eng", "eng-pw")
	create := h.auth.Handle(rbac.ResFaults, rbac.ActCreate)(FaultCreateHandler(h.ctx))

	send := func(key, title string) *httptest.ResponseRecorder {
		return h.do(create, call{method: http.MethodPost, target: "/api/faults", token: tok,
			contentType: "application/json", headers: map[string]string{"Idempotency-Key": key},
			body: strings.NewReader(fmt.Sprintf(`{"title":%q,"description":"d","chiefdomId":%d}`, title, c.ID))})
	}
	w := send("retry-1", "A")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[types.FaultMutationResponse](t, w)

	w = send("retry-1", "A")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, first.Fault.Id, decode[types.FaultMutationResponse](t, w).Fault.Id)

	w = send("retry-1", "B")
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	list := h.auth.Handle(rbac.ResFaults, rbac.ActRead)(FaultListHandler(h.ctx))
	w = h.do(list, call{method: http.MethodGet, target: "/api/faults", token: tok})
	require.Len(t, decode[[]types.Fault](t, w), 1)
}

func TestIdempotentCreateComparesImageBytes(t *testing.T) {
	h := newHarness(t)
	c, err := h.ctx.Org.CreateChiefdom(t.Context(), "Ankara", nil)
	require.NoError(t, err)
	h.user("eng", "engineer", nil)
	tok := h.login("eng", "eng-pw")
	create := h.auth.Handle(rbac.ResFaults, rbac.ActCreate)(FaultCreateHandler(h.ctx))

	send := func(pic []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("title", "A"))
		require.NoError(t, mw.WriteField("description", "d"))
		require.NoError(t, mw.WriteField("chiefdomId", fmt.Sprint(c.ID)))
		part, err := mw.CreateFormFile("images", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(pic)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return h.do(create, call{method: http.MethodPost, target: "/api/faults", token: tok,
			contentType: mw.FormDataContentType(), headers: map[string]string{"Idempotency-Key": "upload-1"}, body: &buf})
	}
	w := send(pngBytes(t, 64, 48))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[types.FaultMutationResponse](t, w)
	require.Equal(t, 1, first.Ingested)

	w = send(pngBytes(t, 64, 48))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, first.Fault.Id, decode[types.FaultMutationResponse](t, w).Fault.Id)

	w = send(pngBytes(t, 32, 24))
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestSecurityEventsAreChained(t *testing.T) {
	h := newHarness(t)
	h.user("admin", "admin", nil)
	tok := h.login("admin", "admin-pw")

	login := AuthLoginHandler(h.ctx)
	w := h.do(login, call{method: http.MethodPost, target: "/api/auth/login", contentType: "application/json",
		body: strings.NewReader(`{"username":"admin","password":"nope"}`)})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	create := h.auth.Handle(rbac.ResUsers, rbac.ActCreate)(UserCreateHandler(h.ctx))
	w = h.do(create, call{method: http.MethodPost, target: "/api/users", token: tok, contentType: "application/json",
		body: strings.NewReader(`{"username":"eng","password":"pw-123","role":"engineer"}`)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	f, err := os.Open(h.auditLog)
	require.NoError(t, err)
	defer f.Close()
	n, err := chain.Verify(f)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	raw, err := os.ReadFile(h.auditLog)
	require.NoError(t, err)
	for _, kind := range []string{"auth.login", "auth.login_failed", "user.create"} {
		require.Contains(t, string(raw), `"kind":"`+kind+`"`)
	}
}

func TestExportRespectsScope(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()
	a, err := h.ctx.Org.CreateChiefdom(ctx, "Ankara", nil)
	require.NoError(t, err)
	b, err := h.ctx.Org.CreateChiefdom(ctx, "Konya", nil)
	require.NoError(t, err)
	h.user("eng", "engineer", nil)
	h.user("worker", "worker", &a.ID)
	eng := h.login("eng", "eng-pw")

	create := h.auth.Handle(rbac.ResFaults, rbac.ActCreate)(FaultCreateHandler(h.ctx))
	for _, c := range []uint{a.ID, b.ID} {
		w := h.do(create, call{method: http.MethodPost, target: "/api/faults", token: eng, contentType: "application/json",
			body: strings.NewReader(fmt.Sprintf(`{"title":"T%d","description":"d","chiefdomId":%d}`, c, c))})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	export := h.auth.Handle(rbac.ResFaults, rbac.ActRead)(FaultExportHandler(h.ctx))
	rows := func(tok string) [][]string {
		w := h.do(export, call{method: http.MethodGet, target: "/api/faults/export?view=active", token: tok})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Equal(t, report.ContentTypeXLSX, w.Header().Get("Content-Type"))
		require.Contains(t, w.Header().Get("Content-Disposition"), "faults-active-")
		f, err := excelize.OpenReader(w.Body)
		require.NoError(t, err)
		defer f.Close()
		out, err := f.GetRows("Faults")
		require.NoError(t, err)
		return out
	}
	require.Len(t, rows(eng), 3)
	workerRows := rows(h.login("worker", "worker-pw"))
	require.Len(t, workerRows, 2)
	require.Equal(t, "Ankara", workerRows[1][4])
}
