package faults_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cuihairu/faultline/internal/db"
	"github.com/cuihairu/faultline/internal/errs"
	"github.com/cuihairu/faultline/internal/repo/gorm/faults"
	"github.com/cuihairu/faultline/internal/repo/gorm/org"
	"github.com/cuihairu/faultline/internal/repo/gorm/schema"
	usersgorm "github.com/cuihairu/faultline/internal/repo/gorm/users"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fixture struct {
	repo     *faults.Repo
	chiefdom uint
	user     uint
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	gdb, err := db.Open("file::memory:")
	require.NoError(t, err)
	require.NoError(t, schema.Migrate(gdb))
	c := &org.Chiefdom{Name: "Ankara"}
	require.NoError(t, org.NewRepo(gdb).CreateChiefdom(ctx, c))
	u := &usersgorm.UserAccount{Username: "eng", Role: "engineer"}
	require.NoError(t, usersgorm.New(gdb).CreateUser(ctx, u, "pw"))
	return fixture{repo: faults.NewRepo(gdb), chiefdom: c.ID, user: u.ID}
}

func (f fixture) create(t *testing.T, title string, urls ...string) *faults.Fault {
	t.Helper()
	flt := &faults.Fault{Title: title, Description: "d", Status: faults.StatusOpen, ReportedByID: f.user, ChiefdomID: f.chiefdom}
	act := &faults.Activity{ActorID: f.user, Action: "create", Changes: datatypes.JSON(`{}`)}
	require.NoError(t, f.repo.Create(context.Background(), flt, urls, act))
	return flt
}

func TestCreateGetAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "A", "/uploads/1-a.jpg", "/uploads/1-b.jpg")
	f.create(t, "B")

	got, err := f.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "Ankara", got.Chiefdom.Name)
	require.Equal(t, "eng", got.ReportedBy.Username)
	require.Len(t, got.Images, 2)
	require.Equal(t, "/uploads/1-a.jpg", got.Images[0].URL)

	list, err := f.repo.List(ctx, faults.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "B", list[0].Title, "newest first")

	list, err = f.repo.List(ctx, faults.Filter{Status: faults.StatusClosed})
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = f.repo.Get(ctx, 999)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateAppendsImagesAndActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "A")

	err := f.repo.Update(ctx, a.ID, map[string]any{"status": faults.StatusClosed, "solution": "fixed"},
		[]string{"/uploads/2-c.jpg"}, &faults.Activity{ActorID: f.user, Action: "close"})
	require.NoError(t, err)

	got, err := f.repo.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, faults.StatusClosed, got.Status)
	require.Equal(t, "fixed", got.Solution)
	require.Len(t, got.Images, 1)

	acts, err := f.repo.ListActivity(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	require.Equal(t, "close", acts[1].Action)

	err = f.repo.Update(ctx, 999, map[string]any{"title": "x"}, nil, nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteRollsBackWhenCallbackFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "A", "/uploads/1-a.jpg")

	boom := errors.New("disk gone")
	err := f.repo.Delete(ctx, a.ID, func(imgs []faults.Image) error {
		require.Len(t, imgs, 1)
		return boom
	})
	require.Error(t, err)
	_, err = f.repo.Get(ctx, a.ID)
	require.NoError(t, err, "fault must survive a failed delete")

	var removed []faults.Image
	require.NoError(t, f.repo.Delete(ctx, a.ID, func(imgs []faults.Image) error {
		removed = imgs
		return nil
	}))
	require.Len(t, removed, 1)
	_, err = f.repo.Get(ctx, a.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	urls, err := f.repo.ImageURLs(ctx)
	require.NoError(t, err)
	require.Empty(t, urls)
}

func TestDeleteImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "A", "/uploads/1-a.jpg", "/uploads/1-b.jpg")
	got, err := f.repo.Get(ctx, a.ID)
	require.NoError(t, err)

	img, err := f.repo.GetImage(ctx, got.Images[0].ID)
	require.NoError(t, err)
	require.NoError(t, f.repo.DeleteImage(ctx, img.ID, &faults.Activity{ActorID: f.user, Action: "image_delete"}, nil))

	urls, err := f.repo.ImageURLs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"/uploads/1-b.jpg"}, urls)

	err = f.repo.DeleteImage(ctx, img.ID, nil, nil)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCheckReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repo.CheckReferences(ctx, f.chiefdom, f.user, 0))
	require.ErrorIs(t, f.repo.CheckReferences(ctx, 999), errs.ErrNotFound)
	require.ErrorIs(t, f.repo.CheckReferences(ctx, f.chiefdom, 999), errs.ErrNotFound)
}

// mockRepo backs the repo with sqlmock to reach driver failures sqlite cannot produce.
func mockRepo(t *testing.T) (*faults.Repo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return faults.NewRepo(gdb), mock
}

func TestDriverErrorsAreInternal(t *testing.T) {
	repo, mock := mockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "url" FROM "fault_images"`)).
		WillReturnError(errors.New("connection reset by peer"))
	_, err := repo.ImageURLs(context.Background())
	require.ErrorIs(t, err, errs.ErrInternal)
	require.Equal(t, "internal error", errs.PublicMessage(err))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "chiefdoms"`)).
		WillReturnError(errors.New("too many connections"))
	require.ErrorIs(t, repo.CheckReferences(context.Background(), 1), errs.ErrInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingRowIsNotFound(t *testing.T) {
	repo, mock := mockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "faults"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))
	_, err := repo.Get(context.Background(), 5)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
