package handler_test

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/video-share-backend/internal/config"
	"github.com/iliyamo/video-share-backend/internal/handler"
	"github.com/iliyamo/video-share-backend/internal/model"
	"github.com/iliyamo/video-share-backend/internal/queue"
	"github.com/iliyamo/video-share-backend/internal/repository"
	"github.com/iliyamo/video-share-backend/internal/router"
	"github.com/iliyamo/video-share-backend/internal/utils"
)

const (
	testAccessSecret  = "access-secret-for-tests"
	testRefreshSecret = "refresh-secret-for-tests"
)

var (
	errDuplicateKey = errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'users.uq_users_username'")
	errUploadDown   = errors.New("storage unavailable")
)

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		Port:           "0",
		AccessSecret:   testAccessSecret,
		RefreshSecret:  testRefreshSecret,
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
		CookieSecure:   false,
	}
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string) (string, error) {
	return f.url, f.err
}

// testServer wires the real route table over a sqlmock database so requests
// exercise routing, middleware and handlers together.
type testServer struct {
	e      *echo.Echo
	mock   sqlmock.Sqlmock
	up     *fakeUploader
	events []queue.UserRegisteredEvent
	done   chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := &testServer{
		mock: mock,
		up:   &fakeUploader{url: "https://cdn.example/media/new.png"},
		done: make(chan struct{}, 8),
	}

	cfg := testConfig()
	users := repository.NewUserRepo(db)
	auth := handler.NewAuthHandler(cfg, users, ts.up)
	auth.Publish = func(_ context.Context, ev queue.UserRegisteredEvent) error {
		ts.events = append(ts.events, ev)
		ts.done <- struct{}{}
		return nil
	}

	ts.e = echo.New()
	router.Register(ts.e, router.Deps{
		Auth:     auth,
		Users:    handler.NewUserHandler(cfg, users, ts.up),
		Channels: handler.NewChannelHandler(repository.NewChannelRepo(db)),
		Cfg:      cfg,
		Redis:    nil,
	})
	return ts
}

func (ts *testServer) request(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

// waitPublished blocks until the registration event goroutine has fired.
func (ts *testServer) waitPublished(t *testing.T) {
	t.Helper()
	select {
	case <-ts.done:
	case <-time.After(2 * time.Second):
		t.Fatal("user.registered event was not published")
	}
}

func accessTokenFor(t *testing.T, id uint64, username string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testAccessSecret, model.User{
		ID: id, Username: username, Email: username + "@x.com", Fullname: "Test User",
	}, 15)
	require.NoError(t, err)
	return tok
}

func jsonRequest(method, target string, payload any) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// multipartRequest builds a form with string fields plus named file parts.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, filename := range files {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, "not-a-real-image")
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	data, ok := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.True(t, ok, "expected object data field, got: %s", rec.Body.String())
	return data
}

// argCapture matches any string argument and records the value so a test
// can compare what was persisted with what was returned to the client.
type argCapture struct{ v *string }

func (a argCapture) Match(v driver.Value) bool {
	s, ok := v.(string)
	if ok {
		*a.v = s
	}
	return ok
}

func userColumns() []string {
	return []string{
		"id", "username", "email", "fullname", "password_hash",
		"avatar_url", "cover_image_url", "refresh_token", "created_at", "updated_at",
	}
}

func userRow(id uint64, username, email, passwordHash, refreshToken string) *sqlmock.Rows {
	var rt interface{}
	if refreshToken != "" {
		rt = refreshToken
	}
	now := time.Now().UTC()
	return sqlmock.NewRows(userColumns()).AddRow(
		id, username, email, "Test User", passwordHash,
		"https://cdn.example/media/a.png", "", rt, now, now)
}

func emptyUserRows() *sqlmock.Rows { return sqlmock.NewRows(userColumns()) }

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
