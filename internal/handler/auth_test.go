package handler_test

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/video-share-backend/internal/utils"
)

func registerFields() map[string]string {
	return map[string]string{
		"fullname": "Alice Example",
		"username": "Alice",
		"email":    "Alice@x.com",
		"password": "s3cret",
	}
}

func TestRegisterSuccess(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE username=? OR email=?")).
		WithArgs("alice", "alice@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	ts.mock.ExpectExec("INSERT INTO users").
		WithArgs("alice", "alice@x.com", "Alice Example", sqlmock.AnyArg(),
			"https://cdn.example/media/new.png", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE id=\\? LIMIT 1").
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, "alice", "alice@x.com", hashOf(t, "s3cret"), ""))

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register",
		registerFields(), map[string]string{"avatar": "avatar.png"})
	rec := ts.request(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "alice@x.com", data["email"])

	// Secrets must never appear in a response body.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "refreshToken")

	ts.waitPublished(t)
	require.Len(t, ts.events, 1)
	assert.Equal(t, "alice", ts.events[0].Username)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestRegisterMissingAvatar(t *testing.T) {
	ts := newTestServer(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register",
		registerFields(), nil)
	rec := ts.request(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// No database interaction may happen without the required file.
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestRegisterBlankFieldRejected(t *testing.T) {
	ts := newTestServer(t)

	fields := registerFields()
	fields["fullname"] = "   "
	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register",
		fields, map[string]string{"avatar": "avatar.png"})
	rec := ts.request(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE username=? OR email=?")).
		WithArgs("alice", "alice2@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	fields := registerFields()
	fields["email"] = "alice2@x.com"
	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register",
		fields, map[string]string{"avatar": "avatar.png"})
	rec := ts.request(req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	// No INSERT was expected or executed: the user count stays unchanged.
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestRegisterDuplicateLosesInsertRace(t *testing.T) {
	ts := newTestServer(t)

	// Pre-check passes (the race window), the unique index rejects the write.
	ts.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE username=? OR email=?")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	ts.mock.ExpectExec("INSERT INTO users").
		WillReturnError(errDuplicateKey)

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register",
		registerFields(), map[string]string{"avatar": "avatar.png"})
	rec := ts.request(req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterUploadFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.up.err = errUploadDown

	ts.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE username=? OR email=?")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	req := multipartRequest(t, http.MethodPost, "/api/v1/users/register",
		registerFields(), map[string]string{"avatar": "avatar.png"})
	rec := ts.request(req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The failed upload must not leave a partially created user behind.
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestLoginSuccessStoresReturnedRefreshToken(t *testing.T) {
	ts := newTestServer(t)

	var stored string
	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE username=\\? OR email=\\? LIMIT 1").
		WithArgs("alice", "").
		WillReturnRows(userRow(5, "alice", "alice@x.com", hashOf(t, "s3cret"), ""))
	ts.mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=? WHERE id=?")).
		WithArgs(argCapture{&stored}, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := ts.request(jsonRequest(http.MethodPost, "/api/v1/users/login",
		map[string]string{"username": "Alice", "password": "s3cret"}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	access, _ := data["accessToken"].(string)
	refresh, _ := data["refreshToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	// The body token and the persisted token are the same value.
	assert.Equal(t, stored, refresh)

	// Both tokens also travel as httpOnly cookies.
	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := findCookie(rec, name)
		require.NotNil(t, cookie, "missing %s cookie", name)
		assert.True(t, cookie.HttpOnly)
	}

	// The refresh token verifies against the refresh secret and names the user.
	claims, err := utils.VerifyToken(refresh, testRefreshSecret)
	require.NoError(t, err)
	id, ok := utils.SubjectID(claims)
	require.True(t, ok)
	assert.Equal(t, uint64(5), id)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestLoginByEmailOnly(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE username=\\? OR email=\\? LIMIT 1").
		WithArgs("", "alice@x.com").
		WillReturnRows(userRow(5, "alice", "alice@x.com", hashOf(t, "s3cret"), ""))
	ts.mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := ts.request(jsonRequest(http.MethodPost, "/api/v1/users/login",
		map[string]string{"email": "alice@x.com", "password": "s3cret"}))

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginRequiresIdentifier(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(jsonRequest(http.MethodPost, "/api/v1/users/login",
		map[string]string{"password": "s3cret"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE username=\\? OR email=\\? LIMIT 1").
		WithArgs("ghost", "").
		WillReturnRows(emptyUserRows())

	rec := ts.request(jsonRequest(http.MethodPost, "/api/v1/users/login",
		map[string]string{"username": "ghost", "password": "s3cret"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE username=\\? OR email=\\? LIMIT 1").
		WithArgs("alice", "").
		WillReturnRows(userRow(5, "alice", "alice@x.com", hashOf(t, "s3cret"), ""))

	rec := ts.request(jsonRequest(http.MethodPost, "/api/v1/users/login",
		map[string]string{"username": "alice", "password": "nope"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// No refresh token may be persisted for a failed login.
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestRefreshRotatesToken(t *testing.T) {
	ts := newTestServer(t)

	current, err := utils.NewRefreshToken(testRefreshSecret, 5, 7)
	require.NoError(t, err)

	var stored string
	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(userRow(5, "alice", "alice@x.com", hashOf(t, "s3cret"), current))
	ts.mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=? WHERE id=?")).
		WithArgs(argCapture{&stored}, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := jsonRequest(http.MethodPost, "/api/v1/users/refresh-token", map[string]string{})
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: current})
	rec := ts.request(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, rec)
	rotated, _ := data["refreshToken"].(string)
	require.NotEmpty(t, rotated)
	assert.NotEqual(t, current, rotated, "rotation must issue a fresh refresh token")
	assert.Equal(t, stored, rotated)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestRefreshReuseAfterRotationFails(t *testing.T) {
	ts := newTestServer(t)

	original, err := utils.NewRefreshToken(testRefreshSecret, 5, 7)
	require.NoError(t, err)
	rotated, err := utils.NewRefreshToken(testRefreshSecret, 5, 7)
	require.NoError(t, err)
	require.NotEqual(t, original, rotated)

	// The user row now carries the rotated token; the original is dead.
	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(userRow(5, "alice", "alice@x.com", hashOf(t, "s3cret"), rotated))

	req := jsonRequest(http.MethodPost, "/api/v1/users/refresh-token",
		map[string]string{"refreshToken": original})
	rec := ts.request(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestRefreshAfterLogoutFails(t *testing.T) {
	ts := newTestServer(t)

	old, err := utils.NewRefreshToken(testRefreshSecret, 5, 7)
	require.NoError(t, err)

	// Logout cleared the stored token.
	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(userRow(5, "alice", "alice@x.com", hashOf(t, "s3cret"), ""))

	req := jsonRequest(http.MethodPost, "/api/v1/users/refresh-token",
		map[string]string{"refreshToken": old})
	rec := ts.request(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	ts := newTestServer(t)

	req := jsonRequest(http.MethodPost, "/api/v1/users/refresh-token",
		map[string]string{"refreshToken": "not-a-jwt"})
	rec := ts.request(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestRefreshRejectsAccessSecretToken(t *testing.T) {
	ts := newTestServer(t)

	// A token signed with the access secret must not pass refresh verification.
	wrongClass := accessTokenFor(t, 5, "alice")
	req := jsonRequest(http.MethodPost, "/api/v1/users/refresh-token",
		map[string]string{"refreshToken": wrongClass})
	rec := ts.request(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsStoredToken(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=NULL WHERE id=?")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := jsonRequest(http.MethodPost, "/api/v1/users/logout", map[string]string{})
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, 5, "alice"))
	rec := ts.request(req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Cookies are expired on the client as well.
	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := findCookie(rec, name)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.True(t, cookie.MaxAge < 0)
	}
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestLogoutRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(jsonRequest(http.MethodPost, "/api/v1/users/logout", map[string]string{}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePasswordConfirmationMismatch(t *testing.T) {
	ts := newTestServer(t)

	req := jsonRequest(http.MethodPost, "/api/v1/users/change-password", map[string]string{
		"oldPassword": "s3cret", "newPassword": "next", "confPassword": "different",
	})
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, 5, "alice"))
	rec := ts.request(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(userRow(5, "alice", "alice@x.com", hashOf(t, "s3cret"), ""))

	req := jsonRequest(http.MethodPost, "/api/v1/users/change-password", map[string]string{
		"oldPassword": "wrong", "newPassword": "next", "confPassword": "next",
	})
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, 5, "alice"))
	rec := ts.request(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestChangePasswordSuccess(t *testing.T) {
	ts := newTestServer(t)

	ts.mock.ExpectQuery("SELECT (.+) FROM users WHERE id=\\? LIMIT 1").
		WithArgs(uint64(5)).
		WillReturnRows(userRow(5, "alice", "alice@x.com", hashOf(t, "s3cret"), ""))
	ts.mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := jsonRequest(http.MethodPost, "/api/v1/users/change-password", map[string]string{
		"oldPassword": "s3cret", "newPassword": "next", "confPassword": "next",
	})
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, 5, "alice"))
	rec := ts.request(req)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NoError(t, ts.mock.ExpectationsWereMet())
}
