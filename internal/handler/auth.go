package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/video-share-backend/internal/config"
	"github.com/iliyamo/video-share-backend/internal/middleware"
	"github.com/iliyamo/video-share-backend/internal/model"
	"github.com/iliyamo/video-share-backend/internal/queue"
	"github.com/iliyamo/video-share-backend/internal/repository"
	queue_publisher "github.com/iliyamo/video-share-backend/internal/service"
	"github.com/iliyamo/video-share-backend/internal/utils"
)

// MediaUploader pushes a staged local file to hosted storage and returns
// its public URL.  Satisfied by storage.Uploader; faked in tests.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// AuthHandler bundles dependencies for the session endpoints.  Publish is
// a field so tests can swap out the broker; it defaults to the RabbitMQ
// publisher.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Uploader MediaUploader
	Publish  func(context.Context, queue.UserRegisteredEvent) error
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, up MediaUploader) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Uploader: up, Publish: queue_publisher.PublishUserRegistered}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type changePasswordReq struct {
	OldPassword  string `json:"oldPassword"`
	NewPassword  string `json:"newPassword"`
	ConfPassword string `json:"confPassword"`
}
type loginResp struct {
	User         model.PublicUser `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

// issueSession mints a token pair, overwrites the stored refresh token and
// sets both auth cookies.  Overwriting is the rotation: the previous
// refresh token, whichever session held it, stops being exchangeable.
func (h *AuthHandler) issueSession(ctx context.Context, c echo.Context, u model.User) (utils.TokenPair, error) {
	pair, err := utils.IssueTokenPair(h.Cfg.AccessSecret, h.Cfg.RefreshSecret, u, h.Cfg.AccessTTLMin, h.Cfg.RefreshTTLDays)
	if err != nil {
		return utils.TokenPair{}, utils.InternalError("could not issue tokens")
	}
	if err := h.Users.SetRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return utils.TokenPair{}, utils.InternalError("could not persist session")
	}
	h.setAuthCookies(c, pair)
	return pair, nil
}

func (h *AuthHandler) authCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) setAuthCookies(c echo.Context, pair utils.TokenPair) {
	c.SetCookie(h.authCookie("accessToken", pair.AccessToken, time.Duration(h.Cfg.AccessTTLMin)*time.Minute))
	c.SetCookie(h.authCookie("refreshToken", pair.RefreshToken, time.Duration(h.Cfg.RefreshTTLDays)*24*time.Hour))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	c.SetCookie(h.authCookie("accessToken", "", -time.Second))
	c.SetCookie(h.authCookie("refreshToken", "", -time.Second))
}

// Register: multipart form with profile fields plus a required avatar file
// and an optional cover image.  Created user is echoed without secrets.
func (h *AuthHandler) Register(c echo.Context) error {
	fullname := strings.TrimSpace(c.FormValue("fullname"))
	username := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	password := strings.TrimSpace(c.FormValue("password"))
	if fullname == "" || username == "" || email == "" || password == "" {
		return utils.RespondError(c, utils.ValidationError("fullname, username, email and password are required"))
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		return utils.RespondError(c, utils.ValidationError("avatar file is required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	// Advisory pre-check; the UNIQUE keys decide the race authoritatively.
	taken, err := h.Users.Exists(ctx, username, email)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not check existing users"))
	}
	if taken {
		return utils.RespondError(c, utils.Conflict("username or email already exists"))
	}

	avatarURL, err := h.uploadStaged(ctx, avatarFile)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("avatar upload failed"))
	}

	coverImageURL := ""
	if coverFile, err := c.FormFile("coverImage"); err == nil {
		coverImageURL, err = h.uploadStaged(ctx, coverFile)
		if err != nil {
			return utils.RespondError(c, utils.InternalError("cover image upload failed"))
		}
	}

	hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not hash password"))
	}

	id, err := h.Users.Create(ctx, username, email, fullname, hash, avatarURL, coverImageURL)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return utils.RespondError(c, utils.Conflict("username or email already exists"))
		}
		return utils.RespondError(c, utils.InternalError("could not create user"))
	}

	created, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not load created user"))
	}

	// Fire and forget; the publisher logs its own failures.
	publish := h.Publish
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = publish(pctx, queue.UserRegisteredEvent{
			UserID:       created.ID,
			Username:     created.Username,
			Email:        created.Email,
			Fullname:     created.Fullname,
			RegisteredAt: created.CreatedAt.UTC().Format(time.RFC3339),
		})
	}()

	return utils.Respond(c, http.StatusCreated, created.Public(), "user registered successfully")
}

// Login: verify credentials, establish a session, return pair in body and
// as httpOnly cookies.  Either username or email identifies the account.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("invalid request body"))
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" && email == "" {
		return utils.RespondError(c, utils.ValidationError("username or email is required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.RespondError(c, utils.NotFound("user does not exist"))
		}
		return utils.RespondError(c, utils.InternalError("could not query user"))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return utils.RespondError(c, utils.Unauthorized("invalid credentials"))
	}

	pair, err := h.issueSession(ctx, c, u)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return utils.Respond(c, http.StatusOK, loginResp{
		User:         u.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "user logged in successfully")
}

// Refresh: exchange a valid refresh token for a rotated pair.  The token
// must verify against the refresh secret, the subject must still exist and
// the presented value must equal the currently stored one.  Verify and
// overwrite are two statements; a concurrent exchange of the same token is
// best-effort and may win or lose depending on interleaving.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		var req refreshReq
		_ = c.Bind(&req)
		raw = strings.TrimSpace(req.RefreshToken)
	}
	if raw == "" {
		return utils.RespondError(c, utils.Unauthorized("refresh token required"))
	}

	claims, err := utils.VerifyToken(raw, h.Cfg.RefreshSecret)
	if err != nil {
		return utils.RespondError(c, utils.Unauthorized("invalid or expired refresh token"))
	}
	id, ok := utils.SubjectID(claims)
	if !ok || id == 0 {
		return utils.RespondError(c, utils.Unauthorized("invalid refresh token"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return utils.RespondError(c, utils.Unauthorized("invalid refresh token"))
	}
	if !u.RefreshToken.Valid || u.RefreshToken.String != raw {
		return utils.RespondError(c, utils.Unauthorized("refresh token has been rotated or revoked"))
	}

	pair, err := h.issueSession(ctx, c, u)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return utils.Respond(c, http.StatusOK, pair, "access token refreshed successfully")
}

// Logout: clear the stored refresh token so no outstanding token can be
// exchanged, and expire both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.RespondError(c, utils.Unauthorized("authentication required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ClearRefreshToken(ctx, ident.ID); err != nil {
		return utils.RespondError(c, utils.InternalError("could not clear session"))
	}
	h.clearAuthCookies(c)

	return utils.Respond(c, http.StatusOK, map[string]any{}, "user logged out")
}

// ChangePassword: verify the old password and persist a new hash.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.RespondError(c, utils.Unauthorized("authentication required"))
	}

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("invalid request body"))
	}
	if strings.TrimSpace(req.NewPassword) == "" {
		return utils.RespondError(c, utils.ValidationError("new password is required"))
	}
	if req.NewPassword != req.ConfPassword {
		return utils.RespondError(c, utils.ValidationError("password confirmation does not match"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, ident.ID)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not load user"))
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return utils.RespondError(c, utils.Unauthorized("incorrect old password"))
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not hash password"))
	}
	if err := h.Users.UpdatePassword(ctx, ident.ID, hash); err != nil {
		return utils.RespondError(c, utils.InternalError("could not update password"))
	}

	return utils.Respond(c, http.StatusCreated, map[string]any{}, "password changed successfully")
}
