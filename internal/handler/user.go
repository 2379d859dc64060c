package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/video-share-backend/internal/config"
	"github.com/iliyamo/video-share-backend/internal/middleware"
	"github.com/iliyamo/video-share-backend/internal/repository"
	"github.com/iliyamo/video-share-backend/internal/utils"
)

// UserHandler serves the profile endpoints of the authenticated caller.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Uploader MediaUploader
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, up MediaUploader) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Uploader: up}
}

type updateAccountReq struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// CurrentUser echoes the caller's record, freshly loaded so profile edits
// from other sessions are visible.
func (h *UserHandler) CurrentUser(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.RespondError(c, utils.Unauthorized("authentication required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, ident.ID)
	if err != nil {
		return utils.RespondError(c, utils.NotFound("user does not exist"))
	}
	return utils.Respond(c, http.StatusOK, u.Public(), "current user fetched successfully")
}

// UpdateAccount updates fullname and/or email; at least one is required.
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.RespondError(c, utils.Unauthorized("authentication required"))
	}

	var req updateAccountReq
	if err := c.Bind(&req); err != nil {
		return utils.RespondError(c, utils.ValidationError("invalid request body"))
	}
	fullname := strings.TrimSpace(req.Fullname)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullname == "" && email == "" {
		return utils.RespondError(c, utils.ValidationError("fullname or email is required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateAccount(ctx, ident.ID, fullname, email); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return utils.RespondError(c, utils.Conflict("email already in use"))
		}
		return utils.RespondError(c, utils.InternalError("could not update account"))
	}

	u, err := h.Users.GetByID(ctx, ident.ID)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not load updated user"))
	}
	return utils.Respond(c, http.StatusOK, u.Public(), "account details updated successfully")
}

// UpdateAvatar replaces the caller's avatar.  The stored URL is only
// touched after the upload succeeded, so a failed upload leaves the
// previous avatar intact.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.Users.UpdateAvatar, "avatar updated successfully")
}

// UpdateCoverImage replaces the caller's cover image.
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", h.Users.UpdateCoverImage, "cover image updated successfully")
}

func (h *UserHandler) updateImage(c echo.Context, field string, persist func(context.Context, uint64, string) error, message string) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.RespondError(c, utils.Unauthorized("authentication required"))
	}

	fh, err := c.FormFile(field)
	if err != nil {
		return utils.RespondError(c, utils.ValidationError(field+" file is missing"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	url, err := uploadThrough(ctx, h.Uploader, fh)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not upload "+field))
	}
	if err := persist(ctx, ident.ID, url); err != nil {
		return utils.RespondError(c, utils.InternalError("could not persist "+field))
	}

	u, err := h.Users.GetByID(ctx, ident.ID)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not load updated user"))
	}
	return utils.Respond(c, http.StatusCreated, u.Public(), message)
}
