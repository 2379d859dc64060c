package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/video-share-backend/internal/middleware"
	"github.com/iliyamo/video-share-backend/internal/repository"
	"github.com/iliyamo/video-share-backend/internal/utils"
)

// ChannelHandler serves the read-only aggregated views: channel profiles
// and watch history.
type ChannelHandler struct {
	Channels *repository.ChannelRepo
}

func NewChannelHandler(ch *repository.ChannelRepo) *ChannelHandler {
	return &ChannelHandler{Channels: ch}
}

// Channel returns the aggregated profile of a user seen as a channel.  The
// caller's identity feeds the isSubscribed computation.
func (h *ChannelHandler) Channel(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.RespondError(c, utils.Unauthorized("authentication required"))
	}
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return utils.RespondError(c, utils.ValidationError("username is missing"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Channels.GetChannelProfile(ctx, username, ident.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.RespondError(c, utils.NotFound("channel does not exist"))
		}
		return utils.RespondError(c, utils.InternalError("could not load channel profile"))
	}
	return utils.Respond(c, http.StatusOK, profile, "user channel fetched successfully")
}

// History returns the caller's watch history with each video's owner
// embedded as a reduced projection, in insertion order.
func (h *ChannelHandler) History(c echo.Context) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return utils.RespondError(c, utils.Unauthorized("authentication required"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Channels.GetWatchHistory(ctx, ident.ID)
	if err != nil {
		return utils.RespondError(c, utils.InternalError("could not load watch history"))
	}
	return utils.Respond(c, http.StatusOK, entries, "watch history fetched successfully")
}
