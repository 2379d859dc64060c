package middleware // middleware provides shared request processing for handlers

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/video-share-backend/internal/utils"
)

// Identity is the authenticated caller resolved from a verified access
// token.  Handlers receive it as an explicit value via IdentityFrom and
// pass it down into repository calls; there is no ambient current-user
// state anywhere else.
type Identity struct {
    ID       uint64
    Username string
    Email    string
    Fullname string
}

const identityKey = "identity"

// JWTAuth returns an Echo middleware that validates the access token and
// stores the caller's Identity in the request context.  The token is read
// from the Authorization header ("Bearer <token>") or, failing that, from
// the accessToken cookie set at login.  Any verification failure responds
// 401 without invoking the handler.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := ""
            if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
                raw = strings.TrimPrefix(auth, "Bearer ")
            } else if cookie, err := c.Cookie("accessToken"); err == nil {
                raw = cookie.Value
            }
            if raw == "" {
                return utils.RespondError(c, utils.Unauthorized("missing access token"))
            }

            claims, err := utils.VerifyToken(raw, secret)
            if err != nil {
                return utils.RespondError(c, utils.Unauthorized("invalid or expired access token"))
            }
            id, ok := utils.SubjectID(claims)
            if !ok || id == 0 {
                return utils.RespondError(c, utils.Unauthorized("invalid access token subject"))
            }

            ident := Identity{ID: id}
            if v, ok := claims["username"].(string); ok {
                ident.Username = v
            }
            if v, ok := claims["email"].(string); ok {
                ident.Email = v
            }
            if v, ok := claims["fullname"].(string); ok {
                ident.Fullname = v
            }

            c.Set(identityKey, ident)
            return next(c)
        }
    }
}

// IdentityFrom extracts the authenticated identity placed by JWTAuth.  The
// second return is false on routes that did not pass through the middleware.
func IdentityFrom(c echo.Context) (Identity, bool) {
    ident, ok := c.Get(identityKey).(Identity)
    return ident, ok
}
