package utils // package utils provides helpers for token issuance and password hashing

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens

    "github.com/iliyamo/video-share-backend/internal/model"
)

// Token verification failures.  Both map to 401 at the HTTP layer; the
// split exists so logs can tell an expired session from a forged token.
var (
    ErrTokenExpired = errors.New("token expired")
    ErrTokenInvalid = errors.New("token invalid")
)

// TokenPair bundles a freshly signed access and refresh token.  The access
// token is a self-contained identity claim and is never persisted; the
// refresh token is mirrored onto the user row as the single valid value.
type TokenPair struct {
    AccessToken  string `json:"accessToken"`
    RefreshToken string `json:"refreshToken"`
}

// NewAccessToken signs an HS256 JWT carrying the full identity claim set
// (sub, username, email, fullname).  ttlMin controls the expiry in minutes.
func NewAccessToken(secret string, u model.User, ttlMin int) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "sub":      u.ID,
        "username": u.Username,
        "email":    u.Email,
        "fullname": u.Fullname,
        "exp":      now.Add(time.Duration(ttlMin) * time.Minute).Unix(),
        "iat":      now.Unix(),
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// NewRefreshToken signs an HS256 JWT carrying only the subject.  ttlDays
// controls the expiry in days.  The refresh secret must differ from the
// access secret so the two token classes cannot be swapped for each other.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "sub": userID,
        "exp": now.Add(time.Duration(ttlDays) * 24 * time.Hour).Unix(),
        "iat": now.Unix(),
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// IssueTokenPair mints a new access+refresh pair for a user.  Signing only
// fails on misconfiguration (empty or unusable secret), never on user input.
func IssueTokenPair(accessSecret, refreshSecret string, u model.User, accessTTLMin, refreshTTLDays int) (TokenPair, error) {
    access, err := NewAccessToken(accessSecret, u, accessTTLMin)
    if err != nil {
        return TokenPair{}, fmt.Errorf("sign access token: %w", err)
    }
    refresh, err := NewRefreshToken(refreshSecret, u.ID, refreshTTLDays)
    if err != nil {
        return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
    }
    return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyToken parses a token against the given secret, enforcing the HMAC
// signing method.  It is pure: no storage is consulted.  Expired tokens are
// reported as ErrTokenExpired, every other failure as ErrTokenInvalid.
func VerifyToken(raw, secret string) (jwt.MapClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenInvalid
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return nil, ErrTokenExpired
        }
        return nil, ErrTokenInvalid
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return nil, ErrTokenInvalid
    }
    return claims, nil
}

// SubjectID extracts the numeric subject from verified claims.  JWT numbers
// decode as float64; string subjects are tolerated for interoperability.
func SubjectID(claims jwt.MapClaims) (uint64, bool) {
    switch v := claims["sub"].(type) {
    case float64:
        return uint64(v), true
    case string:
        var id uint64
        if _, err := fmt.Sscanf(v, "%d", &id); err == nil {
            return id, true
        }
    }
    return 0, false
}
