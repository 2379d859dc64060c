package model

import (
    "database/sql"
    "time"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  The struct is used by the
// repository layer only; handlers respond with PublicUser so that the
// password hash and the stored refresh token can never leak into a body.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Username      – unique handle, stored lowercased and trimmed.
//  Email         – unique email address.
//  Fullname      – display name.
//  PasswordHash  – bcrypt hashed password.
//  AvatarURL     – hosted avatar image URL, always non-empty.
//  CoverImageURL – hosted cover image URL, may be empty.
//  RefreshToken  – the single currently valid refresh token, NULL when
//                  logged out.  Overwritten on every issuance.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
    ID            uint64
    Username      string
    Email         string
    Fullname      string
    PasswordHash  string
    AvatarURL     string
    CoverImageURL string
    RefreshToken  sql.NullString
    CreatedAt     time.Time
    UpdatedAt     time.Time
}

// PublicUser is the API projection of a user.  It deliberately has no
// password or refresh-token field, so serializing it can never expose a
// secret regardless of call site.
type PublicUser struct {
    ID            uint64    `json:"id"`
    Username      string    `json:"username"`
    Email         string    `json:"email"`
    Fullname      string    `json:"fullname"`
    AvatarURL     string    `json:"avatarUrl"`
    CoverImageURL string    `json:"coverImageUrl"`
    CreatedAt     time.Time `json:"createdAt"`
    UpdatedAt     time.Time `json:"updatedAt"`
}

// Public converts the stored record into its API projection.
func (u User) Public() PublicUser {
    return PublicUser{
        ID:            u.ID,
        Username:      u.Username,
        Email:         u.Email,
        Fullname:      u.Fullname,
        AvatarURL:     u.AvatarURL,
        CoverImageURL: u.CoverImageURL,
        CreatedAt:     u.CreatedAt,
        UpdatedAt:     u.UpdatedAt,
    }
}
