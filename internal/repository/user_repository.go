package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/video-share-backend/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrUserExists = errors.New("username or email already exists")

const userColumns = "id,username,email,fullname,password_hash,avatar_url,cover_image_url,refresh_token,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.PasswordHash,
		&u.AvatarURL, &u.CoverImageURL, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062).  The UNIQUE indexes on username/email are the authority on
// uniqueness; the Exists pre-check is only a fast path.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// Create inserts a user and returns its ID.  Duplicate username or email
// maps to ErrUserExists regardless of which write lost the race.
func (r *UserRepo) Create(ctx context.Context, username, email, fullname, passwordHash, avatarURL, coverImageURL string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, fullname, password_hash, avatar_url, cover_image_url) VALUES (?,?,?,?,?,?)",
		username, email, fullname, passwordHash, avatarURL, coverImageURL)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Exists reports whether any user already holds the username or email.
func (r *UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=? OR email=?",
		username, email).Scan(&n)
	return n > 0, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByUsernameOrEmail fetches a user matching either identifier.  Empty
// arguments never match because both columns are NOT NULL and non-empty.
func (r *UserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? OR email=? LIMIT 1",
		username, email))
}

// SetRefreshToken overwrites the stored refresh token.  At most one token
// is valid per user; every issuance invalidates the previous one.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id uint64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=?", token, id)
	return err
}

// ClearRefreshToken removes the stored refresh token on logout.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=NULL WHERE id=?", id)
	return err
}

// UpdatePassword persists a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}

// UpdateAccount updates fullname and/or email.  Blank arguments leave the
// current value in place.  An email collision maps to ErrUserExists.
func (r *UserRepo) UpdateAccount(ctx context.Context, id uint64, fullname, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET fullname=IF(?='',fullname,?), email=IF(?='',email,?) WHERE id=?",
		fullname, fullname, email, email, id)
	if isDuplicateKey(err) {
		return ErrUserExists
	}
	return err
}

// UpdateAvatar persists a new avatar URL.  Callers only reach this after a
// successful upload, so a failed upload can never clobber the stored URL.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, avatarURL string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar_url=? WHERE id=?", avatarURL, id)
	return err
}

// UpdateCoverImage persists a new cover image URL.
func (r *UserRepo) UpdateCoverImage(ctx context.Context, id uint64, coverImageURL string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET cover_image_url=? WHERE id=?", coverImageURL, id)
	return err
}
