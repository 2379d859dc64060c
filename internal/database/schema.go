package database

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the application tables when they do not exist yet.
// The UNIQUE keys on users.username and users.email are the authoritative
// uniqueness guarantee: two concurrent registrations can both pass the
// handler's existence pre-check, but only one INSERT can win here.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			username        VARCHAR(64)  NOT NULL,
			email           VARCHAR(255) NOT NULL,
			fullname        VARCHAR(255) NOT NULL,
			password_hash   VARCHAR(255) NOT NULL,
			avatar_url      VARCHAR(512) NOT NULL,
			cover_image_url VARCHAR(512) NOT NULL DEFAULT '',
			refresh_token   TEXT NULL,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_username (username),
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS videos (
			id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			owner_id      BIGINT UNSIGNED NOT NULL,
			title         VARCHAR(255) NOT NULL,
			description   TEXT NOT NULL,
			video_url     VARCHAR(512) NOT NULL,
			thumbnail_url VARCHAR(512) NOT NULL DEFAULT '',
			duration_sec  INT UNSIGNED NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_videos_owner (owner_id),
			CONSTRAINT fk_videos_owner FOREIGN KEY (owner_id) REFERENCES users(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS subscriptions (
			id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			subscriber_id BIGINT UNSIGNED NOT NULL,
			channel_id    BIGINT UNSIGNED NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_subscriptions_edge (subscriber_id, channel_id),
			KEY idx_subscriptions_channel (channel_id),
			CONSTRAINT fk_subscriptions_subscriber FOREIGN KEY (subscriber_id) REFERENCES users(id),
			CONSTRAINT fk_subscriptions_channel FOREIGN KEY (channel_id) REFERENCES users(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		// Insertion order of rows is the authoritative ordering of a
		// user's watch history (id is monotonic).
		`CREATE TABLE IF NOT EXISTS watch_history (
			id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id    BIGINT UNSIGNED NOT NULL,
			video_id   BIGINT UNSIGNED NOT NULL,
			watched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_watch_history_user (user_id),
			CONSTRAINT fk_watch_history_user FOREIGN KEY (user_id) REFERENCES users(id),
			CONSTRAINT fk_watch_history_video FOREIGN KEY (video_id) REFERENCES videos(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
