package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/video-share-backend/internal/model"
)

// ChannelRepo runs the read-only aggregation queries: channel profiles and
// watch history.  It never mutates any table.
type ChannelRepo struct{ DB *sql.DB }

func NewChannelRepo(db *sql.DB) *ChannelRepo { return &ChannelRepo{DB: db} }

// GetChannelProfile joins the subscriptions table twice against the user:
// once on the channel side for subscribersCount, once on the subscriber
// side for channelSubscribedToCount.  isSubscribed is true iff the viewer
// appears among the channel's subscribers.  Returns sql.ErrNoRows when the
// username does not match any user (case-insensitive).
func (r *ChannelRepo) GetChannelProfile(ctx context.Context, username string, viewerID uint64) (model.ChannelProfile, error) {
	const q = `SELECT
			u.fullname,
			u.username,
			u.email,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers_count,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channel_subscribed_to_count,
			EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?) AS is_subscribed,
			u.avatar_url,
			u.cover_image_url
		FROM users u
		WHERE LOWER(u.username) = LOWER(?)
		LIMIT 1`

	var p model.ChannelProfile
	err := r.DB.QueryRowContext(ctx, q, viewerID, username).Scan(
		&p.Fullname, &p.Username, &p.Email,
		&p.SubscribersCount, &p.ChannelSubscribedToCount, &p.IsSubscribed,
		&p.AvatarURL, &p.CoverImageURL)
	if err != nil {
		return model.ChannelProfile{}, err
	}
	return p, nil
}

// GetWatchHistory resolves the user's watch history in insertion order,
// embedding each video's owner as a reduced projection.
func (r *ChannelRepo) GetWatchHistory(ctx context.Context, userID uint64) ([]model.WatchEntry, error) {
	const q = `SELECT
			v.id,
			v.title,
			v.description,
			v.video_url,
			v.thumbnail_url,
			v.duration_sec,
			v.created_at,
			o.fullname,
			o.username,
			o.avatar_url
		FROM watch_history h
		JOIN videos v ON v.id = h.video_id
		JOIN users  o ON o.id = v.owner_id
		WHERE h.user_id = ?
		ORDER BY h.id`

	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.WatchEntry{}
	for rows.Next() {
		var e model.WatchEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.VideoURL,
			&e.ThumbnailURL, &e.DurationSec, &e.CreatedAt,
			&e.Owner.Fullname, &e.Owner.Username, &e.Owner.Avatar); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
