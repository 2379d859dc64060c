package model

import "time"

// Video is a row in the `videos` table.  Videos are owned and mutated by a
// separate service; this backend only reads them when resolving a user's
// watch history.
type Video struct {
    ID           uint64
    OwnerID      uint64
    Title        string
    Description  string
    VideoURL     string
    ThumbnailURL string
    DurationSec  uint32
    CreatedAt    time.Time
}

// VideoOwner is the reduced owner projection embedded into each watch
// history entry.
type VideoOwner struct {
    Fullname string `json:"fullname"`
    Username string `json:"username"`
    Avatar   string `json:"avatar"`
}

// WatchEntry is one enriched watch-history record: the referenced video
// with its owner collapsed into a single embedded object.
type WatchEntry struct {
    ID           uint64     `json:"id"`
    Title        string     `json:"title"`
    Description  string     `json:"description"`
    VideoURL     string     `json:"videoUrl"`
    ThumbnailURL string     `json:"thumbnailUrl"`
    DurationSec  uint32     `json:"duration"`
    CreatedAt    time.Time  `json:"createdAt"`
    Owner        VideoOwner `json:"owner"`
}
