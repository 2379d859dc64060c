package model

import "time"

// Subscription is an edge record: SubscriberID follows ChannelID.  The
// edges are written by a separate service; this backend only aggregates
// over them for channel profiles.
type Subscription struct {
    ID           uint64
    SubscriberID uint64
    ChannelID    uint64
    CreatedAt    time.Time
}

// ChannelProfile is the aggregated view of a user seen as a channel.
type ChannelProfile struct {
    Fullname                 string `json:"fullname"`
    Username                 string `json:"username"`
    Email                    string `json:"email"`
    SubscribersCount         int64  `json:"subscribersCount"`
    ChannelSubscribedToCount int64  `json:"channelSubscribedToCount"`
    IsSubscribed             bool   `json:"isSubscribed"`
    AvatarURL                string `json:"avatarUrl"`
    CoverImageURL            string `json:"coverImageUrl"`
}
