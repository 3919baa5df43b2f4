package domain

import "time"

// Follow is a directed edge from follower to followed user.
type Follow struct {
	FollowerID string    `json:"follower_id"`
	FollowedID string    `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Collect marks a photo as collected (bookmarked) by a user.
type Collect struct {
	CollectorID string    `json:"collector_id"`
	PhotoID     string    `json:"photo_id"`
	CreatedAt   time.Time `json:"created_at"`
}
