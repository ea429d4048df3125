package post

import "time"

type Post struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Tag struct {
	PostID string `json:"post_id"`
	Name   string `json:"tag_name"`
}

type Image struct {
	PostID    string    `json:"post_id"`
	URL       string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Reaction is a like or save row. Presence is the only state.
type Reaction struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type LikeCount struct {
	PostID string
	Count  int64
}

type CreateInput struct {
	LocationName string   `json:"location_name" form:"location_name"`
	Latitude     float64  `json:"latitude" form:"latitude"`
	Longitude    float64  `json:"longitude" form:"longitude"`
	Notes        string   `json:"notes" form:"notes"`
	Tags         []string `json:"tags" form:"tags"`
}

type UpdateInput struct {
	LocationName *string  `json:"location_name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Notes        *string  `json:"notes"`
	Tags         []string `json:"tags"`
}

// PhotoReport counts photo uploads for a created post.
type PhotoReport struct {
	Uploaded  int `json:"uploaded"`
	Attempted int `json:"attempted"`
}

func (r PhotoReport) Partial() bool {
	return r.Uploaded < r.Attempted
}

func (r PhotoReport) String() string {
	return fmtRatio(r.Uploaded, r.Attempted)
}

type Created struct {
	Post    Post        `json:"post"`
	Tags    []string    `json:"tags"`
	Images  []string    `json:"images"`
	Photos  PhotoReport `json:"photos"`
	Partial bool        `json:"partial"`
}
