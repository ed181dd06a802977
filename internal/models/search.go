package models

import "time"

// SearchHistory is one saved map search.
type SearchHistory struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"` // Nullable; rows go away with their user
	Query     string    `json:"query"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"ts"`
}

// SearchCreate is the payload for saving a search.
type SearchCreate struct {
	Query string   `json:"query" validate:"required,max=512"`
	Lat   *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng   *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}
