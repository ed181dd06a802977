package models

import "time"

// RouteReport is a user-submitted road or route incident.
type RouteReport struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"` // Nullable; set to NULL when the author is deleted
	Type        string    `json:"type"`              // Free-form, e.g. "accident", "closure"
	Description *string   `json:"description"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	CreatedAt   time.Time `json:"ts"`
	TrustScore  int       `json:"trust_score"`
}

// ReportCreate is the payload for submitting a report.
type ReportCreate struct {
	Type        string   `json:"type" validate:"required,max=64"`
	Description *string  `json:"description"`
	Lat         *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng         *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}
