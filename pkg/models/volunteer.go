package models

import (
	"encoding/json"
	"time"
)

type VolunteerProfile struct {
	ID            int        `json:"id" db:"id"`
	UserID        int        `json:"user_id" db:"user_id"`
	Fullname      string     `json:"fullname" db:"fullname"`
	Phone         string     `json:"phone" db:"phone"`
	LastLatitude  *float64   `json:"last_latitude,omitempty" db:"last_latitude"`
	LastLongitude *float64   `json:"last_longitude,omitempty" db:"last_longitude"`
	LastAccuracy  *float64   `json:"last_accuracy,omitempty" db:"last_accuracy"`
	LastSeenAt    *time.Time `json:"last_seen_at,omitempty" db:"last_seen_at"`
	ShareLocation bool       `json:"share_location" db:"share_location"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// HasPosition reports whether the profile carries a usable stored position
// for routing fallbacks.
func (v *VolunteerProfile) HasPosition() bool {
	return v.LastLatitude != nil && v.LastLongitude != nil
}

func (v *VolunteerProfile) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   v.ID,
		ResourceType: "volunteer",
	}
}

type LocationUpdateRequest struct {
	Latitude   *float64   `json:"latitude" binding:"required"`
	Longitude  *float64   `json:"longitude" binding:"required"`
	Accuracy   *float64   `json:"accuracy"`
	RecordedAt *time.Time `json:"recorded_at"`
}

type SharingRequest struct {
	ShareLocation *bool `json:"share_location" binding:"required"`
}

type VolunteerStats struct {
	ActivePickups       int  `json:"active_pickups"`
	Collected           int  `json:"collected"`
	PendingVerification int  `json:"pending_verification"`
	Completed           int  `json:"completed"`
	CanDeliver          bool `json:"can_deliver"`
}

type LeaderboardEntry struct {
	VolunteerID   int      `json:"volunteer_id" db:"volunteer_id"`
	Fullname      string   `json:"fullname" db:"fullname"`
	Deliveries    int      `json:"deliveries" db:"deliveries"`
	AverageRating *float64 `json:"average_rating,omitempty" db:"average_rating"`
	Score         float64  `json:"score" db:"-"`
}

type TrustScore struct {
	VolunteerID        int        `json:"volunteer_id" db:"volunteer_id"`
	TotalDeliveries    int        `json:"total_deliveries" db:"total_deliveries"`
	VerifiedDeliveries int        `json:"verified_deliveries" db:"verified_deliveries"`
	RejectedDeliveries int        `json:"rejected_deliveries" db:"rejected_deliveries"`
	AverageRating      *float64   `json:"average_rating,omitempty" db:"average_rating"`
	Score              float64    `json:"trust_score" db:"trust_score"`
	BadgesRaw          string     `json:"-" db:"badges"`
	Badges             []string   `json:"badges" db:"-"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

func (t *TrustScore) LoadFromDB() {
	if t.BadgesRaw != "" {
		_ = json.Unmarshal([]byte(t.BadgesRaw), &t.Badges)
	}
	if t.Badges == nil {
		t.Badges = []string{}
	}
}
