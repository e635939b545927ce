package models

import (
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/pkg/metadata"
)

type Donation struct {
	ID                int                     `json:"id" db:"id"`
	RestaurantID      int                     `json:"restaurant_id" db:"restaurant_id"`
	FoodDetails       string                  `json:"food_details" db:"food_details"`
	Quantity          string                  `json:"quantity" db:"quantity"`
	PickupAddress     string                  `json:"pickup_address" db:"pickup_address"`
	Latitude          float64                 `json:"latitude" db:"latitude"`
	Longitude         float64                 `json:"longitude" db:"longitude"`
	Status            metadata.DonationStatus `json:"status" db:"status"`
	ClaimedBy         *int                    `json:"claimed_by,omitempty" db:"claimed_by"`
	ClaimedAt         *time.Time              `json:"claimed_at,omitempty" db:"claimed_at"`
	CollectedAt       *time.Time              `json:"collected_at,omitempty" db:"collected_at"`
	DeliveredAt       *time.Time              `json:"delivered_at,omitempty" db:"delivered_at"`
	DeliveryCampID    *int                    `json:"delivery_camp_id,omitempty" db:"delivery_camp_id"`
	Rating            *int                    `json:"rating,omitempty" db:"rating"`
	Review            *string                 `json:"review,omitempty" db:"review"`
	VerifiedAt        *time.Time              `json:"verified_at,omitempty" db:"verified_at"`
	VerifiedBy        *int                    `json:"verified_by,omitempty" db:"verified_by"`
	VerificationNotes *string                 `json:"verification_notes,omitempty" db:"verification_notes"`
	VerificationCount int                     `json:"verification_count" db:"verification_count"`
	CreatedAt         time.Time               `json:"created_at" db:"created_at"`
}

func (d *Donation) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   d.ID,
		ResourceType: "donation",
	}
}

type CreateDonationRequest struct {
	FoodDetails   string   `json:"food_details" binding:"required"`
	Quantity      string   `json:"quantity" binding:"required"`
	PickupAddress string   `json:"pickup_address" binding:"required"`
	Latitude      *float64 `json:"latitude" binding:"required"`
	Longitude     *float64 `json:"longitude" binding:"required"`
}

type VerifyDonationRequest struct {
	Rating int    `json:"rating" binding:"required,gte=1,lte=5"`
	Review string `json:"review"`
	Notes  string `json:"notes"`
}

type RejectDonationRequest struct {
	Notes string `json:"notes" binding:"required"`
}

type DeliverBatchRequest struct {
	CampID int `json:"camp_id" binding:"required"`
}
