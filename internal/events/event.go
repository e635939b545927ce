package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	DonationCreated      = "donation.created"
	DonationClaimed      = "donation.claimed"
	DonationCollected    = "donation.collected"
	DonationCancelled    = "donation.cancelled"
	DonationDelivered    = "donation.delivered"
	DonationVerified     = "donation.verified"
	DonationRejected     = "donation.rejected"
	DonationClaimExpired = "donation.claim_expired"
)

// DonationEvent is the envelope published on every lifecycle transition.
// Notification and email concerns subscribe to these; the dispatch core
// never waits for them.
type DonationEvent struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	DonationID int                    `json:"donation_id"`
	ActorID    int                    `json:"actor_id,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

func NewDonationEvent(eventType string, donationID int, actorID int, data map[string]interface{}) DonationEvent {
	return DonationEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		DonationID: donationID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}
