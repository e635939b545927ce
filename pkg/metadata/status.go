package metadata

import "fmt"

type DonationStatus string

const (
	StatusPending             DonationStatus = "PENDING"
	StatusAccepted            DonationStatus = "ACCEPTED"
	StatusCollected           DonationStatus = "COLLECTED"
	StatusVerificationPending DonationStatus = "VERIFICATION_PENDING"
	StatusDelivered           DonationStatus = "DELIVERED"
)

// transitions lists the only edges the lifecycle allows. The two edges back
// to PENDING are volunteer cancels; VERIFICATION_PENDING -> COLLECTED is an
// NGO rejecting receipt. Status writes happen exclusively through the
// donation service operations, never as a direct field set.
var transitions = map[DonationStatus][]DonationStatus{
	StatusPending:             {StatusAccepted},
	StatusAccepted:            {StatusCollected, StatusPending},
	StatusCollected:           {StatusVerificationPending, StatusPending},
	StatusVerificationPending: {StatusDelivered, StatusCollected},
	StatusDelivered:           {},
}

func NewDonationStatus(value string) (DonationStatus, error) {
	status := DonationStatus(value)
	if !status.isValid() {
		return "", fmt.Errorf("invalid donation status: %s", value)
	}
	return status, nil
}

func (s DonationStatus) isValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCollected, StatusVerificationPending, StatusDelivered:
		return true
	default:
		return false
	}
}

func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive reports whether the status counts toward the volunteer's
// concurrent-pickup cap.
func (s DonationStatus) IsActive() bool {
	return s == StatusAccepted || s == StatusCollected
}

func (s DonationStatus) IsTerminal() bool {
	return s == StatusDelivered
}
