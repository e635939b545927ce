package custom_error

import "fmt"

// AlreadyClaimedError marks a claim that lost the race: the donation was no
// longer PENDING when the conditional update ran.
type AlreadyClaimedError struct {
	DonationID int
	Status     string
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("donation %d is no longer available (status: %s)", e.DonationID, e.Status)
}

// CapacityExceededError marks a claim rejected by the active-pickup cap.
type CapacityExceededError struct {
	VolunteerID int
	Limit       int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("volunteer %d already carries %d active pickups", e.VolunteerID, e.Limit)
}

type NotOwnerError struct {
	DonationID  int
	VolunteerID int
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("donation %d is not claimed by volunteer %d", e.DonationID, e.VolunteerID)
}

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// InvalidTransitionError marks a lifecycle request whose source state did not
// match, outside of a claim race (e.g. a replayed client action).
type InvalidTransitionError struct {
	DonationID int
	Status     string
	Requested  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("donation %d cannot move from %s to %s", e.DonationID, e.Status, e.Requested)
}

type InvalidCoordinateError struct {
	Latitude  float64
	Longitude float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("coordinates out of range: (%f, %f)", e.Latitude, e.Longitude)
}

type NoOriginAvailableError struct {
	VolunteerID int
}

func (e *NoOriginAvailableError) Error() string {
	return fmt.Sprintf("volunteer %d has no live or stored position", e.VolunteerID)
}

type NoCampAvailableError struct{}

func (e *NoCampAvailableError) Error() string {
	return "no active camp available for the volunteer's registered NGOs"
}

type NothingToDeliverError struct {
	VolunteerID int
}

func (e *NothingToDeliverError) Error() string {
	return fmt.Sprintf("volunteer %d has no collected donations to deliver", e.VolunteerID)
}

type InvalidCampError struct {
	CampID int
	Reason string
}

func (e *InvalidCampError) Error() string {
	return fmt.Sprintf("camp %d: %s", e.CampID, e.Reason)
}

type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}
