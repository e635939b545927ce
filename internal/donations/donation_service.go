package donations

import (
	"errors"
	"fmt"
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/internal/events"
	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/geo"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/metadata"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/metrics"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"go.uber.org/zap"
)

// EventPublisher is the slice of events.Publisher the service needs.
type EventPublisher interface {
	Publish(event events.DonationEvent)
}

type DonationService struct {
	donationRepo DonationRepository
	publisher    EventPublisher
	log          *zap.Logger
}

func NewDonationService(donationRepo DonationRepository, publisher EventPublisher, log *zap.Logger) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		publisher:    publisher,
		log:          log,
	}
}

func (s *DonationService) Create(req models.CreateDonationRequest, restaurantID int, actorID int) (*models.Donation, error) {
	coordinates, err := geo.NewCoordinates(*req.Latitude, *req.Longitude)
	if err != nil {
		return nil, err
	}

	donation := &models.Donation{
		RestaurantID:  restaurantID,
		FoodDetails:   req.FoodDetails,
		Quantity:      req.Quantity,
		PickupAddress: req.PickupAddress,
		Latitude:      coordinates.Latitude,
		Longitude:     coordinates.Longitude,
	}
	if err := s.donationRepo.Insert(donation); err != nil {
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}

	metrics.DonationTransitions.WithLabelValues("create").Inc()
	s.publisher.Publish(events.NewDonationEvent(events.DonationCreated, donation.ID, actorID, map[string]interface{}{
		"latitude":  donation.Latitude,
		"longitude": donation.Longitude,
	}))

	return donation, nil
}

func (s *DonationService) GetByID(donationID int) (*models.Donation, error) {
	return s.donationRepo.GetByID(donationID)
}

func (s *DonationService) List(qb repository.QueryBuilder) ([]models.Donation, error) {
	return s.donationRepo.List(qb)
}

func (s *DonationService) ListAssigned(volunteerID int) ([]models.Donation, error) {
	return s.donationRepo.ListByVolunteer(volunteerID,
		metadata.StatusAccepted, metadata.StatusCollected, metadata.StatusVerificationPending)
}

// Claim runs the atomic arbitration and reports the outcome. A lost race
// and a full pickup slate come back as typed errors for the handler.
func (s *DonationService) Claim(donationID, volunteerID, actorID int) (*models.Donation, error) {
	donation, err := s.donationRepo.Claim(donationID, volunteerID)
	if err != nil {
		var claimed *custom_error.AlreadyClaimedError
		var capacity *custom_error.CapacityExceededError
		switch {
		case errors.As(err, &claimed):
			metrics.ClaimRejections.WithLabelValues("already_claimed").Inc()
		case errors.As(err, &capacity):
			metrics.ClaimRejections.WithLabelValues("capacity_exceeded").Inc()
		}
		return nil, err
	}

	metrics.DonationTransitions.WithLabelValues("claim").Inc()
	s.publisher.Publish(events.NewDonationEvent(events.DonationClaimed, donation.ID, actorID, map[string]interface{}{
		"volunteer_id": volunteerID,
	}))

	return donation, nil
}

func (s *DonationService) Collect(donationID, volunteerID, actorID int) (*models.Donation, error) {
	donation, err := s.donationRepo.Collect(donationID, volunteerID)
	if err != nil {
		return nil, err
	}

	metrics.DonationTransitions.WithLabelValues("collect").Inc()
	s.publisher.Publish(events.NewDonationEvent(events.DonationCollected, donation.ID, actorID, map[string]interface{}{
		"volunteer_id": volunteerID,
	}))

	return donation, nil
}

func (s *DonationService) CancelPickup(donationID, volunteerID, actorID int) (*models.Donation, error) {
	donation, err := s.donationRepo.CancelPickup(donationID, volunteerID)
	if err != nil {
		return nil, err
	}

	metrics.DonationTransitions.WithLabelValues("cancel").Inc()
	s.publisher.Publish(events.NewDonationEvent(events.DonationCancelled, donation.ID, actorID, map[string]interface{}{
		"volunteer_id": volunteerID,
	}))

	return donation, nil
}

func (s *DonationService) DeliverBatch(volunteerID, campID, actorID int) ([]models.Donation, error) {
	delivered, err := s.donationRepo.DeliverBatch(volunteerID, campID)
	if err != nil {
		return nil, err
	}

	metrics.DonationTransitions.WithLabelValues("deliver").Add(float64(len(delivered)))
	for _, donation := range delivered {
		s.publisher.Publish(events.NewDonationEvent(events.DonationDelivered, donation.ID, actorID, map[string]interface{}{
			"volunteer_id": volunteerID,
			"camp_id":      campID,
		}))
	}

	return delivered, nil
}

func (s *DonationService) Verify(donationID, ngoID, verifierUserID int, req models.VerifyDonationRequest) (*models.Donation, error) {
	donation, err := s.donationRepo.Verify(donationID, ngoID, verifierUserID, req.Rating, req.Review, req.Notes)
	if err != nil {
		return nil, err
	}

	metrics.DonationTransitions.WithLabelValues("verify").Inc()
	s.publisher.Publish(events.NewDonationEvent(events.DonationVerified, donation.ID, verifierUserID, map[string]interface{}{
		"rating": req.Rating,
	}))

	return donation, nil
}

func (s *DonationService) Reject(donationID, ngoID, verifierUserID int, req models.RejectDonationRequest) (*models.Donation, error) {
	donation, err := s.donationRepo.Reject(donationID, ngoID, verifierUserID, req.Notes)
	if err != nil {
		return nil, err
	}

	metrics.DonationTransitions.WithLabelValues("reject").Inc()
	s.publisher.Publish(events.NewDonationEvent(events.DonationRejected, donation.ID, verifierUserID, nil))

	return donation, nil
}

// ReleaseExpiredClaims returns stale ACCEPTED donations to the open pool.
// Called from the background sweeper, never from a request path.
func (s *DonationService) ReleaseExpiredClaims(ttl time.Duration) (int, error) {
	released, err := s.donationRepo.ReleaseExpiredClaims(ttl)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired claims: %w", err)
	}
	if len(released) == 0 {
		return 0, nil
	}

	metrics.ExpiredClaimsReleased.Add(float64(len(released)))
	for _, donation := range released {
		s.publisher.Publish(events.NewDonationEvent(events.DonationClaimExpired, donation.ID, 0, nil))
	}
	s.log.Info("released expired claims",
		zap.Int("count", len(released)),
		zap.Duration("ttl", ttl),
	)

	return len(released), nil
}

func (s *DonationService) Stats(volunteerID int) (*models.VolunteerStats, error) {
	counts, err := s.donationRepo.StatusCounts(volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute volunteer stats: %w", err)
	}

	stats := &models.VolunteerStats{
		ActivePickups:       counts[metadata.StatusAccepted] + counts[metadata.StatusCollected],
		Collected:           counts[metadata.StatusCollected],
		PendingVerification: counts[metadata.StatusVerificationPending],
		Completed:           counts[metadata.StatusDelivered],
	}
	stats.CanDeliver = stats.Collected > 0

	return stats, nil
}

func (s *DonationService) GetRestaurantByUserID(userID int) (*models.Restaurant, error) {
	return s.donationRepo.GetRestaurantByUserID(userID)
}
