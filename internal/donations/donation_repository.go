package donations

import (
	"fmt"
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	"github.com/Vaibhavsh0120/Connect2Give/internal/volunteers"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/metadata"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
)

// MaxActivePickups caps how many donations one volunteer may hold in
// ACCEPTED or COLLECTED at the same time.
const MaxActivePickups = 10

var donationColumns = []interface{}{
	"id", "restaurant_id", "food_details", "quantity", "pickup_address",
	"latitude", "longitude", "status", "claimed_by", "claimed_at",
	"collected_at", "delivered_at", "delivery_camp_id", "rating", "review",
	"verified_at", "verified_by", "verification_notes", "verification_count",
	"created_at",
}

type DonationRepository interface {
	Insert(donation *models.Donation) error
	GetByID(donationID int) (*models.Donation, error)
	List(qb repository.QueryBuilder) ([]models.Donation, error)
	ListByVolunteer(volunteerID int, statuses ...metadata.DonationStatus) ([]models.Donation, error)
	StatusCounts(volunteerID int) (map[metadata.DonationStatus]int, error)
	GetRestaurantByUserID(userID int) (*models.Restaurant, error)
	Claim(donationID, volunteerID int) (*models.Donation, error)
	Collect(donationID, volunteerID int) (*models.Donation, error)
	CancelPickup(donationID, volunteerID int) (*models.Donation, error)
	DeliverBatch(volunteerID, campID int) ([]models.Donation, error)
	Verify(donationID, ngoID, verifierUserID, rating int, review, notes string) (*models.Donation, error)
	Reject(donationID, ngoID, verifierUserID int, notes string) (*models.Donation, error)
	ReleaseExpiredClaims(ttl time.Duration) ([]models.Donation, error)
}

type donationRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) DonationRepository {
	return &donationRepositoryImpl{repository: r}
}

func (r *donationRepositoryImpl) Insert(donation *models.Donation) error {
	query := r.repository.GoquDBWrapper.Insert("donations").
		Rows(goqu.Record{
			"restaurant_id":  donation.RestaurantID,
			"food_details":   donation.FoodDetails,
			"quantity":       donation.Quantity,
			"pickup_address": donation.PickupAddress,
			"latitude":       donation.Latitude,
			"longitude":      donation.Longitude,
			"status":         string(metadata.StatusPending),
		}).
		Returning("id", "created_at")

	if _, err := query.Executor().ScanStruct(donation); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError("failed to insert donation", string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert donation record: %w", err)
	}
	donation.Status = metadata.StatusPending

	return nil
}

func (r *donationRepositoryImpl) GetByID(donationID int) (*models.Donation, error) {
	var donation models.Donation
	query := r.repository.GoquDBWrapper.Select(donationColumns...).
		From("donations").
		Where(goqu.Ex{"id": donationID})

	found, err := query.Executor().ScanStruct(&donation)
	if err != nil {
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "donation", ID: donationID}
	}

	return &donation, nil
}

func (r *donationRepositoryImpl) List(qb repository.QueryBuilder) ([]models.Donation, error) {
	var donations []models.Donation
	query := r.repository.GoquDBWrapper.Select(donationColumns...).
		From("donations").
		Where(qb.BuildConditions(map[string]string{})).
		Order(goqu.I("created_at").Desc())

	if err := query.Executor().ScanStructs(&donations); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return donations, nil
}

func (r *donationRepositoryImpl) ListByVolunteer(volunteerID int, statuses ...metadata.DonationStatus) ([]models.Donation, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	var donations []models.Donation
	query := r.repository.GoquDBWrapper.Select(donationColumns...).
		From("donations").
		Where(goqu.Ex{
			"claimed_by": volunteerID,
			"status":     values,
		}).
		Order(goqu.I("id").Asc())

	if err := query.Executor().ScanStructs(&donations); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return donations, nil
}

func (r *donationRepositoryImpl) StatusCounts(volunteerID int) (map[metadata.DonationStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	query := r.repository.GoquDBWrapper.
		From("donations").
		Select(goqu.I("status").As("status"), goqu.COUNT("*").As("count")).
		Where(goqu.Ex{"claimed_by": volunteerID}).
		GroupBy("status")

	if err := query.Executor().ScanStructs(&rows); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	counts := make(map[metadata.DonationStatus]int, len(rows))
	for _, row := range rows {
		counts[metadata.DonationStatus(row.Status)] = row.Count
	}

	return counts, nil
}

func (r *donationRepositoryImpl) GetRestaurantByUserID(userID int) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	query := r.repository.GoquDBWrapper.
		Select("id", "user_id", "name", "address", "latitude", "longitude", "created_at").
		From("restaurants").
		Where(goqu.Ex{"user_id": userID})

	found, err := query.Executor().ScanStruct(&restaurant)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant profile: %w", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "restaurant profile for user", ID: userID}
	}

	return &restaurant, nil
}

// Claim reserves a PENDING donation for the volunteer. The state check, the
// capacity check and the write are one conditional UPDATE, so concurrent
// claims on the same donation or by the same volunteer cannot interleave.
// The volunteer row lock serializes the capacity subquery per volunteer;
// contention stays local to one donation row and one volunteer row.
func (r *donationRepositoryImpl) Claim(donationID, volunteerID int) (*models.Donation, error) {
	var donation models.Donation

	err := repository.WithTransaction(r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		if err := lockVolunteerRow(tx, volunteerID); err != nil {
			return err
		}

		query := tx.Update("donations").
			Set(goqu.Record{
				"status":     string(metadata.StatusAccepted),
				"claimed_by": volunteerID,
				"claimed_at": goqu.L("NOW()"),
			}).
			Where(
				goqu.C("id").Eq(donationID),
				goqu.C("status").Eq(string(metadata.StatusPending)),
				goqu.L(
					"(SELECT COUNT(*) FROM donations active WHERE active.claimed_by = ? AND active.status IN (?, ?)) < ?",
					volunteerID, string(metadata.StatusAccepted), string(metadata.StatusCollected), MaxActivePickups,
				),
			).
			Returning(donationColumns...)

		won, err := query.Executor().ScanStruct(&donation)
		if err != nil {
			return fmt.Errorf("failed to claim donation: %w", err)
		}
		if won {
			return nil
		}

		// The update matched nothing. One follow-up read names the reason;
		// it never decides success.
		return r.explainFailedClaim(tx, donationID, volunteerID)
	})
	if err != nil {
		return nil, err
	}

	return &donation, nil
}

func (r *donationRepositoryImpl) explainFailedClaim(tx *goqu.TxDatabase, donationID, volunteerID int) error {
	var status string
	found, err := tx.Select("status").From("donations").Where(goqu.Ex{"id": donationID}).Executor().ScanVal(&status)
	if err != nil {
		return fmt.Errorf("failed to inspect donation after claim miss: %w", err)
	}
	if !found {
		return &custom_error.NotFoundError{Resource: "donation", ID: donationID}
	}
	if metadata.DonationStatus(status) != metadata.StatusPending {
		return &custom_error.AlreadyClaimedError{DonationID: donationID, Status: status}
	}

	return &custom_error.CapacityExceededError{VolunteerID: volunteerID, Limit: MaxActivePickups}
}

func (r *donationRepositoryImpl) Collect(donationID, volunteerID int) (*models.Donation, error) {
	var donation models.Donation

	query := r.repository.GoquDBWrapper.Update("donations").
		Set(goqu.Record{
			"status":       string(metadata.StatusCollected),
			"collected_at": goqu.L("NOW()"),
		}).
		Where(
			goqu.C("id").Eq(donationID),
			goqu.C("status").Eq(string(metadata.StatusAccepted)),
			goqu.C("claimed_by").Eq(volunteerID),
		).
		Returning(donationColumns...)

	updated, err := query.Executor().ScanStruct(&donation)
	if err != nil {
		return nil, fmt.Errorf("failed to collect donation: %w", err)
	}
	if !updated {
		return nil, r.explainFailedOwnerTransition(donationID, volunteerID, metadata.StatusAccepted, metadata.StatusCollected)
	}

	return &donation, nil
}

func (r *donationRepositoryImpl) CancelPickup(donationID, volunteerID int) (*models.Donation, error) {
	var donation models.Donation

	query := r.repository.GoquDBWrapper.Update("donations").
		Set(goqu.Record{
			"status":       string(metadata.StatusPending),
			"claimed_by":   nil,
			"claimed_at":   nil,
			"collected_at": nil,
		}).
		Where(
			goqu.C("id").Eq(donationID),
			goqu.C("status").In(string(metadata.StatusAccepted), string(metadata.StatusCollected)),
			goqu.C("claimed_by").Eq(volunteerID),
		).
		Returning(donationColumns...)

	updated, err := query.Executor().ScanStruct(&donation)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel pickup: %w", err)
	}
	if !updated {
		return nil, r.explainFailedCancel(donationID, volunteerID)
	}

	return &donation, nil
}

// DeliverBatch moves every COLLECTED donation the volunteer holds to
// VERIFICATION_PENDING in one statement. The volunteer row lock keeps a
// concurrent Claim from counting the batch halfway through.
func (r *donationRepositoryImpl) DeliverBatch(volunteerID, campID int) ([]models.Donation, error) {
	var delivered []models.Donation

	err := repository.WithTransaction(r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		if err := lockVolunteerRow(tx, volunteerID); err != nil {
			return err
		}

		if err := validateDeliveryCamp(tx, campID, volunteerID); err != nil {
			return err
		}

		query := tx.Update("donations").
			Set(goqu.Record{
				"status":           string(metadata.StatusVerificationPending),
				"delivered_at":     goqu.L("NOW()"),
				"delivery_camp_id": campID,
			}).
			Where(
				goqu.C("claimed_by").Eq(volunteerID),
				goqu.C("status").Eq(string(metadata.StatusCollected)),
			).
			Returning(donationColumns...)

		if err := query.Executor().ScanStructs(&delivered); err != nil {
			return fmt.Errorf("failed to deliver batch: %w", err)
		}
		if len(delivered) == 0 {
			return &custom_error.NothingToDeliverError{VolunteerID: volunteerID}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return delivered, nil
}

func (r *donationRepositoryImpl) Verify(donationID, ngoID, verifierUserID, rating int, review, notes string) (*models.Donation, error) {
	var donation models.Donation

	err := repository.WithTransaction(r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		campsOfNgo := tx.Select("id").From("camps").Where(goqu.Ex{"ngo_id": ngoID})

		var reviewValue interface{}
		if review != "" {
			reviewValue = review
		}

		query := tx.Update("donations").
			Set(goqu.Record{
				"status":             string(metadata.StatusDelivered),
				"rating":             rating,
				"review":             reviewValue,
				"verification_notes": notes,
				"verified_at":        goqu.L("NOW()"),
				"verified_by":        verifierUserID,
			}).
			Where(
				goqu.C("id").Eq(donationID),
				goqu.C("status").Eq(string(metadata.StatusVerificationPending)),
				goqu.C("delivery_camp_id").In(campsOfNgo),
			).
			Returning(donationColumns...)

		updated, err := query.Executor().ScanStruct(&donation)
		if err != nil {
			return fmt.Errorf("failed to verify donation: %w", err)
		}
		if !updated {
			return r.explainFailedVerification(tx, donationID, ngoID, metadata.StatusDelivered)
		}

		if donation.ClaimedBy == nil {
			return fmt.Errorf("donation %d reached verification without a claimant", donation.ID)
		}

		return volunteers.RecalculateTrust(tx, *donation.ClaimedBy)
	})
	if err != nil {
		return nil, err
	}

	return &donation, nil
}

// Reject sends a delivery back to the volunteer's collected set. The claim
// survives, delivery fields clear and the rejection is counted on the row.
func (r *donationRepositoryImpl) Reject(donationID, ngoID, verifierUserID int, notes string) (*models.Donation, error) {
	var donation models.Donation

	err := repository.WithTransaction(r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		campsOfNgo := tx.Select("id").From("camps").Where(goqu.Ex{"ngo_id": ngoID})

		query := tx.Update("donations").
			Set(goqu.Record{
				"status":             string(metadata.StatusCollected),
				"delivered_at":       nil,
				"delivery_camp_id":   nil,
				"verification_notes": notes,
				"verified_by":        verifierUserID,
				"verification_count": goqu.L("verification_count + 1"),
			}).
			Where(
				goqu.C("id").Eq(donationID),
				goqu.C("status").Eq(string(metadata.StatusVerificationPending)),
				goqu.C("delivery_camp_id").In(campsOfNgo),
			).
			Returning(donationColumns...)

		updated, err := query.Executor().ScanStruct(&donation)
		if err != nil {
			return fmt.Errorf("failed to reject donation: %w", err)
		}
		if !updated {
			return r.explainFailedVerification(tx, donationID, ngoID, metadata.StatusCollected)
		}

		if donation.ClaimedBy == nil {
			return fmt.Errorf("donation %d reached verification without a claimant", donation.ID)
		}

		return volunteers.RecalculateTrust(tx, *donation.ClaimedBy)
	})
	if err != nil {
		return nil, err
	}

	return &donation, nil
}

// ReleaseExpiredClaims returns ACCEPTED donations older than ttl to the open
// pool. Same conditional-update discipline as CancelPickup, run in bulk.
func (r *donationRepositoryImpl) ReleaseExpiredClaims(ttl time.Duration) ([]models.Donation, error) {
	var released []models.Donation

	query := r.repository.GoquDBWrapper.Update("donations").
		Set(goqu.Record{
			"status":       string(metadata.StatusPending),
			"claimed_by":   nil,
			"claimed_at":   nil,
			"collected_at": nil,
		}).
		Where(
			goqu.C("status").Eq(string(metadata.StatusAccepted)),
			goqu.L("claimed_at < NOW() - make_interval(mins => ?)", int(ttl.Minutes())),
		).
		Returning(donationColumns...)

	if err := query.Executor().ScanStructs(&released); err != nil {
		return nil, fmt.Errorf("failed to release expired claims: %w", err)
	}

	return released, nil
}

func (r *donationRepositoryImpl) explainFailedOwnerTransition(donationID, volunteerID int, required, requested metadata.DonationStatus) error {
	donation, err := r.GetByID(donationID)
	if err != nil {
		return err
	}
	if donation.Status == required && (donation.ClaimedBy == nil || *donation.ClaimedBy != volunteerID) {
		return &custom_error.NotOwnerError{DonationID: donationID, VolunteerID: volunteerID}
	}

	return &custom_error.InvalidTransitionError{
		DonationID: donationID,
		Status:     string(donation.Status),
		Requested:  string(requested),
	}
}

func (r *donationRepositoryImpl) explainFailedCancel(donationID, volunteerID int) error {
	donation, err := r.GetByID(donationID)
	if err != nil {
		return err
	}
	if donation.Status.IsActive() && (donation.ClaimedBy == nil || *donation.ClaimedBy != volunteerID) {
		return &custom_error.NotOwnerError{DonationID: donationID, VolunteerID: volunteerID}
	}

	return &custom_error.InvalidTransitionError{
		DonationID: donationID,
		Status:     string(donation.Status),
		Requested:  string(metadata.StatusPending),
	}
}

func (r *donationRepositoryImpl) explainFailedVerification(tx *goqu.TxDatabase, donationID, ngoID int, requested metadata.DonationStatus) error {
	var row struct {
		Status         string `db:"status"`
		DeliveryCampID *int   `db:"delivery_camp_id"`
	}
	found, err := tx.Select("status", "delivery_camp_id").
		From("donations").
		Where(goqu.Ex{"id": donationID}).
		Executor().ScanStruct(&row)
	if err != nil {
		return fmt.Errorf("failed to inspect donation after verification miss: %w", err)
	}
	if !found {
		return &custom_error.NotFoundError{Resource: "donation", ID: donationID}
	}
	if metadata.DonationStatus(row.Status) != metadata.StatusVerificationPending {
		return &custom_error.InvalidTransitionError{
			DonationID: donationID,
			Status:     row.Status,
			Requested:  string(requested),
		}
	}

	return &custom_error.ForbiddenError{Reason: fmt.Sprintf("NGO %d does not operate the delivery camp of donation %d", ngoID, donationID)}
}

func lockVolunteerRow(tx *goqu.TxDatabase, volunteerID int) error {
	var id int
	query := tx.Select("id").
		From("volunteers").
		Where(goqu.Ex{"id": volunteerID}).
		ForUpdate(exp.Wait)

	found, err := query.Executor().ScanVal(&id)
	if err != nil {
		return fmt.Errorf("failed to lock volunteer row: %w", err)
	}
	if !found {
		return &custom_error.NotFoundError{Resource: "volunteer", ID: volunteerID}
	}

	return nil
}

func validateDeliveryCamp(tx *goqu.TxDatabase, campID, volunteerID int) error {
	var camp struct {
		IsActive   bool `db:"is_active"`
		Affiliated bool `db:"affiliated"`
	}

	query := tx.From(goqu.T("camps").As("c")).
		Select(
			goqu.I("c.is_active").As("is_active"),
			goqu.L(
				"EXISTS (SELECT 1 FROM ngo_volunteers nv WHERE nv.ngo_id = c.ngo_id AND nv.volunteer_id = ?)",
				volunteerID,
			).As("affiliated"),
		).
		Where(goqu.Ex{"c.id": campID})

	found, err := query.Executor().ScanStruct(&camp)
	if err != nil {
		return fmt.Errorf("failed to validate delivery camp: %w", err)
	}
	if !found {
		return &custom_error.InvalidCampError{CampID: campID, Reason: "camp does not exist"}
	}
	if !camp.IsActive {
		return &custom_error.InvalidCampError{CampID: campID, Reason: "camp is not active"}
	}
	if !camp.Affiliated {
		return &custom_error.InvalidCampError{CampID: campID, Reason: "camp is not operated by the volunteer's registered NGOs"}
	}

	return nil
}
