package tracking

import (
	"fmt"
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

var volunteerColumns = []interface{}{
	"id", "user_id", "fullname", "phone", "last_latitude", "last_longitude",
	"last_accuracy", "last_seen_at", "share_location", "created_at",
}

type TrackingRepository interface {
	UpdateLocation(volunteerID int, latitude, longitude float64, accuracy *float64, seenAt time.Time) (*models.VolunteerProfile, error)
	SetSharing(volunteerID int, share bool) error
	ListSharedPositions(ngoID int) ([]models.VolunteerProfile, error)
}

type trackingRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) TrackingRepository {
	return &trackingRepositoryImpl{repository: r}
}

// UpdateLocation overwrites the stored position. last_seen_at only moves
// forward, so a delayed ping cannot make a fresh volunteer look stale.
func (r *trackingRepositoryImpl) UpdateLocation(volunteerID int, latitude, longitude float64, accuracy *float64, seenAt time.Time) (*models.VolunteerProfile, error) {
	var volunteer models.VolunteerProfile

	query := r.repository.GoquDBWrapper.Update("volunteers").
		Set(goqu.Record{
			"last_latitude":  latitude,
			"last_longitude": longitude,
			"last_accuracy":  accuracy,
			"last_seen_at":   goqu.L("GREATEST(last_seen_at, ?)", seenAt),
		}).
		Where(goqu.Ex{"id": volunteerID}).
		Returning(volunteerColumns...)

	updated, err := query.Executor().ScanStruct(&volunteer)
	if err != nil {
		return nil, fmt.Errorf("failed to update volunteer location: %w", err)
	}
	if !updated {
		return nil, &custom_error.NotFoundError{Resource: "volunteer", ID: volunteerID}
	}

	return &volunteer, nil
}

func (r *trackingRepositoryImpl) SetSharing(volunteerID int, share bool) error {
	result, err := r.repository.GoquDBWrapper.Update("volunteers").
		Set(goqu.Record{"share_location": share}).
		Where(goqu.Ex{"id": volunteerID}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to update sharing preference: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &custom_error.NotFoundError{Resource: "volunteer", ID: volunteerID}
	}

	return nil
}

// ListSharedPositions returns the NGO's registered volunteers who share
// their position and have reported one.
func (r *trackingRepositoryImpl) ListSharedPositions(ngoID int) ([]models.VolunteerProfile, error) {
	var profiles []models.VolunteerProfile

	query := r.repository.GoquDBWrapper.
		From(goqu.T("volunteers").As("v")).
		Join(
			goqu.T("ngo_volunteers").As("nv"),
			goqu.On(goqu.Ex{"nv.volunteer_id": goqu.I("v.id")}),
		).
		Select(
			goqu.I("v.id").As("id"),
			goqu.I("v.user_id").As("user_id"),
			goqu.I("v.fullname").As("fullname"),
			goqu.I("v.phone").As("phone"),
			goqu.I("v.last_latitude").As("last_latitude"),
			goqu.I("v.last_longitude").As("last_longitude"),
			goqu.I("v.last_accuracy").As("last_accuracy"),
			goqu.I("v.last_seen_at").As("last_seen_at"),
			goqu.I("v.share_location").As("share_location"),
			goqu.I("v.created_at").As("created_at"),
		).
		Where(goqu.Ex{
			"nv.ngo_id":        ngoID,
			"v.share_location": true,
		}).
		Where(goqu.I("v.last_latitude").IsNotNull()).
		Order(goqu.I("v.id").Asc())

	if err := query.Executor().ScanStructs(&profiles); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return profiles, nil
}
