package camps

import (
	"fmt"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

var campColumns = []interface{}{
	"id", "ngo_id", "name", "address", "latitude", "longitude",
	"is_active", "created_at", "completed_at",
}

type CampRepository interface {
	Insert(camp *models.Camp) error
	GetByID(campID int) (*models.Camp, error)
	List(qb repository.QueryBuilder) ([]models.Camp, error)
	ListActiveForVolunteer(volunteerID int) ([]models.Camp, error)
	Complete(campID, ngoID int) (*models.Camp, error)
}

type campRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) CampRepository {
	return &campRepositoryImpl{repository: r}
}

func (r *campRepositoryImpl) Insert(camp *models.Camp) error {
	query := r.repository.GoquDBWrapper.Insert("camps").
		Rows(goqu.Record{
			"ngo_id":    camp.NgoID,
			"name":      camp.Name,
			"address":   camp.Address,
			"latitude":  camp.Latitude,
			"longitude": camp.Longitude,
			"is_active": true,
		}).
		Returning("id", "created_at")

	if _, err := query.Executor().ScanStruct(camp); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError("failed to insert camp", string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert camp record: %w", err)
	}
	camp.IsActive = true

	return nil
}

func (r *campRepositoryImpl) GetByID(campID int) (*models.Camp, error) {
	var camp models.Camp
	query := r.repository.GoquDBWrapper.Select(campColumns...).
		From("camps").
		Where(goqu.Ex{"id": campID})

	found, err := query.Executor().ScanStruct(&camp)
	if err != nil {
		return nil, fmt.Errorf("failed to get camp: %w", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "camp", ID: campID}
	}

	return &camp, nil
}

func (r *campRepositoryImpl) List(qb repository.QueryBuilder) ([]models.Camp, error) {
	var camps []models.Camp
	query := r.repository.GoquDBWrapper.Select(campColumns...).
		From("camps").
		Where(qb.BuildConditions(map[string]string{})).
		Order(goqu.I("id").Asc())

	if err := query.Executor().ScanStructs(&camps); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return camps, nil
}

// ListActiveForVolunteer returns active camps run by the NGOs the volunteer
// is registered with, ordered by id so distance ties resolve the same way
// on every request.
func (r *campRepositoryImpl) ListActiveForVolunteer(volunteerID int) ([]models.Camp, error) {
	var camps []models.Camp
	query := r.repository.GoquDBWrapper.
		From(goqu.T("camps").As("c")).
		Join(
			goqu.T("ngo_volunteers").As("nv"),
			goqu.On(goqu.Ex{"nv.ngo_id": goqu.I("c.ngo_id")}),
		).
		Select(
			goqu.I("c.id").As("id"),
			goqu.I("c.ngo_id").As("ngo_id"),
			goqu.I("c.name").As("name"),
			goqu.I("c.address").As("address"),
			goqu.I("c.latitude").As("latitude"),
			goqu.I("c.longitude").As("longitude"),
			goqu.I("c.is_active").As("is_active"),
			goqu.I("c.created_at").As("created_at"),
			goqu.I("c.completed_at").As("completed_at"),
		).
		Where(goqu.Ex{
			"nv.volunteer_id": volunteerID,
			"c.is_active":     true,
		}).
		Order(goqu.I("c.id").Asc())

	if err := query.Executor().ScanStructs(&camps); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return camps, nil
}

func (r *campRepositoryImpl) Complete(campID, ngoID int) (*models.Camp, error) {
	var camp models.Camp

	query := r.repository.GoquDBWrapper.Update("camps").
		Set(goqu.Record{
			"is_active":    false,
			"completed_at": goqu.L("NOW()"),
		}).
		Where(
			goqu.C("id").Eq(campID),
			goqu.C("ngo_id").Eq(ngoID),
			goqu.C("is_active").Eq(true),
		).
		Returning(campColumns...)

	updated, err := query.Executor().ScanStruct(&camp)
	if err != nil {
		return nil, fmt.Errorf("failed to complete camp: %w", err)
	}
	if !updated {
		return nil, r.explainFailedCompletion(campID, ngoID)
	}

	return &camp, nil
}

func (r *campRepositoryImpl) explainFailedCompletion(campID, ngoID int) error {
	camp, err := r.GetByID(campID)
	if err != nil {
		return err
	}
	if camp.NgoID != ngoID {
		return &custom_error.ForbiddenError{Reason: fmt.Sprintf("camp %d is not operated by NGO %d", campID, ngoID)}
	}

	return &custom_error.InvalidCampError{CampID: campID, Reason: "camp is already completed"}
}
