package camps

import (
	"fmt"

	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/geo"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
)

type CampService struct {
	campRepo CampRepository
}

func NewCampService(campRepo CampRepository) *CampService {
	return &CampService{campRepo: campRepo}
}

func (s *CampService) Create(req models.CreateCampRequest, ngoID int) (*models.Camp, error) {
	coordinates, err := geo.NewCoordinates(*req.Latitude, *req.Longitude)
	if err != nil {
		return nil, err
	}

	camp := &models.Camp{
		NgoID:     ngoID,
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  coordinates.Latitude,
		Longitude: coordinates.Longitude,
	}
	if err := s.campRepo.Insert(camp); err != nil {
		return nil, fmt.Errorf("failed to create camp: %w", err)
	}

	return camp, nil
}

func (s *CampService) GetByID(campID int) (*models.Camp, error) {
	return s.campRepo.GetByID(campID)
}

func (s *CampService) List(qb repository.QueryBuilder) ([]models.Camp, error) {
	return s.campRepo.List(qb)
}

func (s *CampService) Complete(campID, ngoID int) (*models.Camp, error) {
	return s.campRepo.Complete(campID, ngoID)
}

// NearestCamp picks the closest active camp run by the volunteer's NGOs.
func (s *CampService) NearestCamp(origin geo.Coordinates, volunteerID int) (*models.Camp, float64, error) {
	camps, err := s.campRepo.ListActiveForVolunteer(volunteerID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list camps: %w", err)
	}

	index, distanceKm := SelectNearest(origin, camps)
	if index < 0 {
		return nil, 0, &custom_error.NoCampAvailableError{}
	}

	return &camps[index], distanceKm, nil
}

// SelectNearest returns the index of the closest camp and the rounded
// distance. Candidates arrive ordered by id; strict less-than keeps the
// lower id on exact ties. -1 means there were no candidates.
func SelectNearest(origin geo.Coordinates, camps []models.Camp) (int, float64) {
	best := -1
	bestKm := 0.0
	for i := range camps {
		km := geo.Distance(origin, geo.Coordinates{
			Latitude:  camps[i].Latitude,
			Longitude: camps[i].Longitude,
		})
		if best < 0 || km < bestKm {
			best = i
			bestKm = km
		}
	}
	if best < 0 {
		return -1, 0
	}

	return best, geo.RoundKm(bestKm)
}
