package volunteers

import (
	"fmt"
	"sort"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/metadata"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

var volunteerColumns = []interface{}{
	"id", "user_id", "fullname", "phone", "last_latitude", "last_longitude",
	"last_accuracy", "last_seen_at", "share_location", "created_at",
}

type VolunteerRepository interface {
	GetByID(volunteerID int) (*models.VolunteerProfile, error)
	GetByUserID(userID int) (*models.VolunteerProfile, error)
	GetNgoByUserID(userID int) (*models.NGO, error)
	Leaderboard(limit int) ([]models.LeaderboardEntry, error)
	GetTrust(volunteerID int) (*models.TrustScore, error)
	RegisterWithNgo(ngoID, volunteerID int) error
}

type volunteerRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) VolunteerRepository {
	return &volunteerRepositoryImpl{repository: r}
}

func (r *volunteerRepositoryImpl) GetByID(volunteerID int) (*models.VolunteerProfile, error) {
	return r.getOne(goqu.Ex{"id": volunteerID}, volunteerID)
}

func (r *volunteerRepositoryImpl) GetByUserID(userID int) (*models.VolunteerProfile, error) {
	return r.getOne(goqu.Ex{"user_id": userID}, userID)
}

func (r *volunteerRepositoryImpl) getOne(condition goqu.Ex, id int) (*models.VolunteerProfile, error) {
	var volunteer models.VolunteerProfile
	query := r.repository.GoquDBWrapper.Select(volunteerColumns...).
		From("volunteers").
		Where(condition)

	found, err := query.Executor().ScanStruct(&volunteer)
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer: %w", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "volunteer", ID: id}
	}

	return &volunteer, nil
}

func (r *volunteerRepositoryImpl) GetNgoByUserID(userID int) (*models.NGO, error) {
	var ngo models.NGO
	query := r.repository.GoquDBWrapper.
		Select("id", "user_id", "name", "registration_number", "address", "latitude", "longitude", "created_at").
		From("ngos").
		Where(goqu.Ex{"user_id": userID})

	found, err := query.Executor().ScanStruct(&ngo)
	if err != nil {
		return nil, fmt.Errorf("failed to get NGO profile: %w", err)
	}
	if !found {
		return nil, &custom_error.NotFoundError{Resource: "NGO profile for user", ID: userID}
	}

	return &ngo, nil
}

// Leaderboard ranks volunteers by verified deliveries and average rating.
// The score is computed Go side so the ranking rule stays in one place.
func (r *volunteerRepositoryImpl) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	query := r.repository.GoquDBWrapper.
		From(goqu.T("volunteers").As("v")).
		Join(
			goqu.T("donations").As("d"),
			goqu.On(goqu.Ex{"d.claimed_by": goqu.I("v.id"), "d.status": string(metadata.StatusDelivered)}),
		).
		Select(
			goqu.I("v.id").As("volunteer_id"),
			goqu.I("v.fullname").As("fullname"),
			goqu.COUNT(goqu.I("d.id")).As("deliveries"),
			goqu.AVG(goqu.I("d.rating")).As("average_rating"),
		).
		GroupBy(goqu.I("v.id"), goqu.I("v.fullname"))

	if err := query.Executor().ScanStructs(&entries); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	RankLeaderboard(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// RankLeaderboard fills in scores and sorts entries best first. Ties break
// on the lower volunteer id so the ordering is stable across requests.
func RankLeaderboard(entries []models.LeaderboardEntry) {
	for i := range entries {
		rating := 0.0
		if entries[i].AverageRating != nil {
			rating = *entries[i].AverageRating
		}
		entries[i].Score = float64(entries[i].Deliveries) + 2*rating
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].VolunteerID < entries[j].VolunteerID
	})
}

// GetTrust returns the stored trust row, or the starting score for a
// volunteer who has no verification history yet.
func (r *volunteerRepositoryImpl) GetTrust(volunteerID int) (*models.TrustScore, error) {
	if _, err := r.GetByID(volunteerID); err != nil {
		return nil, err
	}

	var trust models.TrustScore
	query := r.repository.GoquDBWrapper.
		Select("volunteer_id", "total_deliveries", "verified_deliveries", "rejected_deliveries",
			"average_rating", "trust_score", "badges", "updated_at").
		From("trust_scores").
		Where(goqu.Ex{"volunteer_id": volunteerID})

	found, err := query.Executor().ScanStruct(&trust)
	if err != nil {
		return nil, fmt.Errorf("failed to get trust score: %w", err)
	}
	if !found {
		return &models.TrustScore{
			VolunteerID: volunteerID,
			Score:       ComputeTrustScore(0, 0),
			Badges:      []string{},
		}, nil
	}

	trust.LoadFromDB()
	return &trust, nil
}

func (r *volunteerRepositoryImpl) RegisterWithNgo(ngoID, volunteerID int) error {
	query := r.repository.GoquDBWrapper.Insert("ngo_volunteers").
		Rows(goqu.Record{
			"ngo_id":       ngoID,
			"volunteer_id": volunteerID,
		})

	if _, err := query.Executor().Exec(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError("volunteer registration", string(pqErr.Code))
		}
		return fmt.Errorf("failed to register volunteer with NGO: %w", err)
	}

	return nil
}
