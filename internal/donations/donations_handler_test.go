package donations

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Vaibhavsh0120/Connect2Give/internal/events"
	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/auditlog"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/metadata"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockVolunteerRepository struct {
	mock.Mock
}

func (m *MockVolunteerRepository) GetByID(volunteerID int) (*models.VolunteerProfile, error) {
	args := m.Called(volunteerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VolunteerProfile), args.Error(1)
}

func (m *MockVolunteerRepository) GetByUserID(userID int) (*models.VolunteerProfile, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VolunteerProfile), args.Error(1)
}

func (m *MockVolunteerRepository) GetNgoByUserID(userID int) (*models.NGO, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NGO), args.Error(1)
}

func (m *MockVolunteerRepository) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

func (m *MockVolunteerRepository) GetTrust(volunteerID int) (*models.TrustScore, error) {
	args := m.Called(volunteerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrustScore), args.Error(1)
}

func (m *MockVolunteerRepository) RegisterWithNgo(ngoID, volunteerID int) error {
	args := m.Called(ngoID, volunteerID)
	return args.Error(0)
}

type nopPersister struct{}

func (nopPersister) PersistLog(auditLog models.AuditLog, auditLogData interface{}) error {
	return nil
}

type MockHistorySource struct {
	mock.Mock
}

func (m *MockHistorySource) GetResourceLog(id int, resourceType string) (*[]models.AuditLog, error) {
	args := m.Called(id, resourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*[]models.AuditLog), args.Error(1)
}

type nopPublisher struct{}

func (nopPublisher) Publish(event events.DonationEvent) {}

func setupDonationRouter(handler *DonationHandler, userID int, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", strconv.Itoa(userID))
		c.Set("role", role)
		c.Next()
	})
	handler.RegisterRoutes(router.Group("/"))
	return router
}

func newTestHandler(repo *MockDonationRepository, volunteerRepo *MockVolunteerRepository) *DonationHandler {
	service := NewDonationService(repo, nopPublisher{}, zap.NewNop())
	return NewHandler(service, volunteerRepo, auditlog.NewAuditLog(nopPersister{}), new(MockHistorySource))
}

func TestClaimDonationEndpoint(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	volunteerID := 5
	volunteerRepo.On("GetByUserID", 9).Return(&models.VolunteerProfile{ID: 5, UserID: 9}, nil).Once()
	repo.On("Claim", 7, 5).Return(&models.Donation{
		ID:        7,
		Status:    metadata.StatusAccepted,
		ClaimedBy: &volunteerID,
	}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/7/claim", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.Donation
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, metadata.StatusAccepted, response.Status)
	assert.Equal(t, 5, *response.ClaimedBy)

	repo.AssertExpectations(t)
	volunteerRepo.AssertExpectations(t)
}

func TestClaimDonationLostRaceReturnsConflict(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	volunteerRepo.On("GetByUserID", 9).Return(&models.VolunteerProfile{ID: 5, UserID: 9}, nil).Once()
	repo.On("Claim", 7, 5).
		Return(nil, &custom_error.AlreadyClaimedError{DonationID: 7, Status: "ACCEPTED"}).
		Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/7/claim", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Unable to claim donation", response["error"])

	repo.AssertExpectations(t)
}

func TestClaimDonationAtCapacityReturnsConflict(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	volunteerRepo.On("GetByUserID", 9).Return(&models.VolunteerProfile{ID: 5, UserID: 9}, nil).Once()
	repo.On("Claim", 7, 5).
		Return(nil, &custom_error.CapacityExceededError{VolunteerID: 5, Limit: MaxActivePickups}).
		Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/7/claim", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "active pickups")
}

func TestClaimDonationRequiresVolunteerRole(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "restaurant")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/7/claim", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	repo.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything)
}

func TestAdminPassesRoleGate(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 1, "admin")

	volunteerRepo.On("GetByUserID", 1).
		Return(nil, &custom_error.NotFoundError{Resource: "volunteer", ID: 1}).
		Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/7/claim", nil)
	router.ServeHTTP(w, req)

	// Past the role gate, an admin without a volunteer profile gets 404.
	assert.Equal(t, http.StatusNotFound, w.Code)
	volunteerRepo.AssertExpectations(t)
}

func TestCreateDonationEndpoint(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 4, "restaurant")

	repo.On("GetRestaurantByUserID", 4).Return(&models.Restaurant{ID: 3, UserID: 4}, nil).Once()
	repo.On("Insert", mock.MatchedBy(func(donation *models.Donation) bool {
		return donation.RestaurantID == 3 && donation.FoodDetails == "cooked rice"
	})).Run(func(args mock.Arguments) {
		inserted := args.Get(0).(*models.Donation)
		inserted.ID = 42
		inserted.Status = metadata.StatusPending
	}).Return(nil).Once()

	body, _ := json.Marshal(gin.H{
		"food_details":   "cooked rice",
		"quantity":       "4 kg",
		"pickup_address": "12 Main St",
		"latitude":       28.6,
		"longitude":      77.2,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response models.Donation
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 42, response.ID)
	assert.Equal(t, metadata.StatusPending, response.Status)

	repo.AssertExpectations(t)
}

func TestCreateDonationRejectsMissingCoordinates(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 4, "restaurant")

	body, _ := json.Marshal(gin.H{
		"food_details":   "cooked rice",
		"quantity":       "4 kg",
		"pickup_address": "12 Main St",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestCreateDonationRejectsOutOfRangeLatitude(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 4, "restaurant")

	repo.On("GetRestaurantByUserID", 4).Return(&models.Restaurant{ID: 3, UserID: 4}, nil).Once()

	body, _ := json.Marshal(gin.H{
		"food_details":   "cooked rice",
		"quantity":       "4 kg",
		"pickup_address": "12 Main St",
		"latitude":       91.0,
		"longitude":      77.2,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestDeliverBatchEndpoint(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	volunteerRepo.On("GetByUserID", 9).Return(&models.VolunteerProfile{ID: 5, UserID: 9}, nil).Once()
	repo.On("DeliverBatch", 5, 2).Return([]models.Donation{
		{ID: 1, Status: metadata.StatusVerificationPending},
		{ID: 2, Status: metadata.StatusVerificationPending},
	}, nil).Once()

	body, _ := json.Marshal(gin.H{"camp_id": 2})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/deliver", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(2), response["delivered"])

	repo.AssertExpectations(t)
}

func TestDeliverBatchRejectsUnaffiliatedCamp(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	volunteerRepo.On("GetByUserID", 9).Return(&models.VolunteerProfile{ID: 5, UserID: 9}, nil).Once()
	repo.On("DeliverBatch", 5, 8).
		Return(nil, &custom_error.InvalidCampError{CampID: 8, Reason: "camp is not operated by the volunteer's registered NGOs"}).
		Once()

	body, _ := json.Marshal(gin.H{"camp_id": 8})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/deliver", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertExpectations(t)
}

func TestVerifyDonationEndpoint(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 17, "ngo")

	volunteerRepo.On("GetNgoByUserID", 17).Return(&models.NGO{ID: 4, UserID: 17}, nil).Once()
	rating := 5
	repo.On("Verify", 9, 4, 17, 5, "", "sealed boxes").Return(&models.Donation{
		ID:     9,
		Status: metadata.StatusDelivered,
		Rating: &rating,
	}, nil).Once()

	body, _ := json.Marshal(gin.H{"rating": 5, "notes": "sealed boxes"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/9/verify", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.Donation
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, metadata.StatusDelivered, response.Status)
	assert.Equal(t, 5, *response.Rating)

	repo.AssertExpectations(t)
	volunteerRepo.AssertExpectations(t)
}

func TestVerifyDonationRejectsRatingOutOfRange(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 17, "ngo")

	body, _ := json.Marshal(gin.H{"rating": 6})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/9/verify", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyDonationFromForeignCampForbidden(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 17, "ngo")

	volunteerRepo.On("GetNgoByUserID", 17).Return(&models.NGO{ID: 4, UserID: 17}, nil).Once()
	repo.On("Verify", 9, 4, 17, 5, "", "").
		Return(nil, &custom_error.ForbiddenError{Reason: "NGO 4 does not operate the delivery camp of donation 9"}).
		Once()

	body, _ := json.Marshal(gin.H{"rating": 5})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/donations/9/verify", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	repo.AssertExpectations(t)
}

func TestGetDonationNotFound(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	repo.On("GetByID", 123).
		Return(nil, &custom_error.NotFoundError{Resource: "donation", ID: 123}).
		Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/donations/123", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	repo.AssertExpectations(t)
}

func TestRetrieveDonationListFiltersByStatus(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	repo.On("List", mock.MatchedBy(func(qb repository.QueryBuilder) bool {
		conditions := qb.BuildConditions(map[string]string{})
		return conditions["status"] == "PENDING"
	})).Return([]models.Donation{{ID: 1, Status: metadata.StatusPending}}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/donations?status=PENDING", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []models.Donation
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 1)

	repo.AssertExpectations(t)
}

func TestRetrieveDonationListEmptyIsArray(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	repo.On("List", mock.Anything).Return([]models.Donation{}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/donations", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestDonationHistoryEndpoint(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	history := new(MockHistorySource)
	service := NewDonationService(repo, nopPublisher{}, zap.NewNop())
	handler := NewHandler(service, volunteerRepo, auditlog.NewAuditLog(nopPersister{}), history)
	router := setupDonationRouter(handler, 4, "restaurant")

	repo.On("GetByID", 7).Return(&models.Donation{ID: 7, Status: metadata.StatusAccepted}, nil).Once()
	entries := []models.AuditLog{
		{ID: 1, ResourceID: 7, ResourceType: "donation", Action: "create"},
		{ID: 2, ResourceID: 7, ResourceType: "donation", Action: "claim"},
	}
	history.On("GetResourceLog", 7, "donation").Return(&entries, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/donations/7/history", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []models.AuditLog
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 2)
	assert.Equal(t, "claim", response[1].Action)

	history.AssertExpectations(t)
}

func TestDonationHistoryUnknownDonation(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 4, "restaurant")

	repo.On("GetByID", 123).
		Return(nil, &custom_error.NotFoundError{Resource: "donation", ID: 123}).
		Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/donations/123/history", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	repo.AssertExpectations(t)
}

func TestCancelPickupEndpointIsRepeatableAsConflict(t *testing.T) {
	repo := new(MockDonationRepository)
	volunteerRepo := new(MockVolunteerRepository)
	handler := newTestHandler(repo, volunteerRepo)
	router := setupDonationRouter(handler, 9, "volunteer")

	volunteerRepo.On("GetByUserID", 9).Return(&models.VolunteerProfile{ID: 5, UserID: 9}, nil).Twice()
	repo.On("CancelPickup", 7, 5).Return(&models.Donation{ID: 7, Status: metadata.StatusPending}, nil).Once()
	repo.On("CancelPickup", 7, 5).
		Return(nil, &custom_error.InvalidTransitionError{DonationID: 7, Status: "PENDING", Requested: "PENDING"}).
		Once()

	first := httptest.NewRecorder()
	req1, _ := http.NewRequest("POST", "/donations/7/cancel", nil)
	router.ServeHTTP(first, req1)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req2, _ := http.NewRequest("POST", "/donations/7/cancel", nil)
	router.ServeHTTP(second, req2)
	assert.Equal(t, http.StatusConflict, second.Code)

	repo.AssertExpectations(t)
}
