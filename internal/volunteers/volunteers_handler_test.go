package volunteers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Vaibhavsh0120/Connect2Give/pkg/auditlog"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
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

// nopPersister swallows audit entries so the async audit goroutine never
// races with mock assertions.
type nopPersister struct{}

func (nopPersister) PersistLog(models.AuditLog, interface{}) error { return nil }

func setupVolunteerRouter(handler *VolunteerHandler, userID int, role string) *gin.Engine {
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

func newTestHandler(repo VolunteerRepository) *VolunteerHandler {
	return NewHandler(repo, auditlog.NewAuditLog(nopPersister{}))
}

func TestLeaderboardEndpoint(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 1, "volunteer")

	rating := 4.5
	repo.On("Leaderboard", DefaultLeaderboardSize).Return([]models.LeaderboardEntry{
		{VolunteerID: 3, Fullname: "Asha Rao", Deliveries: 12, AverageRating: &rating, Score: 21},
		{VolunteerID: 8, Fullname: "Vikram Shah", Deliveries: 9, Score: 9},
	}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/volunteers/leaderboard", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var entries []models.LeaderboardEntry
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].VolunteerID)
	assert.Equal(t, 21.0, entries[0].Score)

	repo.AssertExpectations(t)
}

func TestLeaderboardCustomLimit(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 1, "volunteer")

	repo.On("Leaderboard", 5).Return([]models.LeaderboardEntry{}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/volunteers/leaderboard?limit=5", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestLeaderboardRejectsInvalidLimit(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 1, "volunteer")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/volunteers/leaderboard?limit=-3", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Leaderboard", mock.Anything)
}

func TestLeaderboardEmptyIsArray(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 1, "volunteer")

	repo.On("Leaderboard", DefaultLeaderboardSize).Return([]models.LeaderboardEntry{}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/volunteers/leaderboard", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestTrustEndpoint(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 1, "volunteer")

	repo.On("GetTrust", 9).Return(&models.TrustScore{
		VolunteerID:        9,
		TotalDeliveries:    12,
		VerifiedDeliveries: 11,
		RejectedDeliveries: 1,
		Score:              91.67,
		Badges:             []string{BadgeVerified, BadgeTrusted},
	}, nil).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/volunteers/9/trust", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var trust models.TrustScore
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &trust))
	assert.Equal(t, 91.67, trust.Score)
	assert.Contains(t, trust.Badges, BadgeTrusted)

	repo.AssertExpectations(t)
}

func TestTrustUnknownVolunteer(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 1, "volunteer")

	repo.On("GetTrust", 404).
		Return(nil, &custom_error.NotFoundError{Resource: "volunteer", ID: 404}).
		Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/volunteers/404/trust", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrustRejectsNonNumericID(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 1, "volunteer")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/volunteers/abc/trust", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "GetTrust", mock.Anything)
}

func TestRegisterVolunteerEndpoint(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 17, "ngo")

	repo.On("GetNgoByUserID", 17).Return(&models.NGO{ID: 4, UserID: 17}, nil).Once()
	repo.On("GetByID", 5).Return(&models.VolunteerProfile{ID: 5}, nil).Once()
	repo.On("RegisterWithNgo", 4, 5).Return(nil).Once()

	body, _ := json.Marshal(gin.H{"volunteer_id": 5})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/ngos/volunteers", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(4), response["ngo_id"])
	assert.Equal(t, float64(5), response["volunteer_id"])

	repo.AssertExpectations(t)
}

func TestRegisterVolunteerTwiceConflicts(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 17, "ngo")

	repo.On("GetNgoByUserID", 17).Return(&models.NGO{ID: 4, UserID: 17}, nil).Once()
	repo.On("GetByID", 5).Return(&models.VolunteerProfile{ID: 5}, nil).Once()
	repo.On("RegisterWithNgo", 4, 5).
		Return(custom_error.WrapDBError("volunteer registration", "23505")).
		Once()

	body, _ := json.Marshal(gin.H{"volunteer_id": 5})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/ngos/volunteers", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterUnknownVolunteer(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 17, "ngo")

	repo.On("GetNgoByUserID", 17).Return(&models.NGO{ID: 4, UserID: 17}, nil).Once()
	repo.On("GetByID", 99).
		Return(nil, &custom_error.NotFoundError{Resource: "volunteer", ID: 99}).
		Once()

	body, _ := json.Marshal(gin.H{"volunteer_id": 99})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/ngos/volunteers", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	repo.AssertNotCalled(t, "RegisterWithNgo", mock.Anything, mock.Anything)
}

func TestRegisterVolunteerRequiresNgoRole(t *testing.T) {
	repo := new(MockVolunteerRepository)
	router := setupVolunteerRouter(newTestHandler(repo), 9, "volunteer")

	body, _ := json.Marshal(gin.H{"volunteer_id": 5})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/ngos/volunteers", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	repo.AssertNotCalled(t, "RegisterWithNgo", mock.Anything, mock.Anything)
}
