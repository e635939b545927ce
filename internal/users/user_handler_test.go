package users

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) PersistUser(req models.CreateUserRequest, hashedPassword []byte) (*models.User, error) {
	args := m.Called(req, hashedPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUser(id int) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUsers() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(id int, changes *models.UserChanges) error {
	args := m.Called(id, changes)
	return args.Error(0)
}

// setupTestContext builds a request context. Empty userID or role simulate
// the public signup route, which runs outside the JWT middleware.
func setupTestContext(userID, role string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if userID != "" {
		c.Set("userID", userID)
	}
	if role != "" {
		c.Set("role", role)
	}
	return c, w
}

func floatPtr(f float64) *float64 {
	return &f
}

func stringPtr(s string) *string {
	return &s
}

func TestRegisterUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo)

	tests := []struct {
		name           string
		payload        models.CreateUserRequest
		contextUserID  string
		contextRole    string
		setupMock      func()
		expectedStatus int
	}{
		{
			name: "volunteer signup",
			payload: models.CreateUserRequest{
				Username: "asha",
				Password: "password123",
				Fullname: "Asha Rao",
				Role:     "volunteer",
				Phone:    "+91-9000000001",
			},
			setupMock: func() {
				mockRepo.On("PersistUser", mock.Anything, mock.Anything).
					Return(&models.User{ID: 1, Username: "asha", Role: "volunteer"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "restaurant signup with coordinates",
			payload: models.CreateUserRequest{
				Username:  "tandoor",
				Password:  "password123",
				Role:      "restaurant",
				Name:      "Tandoor House",
				Address:   "12 MG Road",
				Latitude:  floatPtr(28.6),
				Longitude: floatPtr(77.2),
			},
			setupMock: func() {
				mockRepo.On("PersistUser", mock.Anything, mock.Anything).
					Return(&models.User{ID: 2, Username: "tandoor", Role: "restaurant"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "password too short",
			payload: models.CreateUserRequest{
				Username: "asha",
				Password: "123",
				Fullname: "Asha Rao",
				Role:     "volunteer",
			},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "restaurant without coordinates",
			payload: models.CreateUserRequest{
				Username: "tandoor",
				Password: "password123",
				Role:     "restaurant",
				Name:     "Tandoor House",
				Address:  "12 MG Road",
			},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "restaurant with out of range coordinates",
			payload: models.CreateUserRequest{
				Username:  "tandoor",
				Password:  "password123",
				Role:      "restaurant",
				Name:      "Tandoor House",
				Address:   "12 MG Road",
				Latitude:  floatPtr(91),
				Longitude: floatPtr(77.2),
			},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "ngo without registration number",
			payload: models.CreateUserRequest{
				Username: "helpinghands",
				Password: "password123",
				Role:     "ngo",
				Name:     "Helping Hands",
			},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "admin signup from public route",
			payload: models.CreateUserRequest{
				Username: "root",
				Password: "password123",
				Role:     "admin",
			},
			setupMock:      func() {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "admin created by admin",
			payload: models.CreateUserRequest{
				Username: "root2",
				Password: "password123",
				Role:     "admin",
			},
			contextUserID: "1",
			contextRole:   "admin",
			setupMock: func() {
				mockRepo.On("PersistUser", mock.Anything, mock.Anything).
					Return(&models.User{ID: 3, Username: "root2", Role: "admin"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate username",
			payload: models.CreateUserRequest{
				Username: "asha",
				Password: "password123",
				Fullname: "Asha Rao",
				Role:     "volunteer",
			},
			setupMock: func() {
				mockRepo.On("PersistUser", mock.Anything, mock.Anything).
					Return(nil, custom_error.WrapDBError("username asha", "23505"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "repository error",
			payload: models.CreateUserRequest{
				Username: "asha",
				Password: "password123",
				Fullname: "Asha Rao",
				Role:     "volunteer",
			},
			setupMock: func() {
				mockRepo.On("PersistUser", mock.Anything, mock.Anything).
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			tt.setupMock()
			c, w := setupTestContext(tt.contextUserID, tt.contextRole)

			body, _ := json.Marshal(tt.payload)
			c.Request = httptest.NewRequest("POST", "/users", bytes.NewBuffer(body))

			handler.RegisterUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo)

	tests := []struct {
		name           string
		userID         string
		contextUserID  string
		contextRole    string
		payload        models.UpdateUserRequest
		setupMock      func()
		expectedStatus int
	}{
		{
			name:          "own password update",
			userID:        "1",
			contextUserID: "1",
			contextRole:   "volunteer",
			payload: models.UpdateUserRequest{
				Password: stringPtr("newPassword123"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{
					ID:           1,
					Username:     "asha",
					PasswordHash: "oldHash",
					Role:         "volunteer",
				}, nil).Once()
				mockRepo.On("UpdateUser", 1, mock.MatchedBy(func(changes *models.UserChanges) bool {
					return changes.PasswordHash != nil && *changes.PasswordHash != "oldHash"
				})).Return(nil)
				mockRepo.On("GetUser", 1).Return(&models.User{
					ID:           1,
					Username:     "asha",
					PasswordHash: "newHash",
					Role:         "volunteer",
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:          "password too short",
			userID:        "1",
			contextUserID: "1",
			contextRole:   "volunteer",
			payload: models.UpdateUserRequest{
				Password: stringPtr("123"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{
					ID:           1,
					Username:     "asha",
					PasswordHash: "oldHash",
					Role:         "volunteer",
				}, nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:          "role change by non-admin",
			userID:        "1",
			contextUserID: "1",
			contextRole:   "volunteer",
			payload: models.UpdateUserRequest{
				Role: stringPtr("ngo"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{
					ID:       1,
					Username: "asha",
					Role:     "volunteer",
				}, nil)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:          "role change by admin",
			userID:        "2",
			contextUserID: "1",
			contextRole:   "admin",
			payload: models.UpdateUserRequest{
				Role: stringPtr("ngo"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 2).Return(&models.User{
					ID:       2,
					Username: "asha",
					Role:     "volunteer",
				}, nil).Once()
				mockRepo.On("UpdateUser", 2, mock.MatchedBy(func(changes *models.UserChanges) bool {
					return changes.Role != nil && *changes.Role == "ngo"
				})).Return(nil)
				mockRepo.On("GetUser", 2).Return(&models.User{
					ID:       2,
					Username: "asha",
					Role:     "ngo",
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:          "foreign account by non-admin",
			userID:        "2",
			contextUserID: "1",
			contextRole:   "volunteer",
			payload: models.UpdateUserRequest{
				Password: stringPtr("newPassword123"),
			},
			setupMock:      func() {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:          "user not found",
			userID:        "999",
			contextUserID: "1",
			contextRole:   "admin",
			payload: models.UpdateUserRequest{
				Password: stringPtr("newPassword123"),
			},
			setupMock: func() {
				mockRepo.On("GetUser", 999).
					Return(nil, &custom_error.NotFoundError{Resource: "user", ID: 999})
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:          "no changes returns current user",
			userID:        "1",
			contextUserID: "1",
			contextRole:   "volunteer",
			payload:       models.UpdateUserRequest{},
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{
					ID:       1,
					Username: "asha",
					Role:     "volunteer",
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			tt.setupMock()
			c, w := setupTestContext(tt.contextUserID, tt.contextRole)

			body, _ := json.Marshal(tt.payload)
			c.Request = httptest.NewRequest("PATCH", "/users/"+tt.userID, bytes.NewBuffer(body))
			c.Params = []gin.Param{{Key: "id", Value: tt.userID}}

			handler.UpdateUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo)

	tests := []struct {
		name           string
		userID         string
		contextUserID  string
		contextRole    string
		setupMock      func()
		expectedStatus int
	}{
		{
			name:          "own account",
			userID:        "1",
			contextUserID: "1",
			contextRole:   "volunteer",
			setupMock: func() {
				mockRepo.On("GetUser", 1).Return(&models.User{ID: 1, Username: "asha"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:          "foreign account as admin",
			userID:        "2",
			contextUserID: "1",
			contextRole:   "admin",
			setupMock: func() {
				mockRepo.On("GetUser", 2).Return(&models.User{ID: 2, Username: "vikram"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "foreign account as volunteer",
			userID:         "2",
			contextUserID:  "1",
			contextRole:    "volunteer",
			setupMock:      func() {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "invalid user ID",
			userID:         "invalid",
			contextUserID:  "1",
			contextRole:    "admin",
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:          "user not found",
			userID:        "999",
			contextUserID: "1",
			contextRole:   "admin",
			setupMock: func() {
				mockRepo.On("GetUser", 999).
					Return(nil, &custom_error.NotFoundError{Resource: "user", ID: 999})
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			tt.setupMock()
			c, w := setupTestContext(tt.contextUserID, tt.contextRole)

			c.Request = httptest.NewRequest("GET", "/users/"+tt.userID, nil)
			c.Params = []gin.Param{{Key: "id", Value: tt.userID}}

			handler.GetUser(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetUserList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockRepo := new(MockUserRepository)
	handler := NewHandler(mockRepo)

	tests := []struct {
		name           string
		setupMock      func()
		expectedStatus int
	}{
		{
			name: "successful list retrieval",
			setupMock: func() {
				mockRepo.On("GetUsers").Return([]models.User{
					{ID: 1, Username: "asha"},
					{ID: 2, Username: "vikram"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "repository error",
			setupMock: func() {
				mockRepo.On("GetUsers").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.ExpectedCalls = nil
			tt.setupMock()
			c, w := setupTestContext("1", "admin")
			c.Request = httptest.NewRequest("GET", "/users", nil)

			handler.GetUserList(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}
