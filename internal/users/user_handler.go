package users

import (
	"errors"
	"net/http"
	"strconv"

	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/geo"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type UsersHandler struct {
	Repository UserRepository
}

func NewHandler(r UserRepository) *UsersHandler {
	return &UsersHandler{
		Repository: r,
	}
}

// RegisterPublicRoutes exposes signup outside the JWT gate. Everything else
// stays behind it.
func (h *UsersHandler) RegisterPublicRoutes(router *gin.Engine) {
	router.POST("/users", h.RegisterUser)
}

func (h *UsersHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users", security.Authorize(security.RoleAdmin), h.GetUserList)
	router.GET("/users/:id", h.GetUser)
	router.PATCH("/users/:id", h.UpdateUser)
}

func (h *UsersHandler) RegisterUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters long"})
		return
	}

	// Admin accounts are seeded or created by other admins, never by open
	// signup.
	if req.Role == security.RoleAdmin && !security.IsAllowed(c, security.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can create admin accounts"})
		return
	}

	if message := missingProfileField(req); message != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	if req.Latitude != nil && req.Longitude != nil {
		if _, err := geo.NewCoordinates(*req.Latitude, *req.Longitude); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates", "details": err.Error()})
			return
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user, err := h.Repository.PersistUser(req, hashedPassword)
	if err != nil {
		respondWithUserError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, user)
}

// missingProfileField names the first profile field the role requires but
// the payload lacks. Empty means the payload is complete.
func missingProfileField(req models.CreateUserRequest) string {
	switch req.Role {
	case security.RoleVolunteer:
		if req.Fullname == "" {
			return "fullname is required for volunteers"
		}
	case security.RoleRestaurant:
		if req.Name == "" || req.Address == "" {
			return "name and address are required for restaurants"
		}
		if req.Latitude == nil || req.Longitude == nil {
			return "latitude and longitude are required for restaurants"
		}
	case security.RoleNgo:
		if req.Name == "" || req.RegistrationNumber == "" {
			return "name and registration_number are required for NGOs"
		}
	}
	return ""
}

func (h *UsersHandler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID", "details": err.Error()})
		return
	}

	if !h.isAllowed(c, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "details": "You are not allowed to access this resource"})
		return
	}

	user, err := h.Repository.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unable to find user", "details": err.Error(), "code": "USER_NOT_FOUND"})
		return
	}

	changes := &models.UserChanges{}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters long"})
			return
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		passwordHash := string(hashedPassword)
		changes.PasswordHash = &passwordHash
	}

	if req.Role != nil && *req.Role != user.Role {
		if !security.IsAllowed(c, security.RoleAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can change roles"})
			return
		}
		role := *req.Role
		changes.Role = &role
	}

	if !changes.HasChanges() {
		c.JSON(http.StatusOK, user)
		return
	}

	if err := h.Repository.UpdateUser(userID, changes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user", "details": err.Error()})
		return
	}

	updatedUser, err := h.Repository.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get updated user", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, updatedUser)
}

func (h *UsersHandler) GetUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID", "details": err.Error()})
		return
	}

	if !h.isAllowed(c, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "details": "You are not allowed to access this resource"})
		return
	}

	user, err := h.Repository.GetUser(userID)
	if err != nil {
		respondWithUserError(c, err, "Unable to find user")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UsersHandler) GetUserList(c *gin.Context) {
	users, err := h.Repository.GetUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not obtain list of users", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, users)
}

// isAllowed permits a user to act on their own account and admins to act on
// any account.
func (h *UsersHandler) isAllowed(c *gin.Context, userID int) bool {
	authID, err := security.CurrentUserID(c)
	if err != nil {
		return false
	}

	if authID != userID && !security.IsAllowed(c, security.RoleAdmin) {
		return false
	}

	return true
}

func respondWithUserError(c *gin.Context, err error, message string) {
	var (
		notFound        *custom_error.NotFoundError
		uniqueViolation *custom_error.UniqueViolationError
		foreignKey      *custom_error.ForeignKeyViolationError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &uniqueViolation):
		status = http.StatusConflict
	case errors.As(err, &foreignKey):
		status = http.StatusBadRequest
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message, "details": err.Error()})
}
