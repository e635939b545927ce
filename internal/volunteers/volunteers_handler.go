package volunteers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Vaibhavsh0120/Connect2Give/pkg/auditlog"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"github.com/gin-gonic/gin"
)

const DefaultLeaderboardSize = 20

type VolunteerHandler struct {
	Repo     VolunteerRepository
	AuditLog *auditlog.Auditlog
}

func NewHandler(repo VolunteerRepository, auditLog *auditlog.Auditlog) *VolunteerHandler {
	return &VolunteerHandler{
		Repo:     repo,
		AuditLog: auditLog,
	}
}

func (h *VolunteerHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/volunteers/leaderboard", h.Leaderboard)
	router.GET("/volunteers/:id/trust", h.Trust)
	router.POST("/ngos/volunteers", security.Authorize(security.RoleNgo), h.RegisterVolunteer)
}

func (h *VolunteerHandler) Leaderboard(c *gin.Context) {
	limit := DefaultLeaderboardSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter, must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.Repo.Leaderboard(limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get leaderboard", "details": err.Error()})
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusOK, []models.LeaderboardEntry{})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *VolunteerHandler) Trust(c *gin.Context) {
	volunteerID, err := strconv.Atoi(c.Param("id"))
	if err != nil || volunteerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid volunteer ID parameter, must be an integer"})
		return
	}

	trust, err := h.Repo.GetTrust(volunteerID)
	if err != nil {
		respondWithVolunteerError(c, err, "Unable to get trust score")
		return
	}

	c.JSON(http.StatusOK, trust)
}

// RegisterVolunteer affiliates a volunteer with the calling NGO. The
// affiliation gates which camps the volunteer may deliver to.
func (h *VolunteerHandler) RegisterVolunteer(c *gin.Context) {
	var req models.RegisterVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return
	}

	ngo, err := h.Repo.GetNgoByUserID(userID)
	if err != nil {
		respondWithVolunteerError(c, err, "No NGO profile for user")
		return
	}

	volunteer, err := h.Repo.GetByID(req.VolunteerID)
	if err != nil {
		respondWithVolunteerError(c, err, "Unable to register volunteer")
		return
	}

	if err := h.Repo.RegisterWithNgo(ngo.ID, volunteer.ID); err != nil {
		respondWithVolunteerError(c, err, "Unable to register volunteer")
		return
	}

	go h.AuditLog.Log("register", gin.H{"ngo_id": ngo.ID}, volunteer, &userID)
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Volunteer registered with NGO",
		"ngo_id":       ngo.ID,
		"volunteer_id": volunteer.ID,
	})
}

func respondWithVolunteerError(c *gin.Context, err error, message string) {
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
