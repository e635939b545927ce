package tracking

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Vaibhavsh0120/Connect2Give/internal/rate_limiter"
	"github.com/Vaibhavsh0120/Connect2Give/internal/volunteers"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/geo"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/metrics"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"github.com/gin-gonic/gin"
)

// StaleAfter is how long a volunteer may stay silent before the live view
// flags the position as stale.
const StaleAfter = 5 * time.Minute

// LocationUpdatesPerMinute caps how often one volunteer can report.
const LocationUpdatesPerMinute = 12

type LiveVolunteer struct {
	models.VolunteerProfile
	IsStale bool `json:"is_stale"`
}

// FlagStale decorates shared positions with a staleness marker.
func FlagStale(profiles []models.VolunteerProfile, now time.Time) []LiveVolunteer {
	view := make([]LiveVolunteer, 0, len(profiles))
	for _, profile := range profiles {
		view = append(view, LiveVolunteer{
			VolunteerProfile: profile,
			IsStale:          profile.LastSeenAt == nil || now.Sub(*profile.LastSeenAt) > StaleAfter,
		})
	}
	return view
}

type TrackingHandler struct {
	Repo          TrackingRepository
	VolunteerRepo volunteers.VolunteerRepository
	limiter       *rate_limiter.RateLimiter
}

func NewHandler(repo TrackingRepository, volunteerRepo volunteers.VolunteerRepository) *TrackingHandler {
	return &TrackingHandler{
		Repo:          repo,
		VolunteerRepo: volunteerRepo,
		limiter:       rate_limiter.NewRateLimiter(LocationUpdatesPerMinute, time.Minute),
	}
}

func (h *TrackingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/tracking/location", security.Authorize(security.RoleVolunteer), h.UpdateLocation)
	router.PATCH("/tracking/sharing", security.Authorize(security.RoleVolunteer), h.UpdateSharing)
	router.GET("/tracking/volunteers", security.Authorize(security.RoleNgo), h.LiveVolunteers)
}

func (h *TrackingHandler) UpdateLocation(c *gin.Context) {
	var req models.LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	volunteer, ok := h.currentVolunteer(c)
	if !ok {
		return
	}

	key := fmt.Sprintf("volunteer:%d", volunteer.ID)
	if !h.limiter.IsAllowed(key) {
		c.Header("X-RateLimit-Remaining", "0")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Too many location updates, slow down",
		})
		return
	}

	coordinates, err := geo.NewCoordinates(*req.Latitude, *req.Longitude)
	if err != nil {
		respondWithTrackingError(c, err, "Invalid position")
		return
	}

	seenAt := time.Now().UTC()
	if req.RecordedAt != nil {
		seenAt = req.RecordedAt.UTC()
	}

	updated, err := h.Repo.UpdateLocation(volunteer.ID, coordinates.Latitude, coordinates.Longitude, req.Accuracy, seenAt)
	if err != nil {
		respondWithTrackingError(c, err, "Unable to update location")
		return
	}

	metrics.LocationUpdates.Inc()
	c.Header("X-RateLimit-Remaining", strconv.Itoa(h.limiter.GetRemainingRequests(key)))
	c.JSON(http.StatusOK, updated)
}

func (h *TrackingHandler) UpdateSharing(c *gin.Context) {
	var req models.SharingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	volunteer, ok := h.currentVolunteer(c)
	if !ok {
		return
	}

	if err := h.Repo.SetSharing(volunteer.ID, *req.ShareLocation); err != nil {
		respondWithTrackingError(c, err, "Unable to update sharing preference")
		return
	}

	c.JSON(http.StatusOK, gin.H{"share_location": *req.ShareLocation})
}

func (h *TrackingHandler) LiveVolunteers(c *gin.Context) {
	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return
	}

	ngo, err := h.VolunteerRepo.GetNgoByUserID(userID)
	if err != nil {
		respondWithTrackingError(c, err, "No NGO profile for user")
		return
	}

	profiles, err := h.Repo.ListSharedPositions(ngo.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to list volunteers", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, FlagStale(profiles, time.Now().UTC()))
}

func (h *TrackingHandler) currentVolunteer(c *gin.Context) (*models.VolunteerProfile, bool) {
	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return nil, false
	}

	volunteer, err := h.VolunteerRepo.GetByUserID(userID)
	if err != nil {
		respondWithTrackingError(c, err, "No volunteer profile for user")
		return nil, false
	}

	return volunteer, true
}

func respondWithTrackingError(c *gin.Context, err error, message string) {
	var (
		invalidCoordinate *custom_error.InvalidCoordinateError
		notFound          *custom_error.NotFoundError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &invalidCoordinate):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message, "details": err.Error()})
}
