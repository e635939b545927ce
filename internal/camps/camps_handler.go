package camps

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	"github.com/Vaibhavsh0120/Connect2Give/internal/volunteers"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/auditlog"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/geo"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"github.com/gin-gonic/gin"
)

type CampHandler struct {
	Service       *CampService
	VolunteerRepo volunteers.VolunteerRepository
	AuditLog      *auditlog.Auditlog
}

func NewHandler(service *CampService, volunteerRepo volunteers.VolunteerRepository, auditLog *auditlog.Auditlog) *CampHandler {
	return &CampHandler{
		Service:       service,
		VolunteerRepo: volunteerRepo,
		AuditLog:      auditLog,
	}
}

func (h *CampHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/camps", security.Authorize(security.RoleNgo), h.CreateCamp)
	router.GET("/camps", h.RetrieveCampList)
	router.GET("/camps/nearest", security.Authorize(security.RoleVolunteer), h.NearestCamp)
	router.GET("/camps/:id", h.GetCamp)
	router.PATCH("/camps/:id/complete", security.Authorize(security.RoleNgo), h.CompleteCamp)
}

func (h *CampHandler) CreateCamp(c *gin.Context) {
	var req models.CreateCampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	ngo, userID, ok := h.currentNgo(c)
	if !ok {
		return
	}

	camp, err := h.Service.Create(req, ngo.ID)
	if err != nil {
		respondWithCampError(c, err, "Unable to create camp")
		return
	}

	go h.AuditLog.Log("create", gin.H{"name": camp.Name}, camp, &userID)
	c.JSON(http.StatusCreated, camp)
}

func (h *CampHandler) RetrieveCampList(c *gin.Context) {
	qb := repository.NewQueryBuilder()
	if ngoID := c.Query("ngo_id"); ngoID != "" {
		id, err := strconv.Atoi(ngoID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid ngo_id parameter, must be an integer"})
			return
		}
		qb.AddCondition("ngo_id", id)
	}
	if active := c.Query("active"); active != "" {
		value, err := strconv.ParseBool(active)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid active parameter, must be a boolean"})
			return
		}
		qb.AddCondition("is_active", value)
	}

	camps, err := h.Service.List(qb)
	if err != nil {
		log.Println("Error executing SQL statement: ", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get camps", "details": err.Error()})
		return
	}
	if len(camps) == 0 {
		c.JSON(http.StatusOK, []models.Camp{})
		return
	}

	c.JSON(http.StatusOK, camps)
}

func (h *CampHandler) GetCamp(c *gin.Context) {
	campID, err := strconv.Atoi(c.Param("id"))
	if err != nil || campID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid camp ID parameter, must be an integer"})
		return
	}

	camp, err := h.Service.GetByID(campID)
	if err != nil {
		respondWithCampError(c, err, "Unable to get camp")
		return
	}

	c.JSON(http.StatusOK, camp)
}

func (h *CampHandler) CompleteCamp(c *gin.Context) {
	campID, err := strconv.Atoi(c.Param("id"))
	if err != nil || campID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid camp ID parameter, must be an integer"})
		return
	}

	ngo, userID, ok := h.currentNgo(c)
	if !ok {
		return
	}

	camp, err := h.Service.Complete(campID, ngo.ID)
	if err != nil {
		respondWithCampError(c, err, "Unable to complete camp")
		return
	}

	go h.AuditLog.Log("complete", gin.H{"name": camp.Name}, camp, &userID)
	c.JSON(http.StatusOK, camp)
}

// NearestCamp resolves the search origin from the query, falling back to
// the volunteer's stored position.
func (h *CampHandler) NearestCamp(c *gin.Context) {
	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return
	}

	volunteer, err := h.VolunteerRepo.GetByUserID(userID)
	if err != nil {
		respondWithCampError(c, err, "No volunteer profile for user")
		return
	}

	origin, ok := h.resolveOrigin(c, volunteer)
	if !ok {
		return
	}

	camp, distanceKm, err := h.Service.NearestCamp(origin, volunteer.ID)
	if err != nil {
		respondWithCampError(c, err, "Unable to find a camp")
		return
	}

	c.JSON(http.StatusOK, gin.H{"camp": camp, "distance_km": distanceKm})
}

func (h *CampHandler) currentNgo(c *gin.Context) (*models.NGO, int, bool) {
	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return nil, 0, false
	}

	ngo, err := h.VolunteerRepo.GetNgoByUserID(userID)
	if err != nil {
		respondWithCampError(c, err, "No NGO profile for user")
		return nil, 0, false
	}

	return ngo, userID, true
}

func (h *CampHandler) resolveOrigin(c *gin.Context, volunteer *models.VolunteerProfile) (geo.Coordinates, bool) {
	rawLat := c.Query("lat")
	rawLon := c.Query("lon")

	if rawLat != "" || rawLon != "" {
		latitude, errLat := strconv.ParseFloat(rawLat, 64)
		longitude, errLon := strconv.ParseFloat(rawLon, 64)
		if errLat != nil || errLon != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "lat and lon must both be valid numbers"})
			return geo.Coordinates{}, false
		}

		origin, err := geo.NewCoordinates(latitude, longitude)
		if err != nil {
			respondWithCampError(c, err, "Invalid origin")
			return geo.Coordinates{}, false
		}
		return origin, true
	}

	if !volunteer.HasPosition() {
		err := &custom_error.NoOriginAvailableError{VolunteerID: volunteer.ID}
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "No usable origin", "details": err.Error()})
		return geo.Coordinates{}, false
	}

	return geo.Coordinates{Latitude: *volunteer.LastLatitude, Longitude: *volunteer.LastLongitude}, true
}

func respondWithCampError(c *gin.Context, err error, message string) {
	var (
		invalidCoordinate *custom_error.InvalidCoordinateError
		invalidCamp       *custom_error.InvalidCampError
		forbidden         *custom_error.ForbiddenError
		notFound          *custom_error.NotFoundError
		noCamp            *custom_error.NoCampAvailableError
		uniqueViolation   *custom_error.UniqueViolationError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &invalidCoordinate), errors.As(err, &invalidCamp):
		status = http.StatusBadRequest
	case errors.As(err, &forbidden):
		status = http.StatusForbidden
	case errors.As(err, &notFound), errors.As(err, &noCamp):
		status = http.StatusNotFound
	case errors.As(err, &uniqueViolation):
		status = http.StatusConflict
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message, "details": err.Error()})
}
