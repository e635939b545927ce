package routing

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Vaibhavsh0120/Connect2Give/internal/volunteers"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/geo"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	Service       *RouteService
	VolunteerRepo volunteers.VolunteerRepository
}

func NewHandler(service *RouteService, volunteerRepo volunteers.VolunteerRepository) *RouteHandler {
	return &RouteHandler{
		Service:       service,
		VolunteerRepo: volunteerRepo,
	}
}

func (h *RouteHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/routes/pickup", security.Authorize(security.RoleVolunteer), h.PickupRoute)
	router.GET("/routes/delivery", security.Authorize(security.RoleVolunteer), h.DeliveryRoute)
}

func (h *RouteHandler) PickupRoute(c *gin.Context) {
	volunteer, origin, ok := h.volunteerAndOrigin(c)
	if !ok {
		return
	}

	route, err := h.Service.PickupRoute(c.Request.Context(), volunteer.ID, origin)
	if err != nil {
		respondWithRouteError(c, err, "Unable to plan pickup route")
		return
	}

	c.JSON(http.StatusOK, route)
}

func (h *RouteHandler) DeliveryRoute(c *gin.Context) {
	volunteer, origin, ok := h.volunteerAndOrigin(c)
	if !ok {
		return
	}

	route, err := h.Service.DeliveryRoute(c.Request.Context(), volunteer.ID, origin)
	if err != nil {
		respondWithRouteError(c, err, "Unable to plan delivery route")
		return
	}

	c.JSON(http.StatusOK, route)
}

func (h *RouteHandler) volunteerAndOrigin(c *gin.Context) (*models.VolunteerProfile, geo.Coordinates, bool) {
	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return nil, geo.Coordinates{}, false
	}

	volunteer, err := h.VolunteerRepo.GetByUserID(userID)
	if err != nil {
		respondWithRouteError(c, err, "No volunteer profile for user")
		return nil, geo.Coordinates{}, false
	}

	rawLat := c.Query("lat")
	rawLon := c.Query("lon")
	if rawLat != "" || rawLon != "" {
		latitude, errLat := strconv.ParseFloat(rawLat, 64)
		longitude, errLon := strconv.ParseFloat(rawLon, 64)
		if errLat != nil || errLon != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "lat and lon must both be valid numbers"})
			return nil, geo.Coordinates{}, false
		}

		origin, err := geo.NewCoordinates(latitude, longitude)
		if err != nil {
			respondWithRouteError(c, err, "Invalid origin")
			return nil, geo.Coordinates{}, false
		}
		return volunteer, origin, true
	}

	if !volunteer.HasPosition() {
		err := &custom_error.NoOriginAvailableError{VolunteerID: volunteer.ID}
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "No usable origin", "details": err.Error()})
		return nil, geo.Coordinates{}, false
	}

	return volunteer, geo.Coordinates{Latitude: *volunteer.LastLatitude, Longitude: *volunteer.LastLongitude}, true
}

func respondWithRouteError(c *gin.Context, err error, message string) {
	var (
		invalidCoordinate *custom_error.InvalidCoordinateError
		notFound          *custom_error.NotFoundError
		noCamp            *custom_error.NoCampAvailableError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &invalidCoordinate):
		status = http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &noCamp):
		status = http.StatusNotFound
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message, "details": err.Error()})
}
