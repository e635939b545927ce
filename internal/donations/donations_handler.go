package donations

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	"github.com/Vaibhavsh0120/Connect2Give/internal/volunteers"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/auditlog"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"github.com/gin-gonic/gin"
)

// HistorySource reads back the audit trail of a resource.
type HistorySource interface {
	GetResourceLog(id int, resourceType string) (*[]models.AuditLog, error)
}

type DonationHandler struct {
	Service       *DonationService
	VolunteerRepo volunteers.VolunteerRepository
	AuditLog      *auditlog.Auditlog
	History       HistorySource
}

func NewHandler(service *DonationService, volunteerRepo volunteers.VolunteerRepository, auditLog *auditlog.Auditlog, history HistorySource) *DonationHandler {
	return &DonationHandler{
		Service:       service,
		VolunteerRepo: volunteerRepo,
		AuditLog:      auditLog,
		History:       history,
	}
}

func (h *DonationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/donations", security.Authorize(security.RoleRestaurant), h.CreateDonation)
	router.GET("/donations", h.RetrieveDonationList)
	router.GET("/donations/:id", h.GetDonation)
	router.POST("/donations/:id/claim", security.Authorize(security.RoleVolunteer), h.ClaimDonation)
	router.POST("/donations/:id/collect", security.Authorize(security.RoleVolunteer), h.CollectDonation)
	router.POST("/donations/:id/cancel", security.Authorize(security.RoleVolunteer), h.CancelPickup)
	router.POST("/donations/deliver", security.Authorize(security.RoleVolunteer), h.DeliverBatch)
	router.POST("/donations/:id/verify", security.Authorize(security.RoleNgo), h.VerifyDonation)
	router.POST("/donations/:id/reject", security.Authorize(security.RoleNgo), h.RejectDonation)
	router.GET("/donations/:id/history", h.DonationHistory)
	router.GET("/volunteers/me/donations", security.Authorize(security.RoleVolunteer), h.MyDonations)
	router.GET("/volunteers/me/stats", security.Authorize(security.RoleVolunteer), h.MyStats)
}

func (h *DonationHandler) CreateDonation(c *gin.Context) {
	var req models.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return
	}

	restaurant, err := h.Service.GetRestaurantByUserID(userID)
	if err != nil {
		respondWithDomainError(c, err, "No restaurant profile for user")
		return
	}

	donation, err := h.Service.Create(req, restaurant.ID, userID)
	if err != nil {
		respondWithDomainError(c, err, "Unable to create donation")
		return
	}

	go h.AuditLog.Log("create", gin.H{"food_details": donation.FoodDetails}, donation, &userID)
	c.JSON(http.StatusCreated, donation)
}

func (h *DonationHandler) RetrieveDonationList(c *gin.Context) {
	qb := repository.NewQueryBuilder()
	if status := c.Query("status"); status != "" {
		qb.AddCondition("status", status)
	}
	if restaurantID := c.Query("restaurant_id"); restaurantID != "" {
		id, err := strconv.Atoi(restaurantID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant_id parameter, must be an integer"})
			return
		}
		qb.AddCondition("restaurant_id", id)
	}

	donations, err := h.Service.List(qb)
	if err != nil {
		log.Println("Error executing SQL statement: ", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get donations", "details": err.Error()})
		return
	}
	if len(donations) == 0 {
		c.JSON(http.StatusOK, []models.Donation{})
		return
	}

	c.JSON(http.StatusOK, donations)
}

func (h *DonationHandler) GetDonation(c *gin.Context) {
	donationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || donationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid donation ID parameter, must be an integer"})
		return
	}

	donation, err := h.Service.GetByID(donationID)
	if err != nil {
		respondWithDomainError(c, err, "Unable to get donation")
		return
	}

	c.JSON(http.StatusOK, donation)
}

func (h *DonationHandler) ClaimDonation(c *gin.Context) {
	donationID, volunteer, userID, ok := h.donationAndVolunteer(c)
	if !ok {
		return
	}

	donation, err := h.Service.Claim(donationID, volunteer.ID, userID)
	if err != nil {
		respondWithDomainError(c, err, "Unable to claim donation")
		return
	}

	go h.AuditLog.Log("claim", gin.H{"volunteer_id": volunteer.ID}, donation, &userID)
	c.JSON(http.StatusOK, donation)
}

func (h *DonationHandler) CollectDonation(c *gin.Context) {
	donationID, volunteer, userID, ok := h.donationAndVolunteer(c)
	if !ok {
		return
	}

	donation, err := h.Service.Collect(donationID, volunteer.ID, userID)
	if err != nil {
		respondWithDomainError(c, err, "Unable to collect donation")
		return
	}

	go h.AuditLog.Log("collect", gin.H{"volunteer_id": volunteer.ID}, donation, &userID)
	c.JSON(http.StatusOK, donation)
}

func (h *DonationHandler) CancelPickup(c *gin.Context) {
	donationID, volunteer, userID, ok := h.donationAndVolunteer(c)
	if !ok {
		return
	}

	donation, err := h.Service.CancelPickup(donationID, volunteer.ID, userID)
	if err != nil {
		respondWithDomainError(c, err, "Unable to cancel pickup")
		return
	}

	go h.AuditLog.Log("cancel", gin.H{"volunteer_id": volunteer.ID}, donation, &userID)
	c.JSON(http.StatusOK, donation)
}

func (h *DonationHandler) DeliverBatch(c *gin.Context) {
	var req models.DeliverBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	volunteer, userID, ok := h.currentVolunteer(c)
	if !ok {
		return
	}

	delivered, err := h.Service.DeliverBatch(volunteer.ID, req.CampID, userID)
	if err != nil {
		respondWithDomainError(c, err, "Unable to deliver donations")
		return
	}

	for i := range delivered {
		go h.AuditLog.Log("deliver", gin.H{"camp_id": req.CampID}, &delivered[i], &userID)
	}
	c.JSON(http.StatusOK, gin.H{"delivered": len(delivered), "donations": delivered})
}

func (h *DonationHandler) VerifyDonation(c *gin.Context) {
	donationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || donationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid donation ID parameter, must be an integer"})
		return
	}

	var req models.VerifyDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	ngo, userID, ok := h.currentNgo(c)
	if !ok {
		return
	}

	donation, err := h.Service.Verify(donationID, ngo.ID, userID, req)
	if err != nil {
		respondWithDomainError(c, err, "Unable to verify donation")
		return
	}

	go h.AuditLog.Log("verify", gin.H{"rating": req.Rating}, donation, &userID)
	c.JSON(http.StatusOK, donation)
}

func (h *DonationHandler) RejectDonation(c *gin.Context) {
	donationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || donationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid donation ID parameter, must be an integer"})
		return
	}

	var req models.RejectDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	ngo, userID, ok := h.currentNgo(c)
	if !ok {
		return
	}

	donation, err := h.Service.Reject(donationID, ngo.ID, userID, req)
	if err != nil {
		respondWithDomainError(c, err, "Unable to reject donation")
		return
	}

	go h.AuditLog.Log("reject", gin.H{"notes": req.Notes}, donation, &userID)
	c.JSON(http.StatusOK, donation)
}

func (h *DonationHandler) DonationHistory(c *gin.Context) {
	donationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || donationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid donation ID parameter, must be an integer"})
		return
	}

	if _, err := h.Service.GetByID(donationID); err != nil {
		respondWithDomainError(c, err, "Unable to get donation")
		return
	}

	entries, err := h.History.GetResourceLog(donationID, "donation")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get donation history", "details": err.Error()})
		return
	}
	if entries == nil || len(*entries) == 0 {
		c.JSON(http.StatusOK, []models.AuditLog{})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *DonationHandler) MyDonations(c *gin.Context) {
	volunteer, _, ok := h.currentVolunteer(c)
	if !ok {
		return
	}

	donations, err := h.Service.ListAssigned(volunteer.ID)
	if err != nil {
		log.Println("Error executing SQL statement: ", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get donations", "details": err.Error()})
		return
	}
	if len(donations) == 0 {
		c.JSON(http.StatusOK, []models.Donation{})
		return
	}

	c.JSON(http.StatusOK, donations)
}

func (h *DonationHandler) MyStats(c *gin.Context) {
	volunteer, _, ok := h.currentVolunteer(c)
	if !ok {
		return
	}

	stats, err := h.Service.Stats(volunteer.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to compute stats", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *DonationHandler) donationAndVolunteer(c *gin.Context) (int, *models.VolunteerProfile, int, bool) {
	donationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || donationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid donation ID parameter, must be an integer"})
		return 0, nil, 0, false
	}

	volunteer, userID, ok := h.currentVolunteer(c)
	if !ok {
		return 0, nil, 0, false
	}

	return donationID, volunteer, userID, true
}

func (h *DonationHandler) currentVolunteer(c *gin.Context) (*models.VolunteerProfile, int, bool) {
	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return nil, 0, false
	}

	volunteer, err := h.VolunteerRepo.GetByUserID(userID)
	if err != nil {
		respondWithDomainError(c, err, "No volunteer profile for user")
		return nil, 0, false
	}

	return volunteer, userID, true
}

func (h *DonationHandler) currentNgo(c *gin.Context) (*models.NGO, int, bool) {
	userID, err := security.CurrentUserID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to identify user", "details": err.Error()})
		return nil, 0, false
	}

	ngo, err := h.VolunteerRepo.GetNgoByUserID(userID)
	if err != nil {
		respondWithDomainError(c, err, "No NGO profile for user")
		return nil, 0, false
	}

	return ngo, userID, true
}

// respondWithDomainError maps the typed lifecycle errors onto HTTP statuses.
// Anything untyped is a server fault.
func respondWithDomainError(c *gin.Context, err error, message string) {
	var (
		alreadyClaimed    *custom_error.AlreadyClaimedError
		capacityExceeded  *custom_error.CapacityExceededError
		invalidTransition *custom_error.InvalidTransitionError
		notOwner          *custom_error.NotOwnerError
		forbidden         *custom_error.ForbiddenError
		invalidCoordinate *custom_error.InvalidCoordinateError
		invalidCamp       *custom_error.InvalidCampError
		nothingToDeliver  *custom_error.NothingToDeliverError
		notFound          *custom_error.NotFoundError
		uniqueViolation   *custom_error.UniqueViolationError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &alreadyClaimed),
		errors.As(err, &capacityExceeded),
		errors.As(err, &invalidTransition),
		errors.As(err, &uniqueViolation):
		status = http.StatusConflict
	case errors.As(err, &notOwner), errors.As(err, &forbidden):
		status = http.StatusForbidden
	case errors.As(err, &invalidCoordinate),
		errors.As(err, &invalidCamp),
		errors.As(err, &nothingToDeliver):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message, "details": err.Error()})
}
