package container

import (
	"database/sql"
	"os"
	"time"

	auditLogRepo "github.com/Vaibhavsh0120/Connect2Give/internal/auditlog"
	"github.com/Vaibhavsh0120/Connect2Give/internal/camps"
	"github.com/Vaibhavsh0120/Connect2Give/internal/donations"
	"github.com/Vaibhavsh0120/Connect2Give/internal/events"
	"github.com/Vaibhavsh0120/Connect2Give/internal/integrations/osrm"
	"github.com/Vaibhavsh0120/Connect2Give/internal/repository"
	"github.com/Vaibhavsh0120/Connect2Give/internal/routing"
	"github.com/Vaibhavsh0120/Connect2Give/internal/tracking"
	"github.com/Vaibhavsh0120/Connect2Give/internal/users"
	"github.com/Vaibhavsh0120/Connect2Give/internal/volunteers"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/auditlog"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/security"

	"go.uber.org/zap"
)

type Container struct {
	Repository       *repository.Repository
	AuditLog         *auditlog.Auditlog
	Publisher        *events.Publisher
	LoginHandler     *security.LoginHandler
	UserHandler      *users.UsersHandler
	DonationHandler  *donations.DonationHandler
	CampHandler      *camps.CampHandler
	RouteHandler     *routing.RouteHandler
	TrackingHandler  *tracking.TrackingHandler
	VolunteerHandler *volunteers.VolunteerHandler
	ClaimSweeper     *donations.ClaimSweeper
}

func NewAppContainer(db *sql.DB, log *zap.Logger) *Container {
	repo := repository.NewRepository(db)
	auditLogRepository := auditLogRepo.NewRepository(repo)
	auditLog := auditlog.NewAuditLog(auditLogRepository)

	producer := events.NewProducerFromEnv(os.Getenv("KAFKA_BROKERS"))
	publisher := events.NewPublisher(producer, os.Getenv("KAFKA_TOPIC"), 256, log)

	userRepo := users.NewRepository(repo)
	volunteerRepo := volunteers.NewRepository(repo)
	donationRepo := donations.NewRepository(repo)
	campRepo := camps.NewRepository(repo)
	trackingRepo := tracking.NewRepository(repo)

	loginHandler := security.NewLoginHandler(repo)
	userHandler := users.NewHandler(userRepo)

	donationService := donations.NewDonationService(donationRepo, publisher, log)
	donationHandler := donations.NewHandler(donationService, volunteerRepo, auditLog, auditLogRepository)

	campService := camps.NewCampService(campRepo)
	campHandler := camps.NewHandler(campService, volunteerRepo, auditLog)

	// Road geometry is optional. A plain nil *Client assigned straight into
	// the interface would still count as non-nil inside the service.
	var geometry routing.GeometrySource
	if client := osrm.NewClientFromEnv(); client != nil {
		geometry = client
	}
	routeService := routing.NewRouteService(donationRepo, campRepo, geometry, log)
	routeHandler := routing.NewHandler(routeService, volunteerRepo)

	trackingHandler := tracking.NewHandler(trackingRepo, volunteerRepo)
	volunteerHandler := volunteers.NewHandler(volunteerRepo, auditLog)

	sweeper := donations.NewClaimSweeper(donationService, donations.ClaimTTLFromEnv(), time.Minute, log)

	return &Container{
		Repository:       repo,
		AuditLog:         auditLog,
		Publisher:        publisher,
		LoginHandler:     loginHandler,
		UserHandler:      userHandler,
		DonationHandler:  donationHandler,
		CampHandler:      campHandler,
		RouteHandler:     routeHandler,
		TrackingHandler:  trackingHandler,
		VolunteerHandler: volunteerHandler,
		ClaimSweeper:     sweeper,
	}
}
