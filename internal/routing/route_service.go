package routing

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Vaibhavsh0120/Connect2Give/internal/camps"
	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/geo"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/metadata"
	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"

	"go.uber.org/zap"
)

const (
	// AverageSpeedKmh is the assumed travel speed for ETA estimates.
	AverageSpeedKmh = 20.0
	// StopServiceMinutes is the handover time budgeted per pickup stop.
	StopServiceMinutes = 5
)

type RouteStop struct {
	DonationID    int     `json:"donation_id"`
	FoodDetails   string  `json:"food_details"`
	PickupAddress string  `json:"pickup_address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	LegKm         float64 `json:"leg_km"`
	CumulativeKm  float64 `json:"cumulative_km"`
}

type CampStop struct {
	CampID    int     `json:"camp_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	LegKm     float64 `json:"leg_km"`
}

type Route struct {
	Origin     geo.Coordinates `json:"origin"`
	Stops      []RouteStop     `json:"stops"`
	Camp       *CampStop       `json:"camp,omitempty"`
	TotalKm    float64         `json:"total_km"`
	EtaMinutes int             `json:"eta_minutes"`
	Polyline   string          `json:"polyline,omitempty"`
}

// PickupSource is the slice of the donations repository the planner reads.
type PickupSource interface {
	ListByVolunteer(volunteerID int, statuses ...metadata.DonationStatus) ([]models.Donation, error)
}

// CampSource is the slice of the camps repository the planner reads.
type CampSource interface {
	ListActiveForVolunteer(volunteerID int) ([]models.Camp, error)
}

// GeometrySource fetches road geometry for display. Optional.
type GeometrySource interface {
	Polyline(ctx context.Context, waypoints []geo.Coordinates) (string, error)
}

type RouteService struct {
	pickups  PickupSource
	camps    CampSource
	geometry GeometrySource
	log      *zap.Logger
}

// NewRouteService wires the planner. geometry may be nil; routes are then
// served without a road polyline.
func NewRouteService(pickups PickupSource, campSource CampSource, geometry GeometrySource, log *zap.Logger) *RouteService {
	return &RouteService{
		pickups:  pickups,
		camps:    campSource,
		geometry: geometry,
		log:      log,
	}
}

// PickupRoute orders the volunteer's uncollected pickups from the origin.
// An empty route is a valid answer for a volunteer with nothing accepted.
func (s *RouteService) PickupRoute(ctx context.Context, volunteerID int, origin geo.Coordinates) (*Route, error) {
	pending, err := s.pickups.ListByVolunteer(volunteerID, metadata.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned pickups: %w", err)
	}

	stops, totalKm := OrderStops(origin, pending)
	route := &Route{
		Origin:     origin,
		Stops:      stops,
		TotalKm:    geo.RoundKm(totalKm),
		EtaMinutes: EstimateMinutes(totalKm, len(stops)),
	}

	s.attachGeometry(ctx, route)
	return route, nil
}

// DeliveryRoute extends the pickup tour with the nearest active camp of the
// volunteer's NGOs, measured from the tour's final position.
func (s *RouteService) DeliveryRoute(ctx context.Context, volunteerID int, origin geo.Coordinates) (*Route, error) {
	pending, err := s.pickups.ListByVolunteer(volunteerID, metadata.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned pickups: %w", err)
	}

	stops, totalKm := OrderStops(origin, pending)
	anchor := origin
	if len(stops) > 0 {
		last := stops[len(stops)-1]
		anchor = geo.Coordinates{Latitude: last.Latitude, Longitude: last.Longitude}
	}

	candidates, err := s.camps.ListActiveForVolunteer(volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list camps: %w", err)
	}
	index, _ := camps.SelectNearest(anchor, candidates)
	if index < 0 {
		return nil, &custom_error.NoCampAvailableError{}
	}

	camp := candidates[index]
	campLeg := geo.Distance(anchor, geo.Coordinates{Latitude: camp.Latitude, Longitude: camp.Longitude})
	totalKm += campLeg

	route := &Route{
		Origin: origin,
		Stops:  stops,
		Camp: &CampStop{
			CampID:    camp.ID,
			Name:      camp.Name,
			Address:   camp.Address,
			Latitude:  camp.Latitude,
			Longitude: camp.Longitude,
			LegKm:     geo.RoundKm(campLeg),
		},
		TotalKm:    geo.RoundKm(totalKm),
		EtaMinutes: EstimateMinutes(totalKm, len(stops)),
	}

	s.attachGeometry(ctx, route)
	return route, nil
}

func (s *RouteService) attachGeometry(ctx context.Context, route *Route) {
	if s.geometry == nil {
		return
	}

	waypoints := make([]geo.Coordinates, 0, len(route.Stops)+2)
	waypoints = append(waypoints, route.Origin)
	for _, stop := range route.Stops {
		waypoints = append(waypoints, geo.Coordinates{Latitude: stop.Latitude, Longitude: stop.Longitude})
	}
	if route.Camp != nil {
		waypoints = append(waypoints, geo.Coordinates{Latitude: route.Camp.Latitude, Longitude: route.Camp.Longitude})
	}
	if len(waypoints) < 2 {
		return
	}

	polyline, err := s.geometry.Polyline(ctx, waypoints)
	if err != nil {
		s.log.Warn("road geometry unavailable", zap.Error(err))
		return
	}
	route.Polyline = polyline
}

// OrderStops runs a greedy nearest-neighbour tour over the donations.
// Candidates are considered in id order, so an exact distance tie always
// resolves to the lower donation id and the tour is reproducible.
func OrderStops(origin geo.Coordinates, donations []models.Donation) ([]RouteStop, float64) {
	remaining := make([]models.Donation, len(donations))
	copy(remaining, donations)
	sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].ID < remaining[j].ID })

	stops := make([]RouteStop, 0, len(remaining))
	current := origin
	totalKm := 0.0

	for len(remaining) > 0 {
		best := -1
		bestKm := 0.0
		for i := range remaining {
			km := geo.Distance(current, geo.Coordinates{
				Latitude:  remaining[i].Latitude,
				Longitude: remaining[i].Longitude,
			})
			if best < 0 || km < bestKm {
				best = i
				bestKm = km
			}
		}

		next := remaining[best]
		totalKm += bestKm
		stops = append(stops, RouteStop{
			DonationID:    next.ID,
			FoodDetails:   next.FoodDetails,
			PickupAddress: next.PickupAddress,
			Latitude:      next.Latitude,
			Longitude:     next.Longitude,
			LegKm:         geo.RoundKm(bestKm),
			CumulativeKm:  geo.RoundKm(totalKm),
		})
		current = geo.Coordinates{Latitude: next.Latitude, Longitude: next.Longitude}
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return stops, totalKm
}

// EstimateMinutes converts tour distance into an ETA at the assumed speed,
// plus a fixed handover time per stop.
func EstimateMinutes(totalKm float64, stopCount int) int {
	travel := totalKm / AverageSpeedKmh * 60
	return int(math.Round(travel)) + stopCount*StopServiceMinutes
}
