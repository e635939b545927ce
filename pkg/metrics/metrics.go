package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DonationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connect2give_donation_transitions_total",
		Help: "Completed donation lifecycle transitions by kind.",
	}, []string{"transition"})

	ClaimRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connect2give_claim_rejections_total",
		Help: "Claim attempts rejected, by reason.",
	}, []string{"reason"})

	LocationUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connect2give_location_updates_total",
		Help: "Accepted volunteer location pings.",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connect2give_domain_events_total",
		Help: "Domain events handed to the publisher, by type.",
	}, []string{"type"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connect2give_domain_events_dropped_total",
		Help: "Domain events dropped because the publish buffer was full.",
	})

	ExpiredClaimsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connect2give_expired_claims_released_total",
		Help: "Stale accepted claims returned to the open pool by the sweeper.",
	})
)
