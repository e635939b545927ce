package donations

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultClaimTTL is how long an ACCEPTED donation may sit uncollected
// before the sweeper returns it to the open pool.
const DefaultClaimTTL = 30 * time.Minute

// ClaimTTLFromEnv reads CLAIM_TTL_MINUTES, falling back to the default when
// the variable is unset or unusable.
func ClaimTTLFromEnv() time.Duration {
	raw := os.Getenv("CLAIM_TTL_MINUTES")
	if raw == "" {
		return DefaultClaimTTL
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return DefaultClaimTTL
	}
	return time.Duration(minutes) * time.Minute
}

// ClaimSweeper releases expired claims on a fixed interval until its
// context is cancelled.
type ClaimSweeper struct {
	service  *DonationService
	ttl      time.Duration
	interval time.Duration
	log      *zap.Logger
}

func NewClaimSweeper(service *DonationService, ttl, interval time.Duration, log *zap.Logger) *ClaimSweeper {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	if interval <= 0 {
		interval = time.Minute
	}

	return &ClaimSweeper{
		service:  service,
		ttl:      ttl,
		interval: interval,
		log:      log,
	}
}

func (s *ClaimSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("claim sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.service.ReleaseExpiredClaims(s.ttl); err != nil {
				s.log.Error("claim sweep failed", zap.Error(err))
			}
		}
	}
}
