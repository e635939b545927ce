package volunteers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Vaibhavsh0120/Connect2Give/pkg/metadata"

	"github.com/doug-martin/goqu/v9"
)

const (
	BadgeVerified  = "verified"
	BadgeTrusted   = "trusted"
	BadgeReliable  = "reliable"
	BadgeExcellent = "excellent"
)

// ComputeTrustScore maps a verification history to a 0-100 score. A
// volunteer with no verified or rejected deliveries starts at 100.
func ComputeTrustScore(verified, rejected int) float64 {
	attempts := verified + rejected
	if attempts == 0 {
		return 100
	}
	return math.Round(float64(verified)/float64(attempts)*10000) / 100
}

// ComputeBadges awards badges from verified counts, the trust score and the
// average rating. Rated is the number of deliveries that carry a rating.
func ComputeBadges(verified, rated int, averageRating, score float64) []string {
	badges := []string{}
	if verified >= 1 {
		badges = append(badges, BadgeVerified)
	}
	if verified >= 10 && score >= 90 {
		badges = append(badges, BadgeTrusted)
	}
	if verified >= 25 && score >= 95 {
		badges = append(badges, BadgeReliable)
	}
	if rated >= 10 && averageRating >= 4.5 {
		badges = append(badges, BadgeExcellent)
	}
	return badges
}

// RecalculateTrust rebuilds the volunteer's trust row from the donations
// table inside the caller's transaction, so a verification and its score
// change land atomically. Rejections are summed from verification_count,
// which survives later re-delivery of the same donation.
func RecalculateTrust(tx *goqu.TxDatabase, volunteerID int) error {
	var history struct {
		Verified      int             `db:"verified"`
		Rejected      int             `db:"rejected"`
		Rated         int             `db:"rated"`
		AverageRating sql.NullFloat64 `db:"average_rating"`
	}

	query := tx.From("donations").
		Select(
			goqu.L("COUNT(*) FILTER (WHERE status = ?)", string(metadata.StatusDelivered)).As("verified"),
			goqu.L("COALESCE(SUM(verification_count), 0)").As("rejected"),
			goqu.L("COUNT(rating)").As("rated"),
			goqu.L("AVG(rating)").As("average_rating"),
		).
		Where(goqu.C("claimed_by").Eq(volunteerID))

	if _, err := query.Executor().ScanStruct(&history); err != nil {
		return fmt.Errorf("failed to aggregate verification history: %w", err)
	}

	score := ComputeTrustScore(history.Verified, history.Rejected)
	badges := ComputeBadges(history.Verified, history.Rated, history.AverageRating.Float64, score)
	badgesJSON, err := json.Marshal(badges)
	if err != nil {
		return fmt.Errorf("failed to encode badges: %w", err)
	}

	var averageRating interface{}
	if history.AverageRating.Valid {
		averageRating = history.AverageRating.Float64
	}

	update := goqu.Record{
		"total_deliveries":    history.Verified + history.Rejected,
		"verified_deliveries": history.Verified,
		"rejected_deliveries": history.Rejected,
		"average_rating":      averageRating,
		"trust_score":         score,
		"badges":              string(badgesJSON),
		"updated_at":          goqu.L("NOW()"),
	}
	insert := goqu.Record{"volunteer_id": volunteerID}
	for column, value := range update {
		insert[column] = value
	}

	_, err = tx.Insert("trust_scores").
		Rows(insert).
		OnConflict(goqu.DoUpdate("volunteer_id", update)).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to upsert trust score: %w", err)
	}

	return nil
}
