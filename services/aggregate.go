package services

import (
	"fmt"
	"strings"
	"time"

	"journal-management-api/models"
)

// ReviewAggregate is the advisory summary the editor sees before deciding.
// It never decides anything itself; RecordDecision stays with the editor.
type ReviewAggregate struct {
	ManuscriptID        int                            `json:"manuscript_id"`
	TotalReviews        int                            `json:"total_reviews"`
	CompletedReviews    int                            `json:"completed_reviews"`
	OpenReviews         int                            `json:"open_reviews"`
	DeclinedReviews     int                            `json:"declined_reviews"`
	Distribution        map[models.Recommendation]int  `json:"distribution"`
	AverageRating       float64                        `json:"average_rating"`
	OverdueReviewIDs    []int                          `json:"overdue_review_ids"`
	RequiredReviews     int                            `json:"required_reviews"`
	EligibleForDecision bool                           `json:"eligible_for_decision"`
	Summary             string                         `json:"summary"`
}

// BuildReviewAggregate is a pure function over a manuscript's reviews.
// AverageRating is the mean of each completed review's 4-criterion average.
// Eligibility is informational: completed count reached the configured
// minimum and nothing assigned is still open past its deadline unnoticed.
func BuildReviewAggregate(manuscriptID int, reviews []models.Review, minCompleted int, now time.Time) *ReviewAggregate {
	agg := &ReviewAggregate{
		ManuscriptID:    manuscriptID,
		TotalReviews:    len(reviews),
		Distribution:    make(map[models.Recommendation]int),
		RequiredReviews: minCompleted,
	}

	var ratingSum float64
	for i := range reviews {
		review := &reviews[i]
		switch review.Status {
		case models.ReviewCompleted:
			agg.CompletedReviews++
			ratingSum += review.AverageRating()
			if review.Recommendation != nil {
				agg.Distribution[*review.Recommendation]++
			}
		case models.ReviewDeclined:
			agg.DeclinedReviews++
		default:
			agg.OpenReviews++
		}
		if review.IsOverdue(now) {
			agg.OverdueReviewIDs = append(agg.OverdueReviewIDs, review.ReviewID)
		}
	}

	if agg.CompletedReviews > 0 {
		agg.AverageRating = ratingSum / float64(agg.CompletedReviews)
	}
	agg.EligibleForDecision = agg.CompletedReviews >= minCompleted && agg.OpenReviews == 0

	agg.Summary = buildSummary(agg)
	return agg
}

func buildSummary(agg *ReviewAggregate) string {
	if agg.CompletedReviews == 0 {
		return fmt.Sprintf("no completed reviews yet (%d open, %d declined)", agg.OpenReviews, agg.DeclinedReviews)
	}

	order := []models.Recommendation{
		models.RecommendAccept,
		models.RecommendMinorRevision,
		models.RecommendMajorRevision,
		models.RecommendReject,
	}
	parts := make([]string, 0, len(order))
	for _, rec := range order {
		if n := agg.Distribution[rec]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, rec))
		}
	}

	summary := fmt.Sprintf("%d completed: %s; mean rating %.1f",
		agg.CompletedReviews, strings.Join(parts, ", "), agg.AverageRating)
	if agg.OpenReviews > 0 {
		summary += fmt.Sprintf(" (%d still open)", agg.OpenReviews)
	}
	return summary
}
