package services

import (
	"testing"
	"time"

	"journal-management-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func completedReview(id int, rec models.Recommendation, ratings [4]int, deadline time.Time) models.Review {
	return models.Review{
		ReviewID:           id,
		Status:             models.ReviewCompleted,
		Deadline:           deadline,
		RatingOriginality:  intPtr(ratings[0]),
		RatingMethodology:  intPtr(ratings[1]),
		RatingClarity:      intPtr(ratings[2]),
		RatingSignificance: intPtr(ratings[3]),
		Recommendation:     &rec,
	}
}

func TestBuildReviewAggregateEmpty(t *testing.T) {
	now := time.Now()
	agg := BuildReviewAggregate(7, nil, 2, now)

	assert.Equal(t, 7, agg.ManuscriptID)
	assert.Equal(t, 0, agg.TotalReviews)
	assert.Equal(t, 0.0, agg.AverageRating)
	assert.False(t, agg.EligibleForDecision)
	assert.Contains(t, agg.Summary, "no completed reviews")
}

func TestBuildReviewAggregateDistributionAndAverage(t *testing.T) {
	now := time.Now()
	future := now.Add(7 * 24 * time.Hour)
	reviews := []models.Review{
		// per-review averages: 4.0 and 2.0, mean 3.0
		completedReview(1, models.RecommendAccept, [4]int{4, 4, 4, 4}, future),
		completedReview(2, models.RecommendMajorRevision, [4]int{2, 2, 2, 2}, future),
	}

	agg := BuildReviewAggregate(1, reviews, 2, now)

	require.Equal(t, 2, agg.CompletedReviews)
	assert.Equal(t, 1, agg.Distribution[models.RecommendAccept])
	assert.Equal(t, 1, agg.Distribution[models.RecommendMajorRevision])
	assert.Equal(t, 0, agg.Distribution[models.RecommendReject])
	assert.InDelta(t, 3.0, agg.AverageRating, 0.001)
	assert.True(t, agg.EligibleForDecision)
	assert.Contains(t, agg.Summary, "2 completed")
}

func TestBuildReviewAggregateOpenReviewsBlockEligibility(t *testing.T) {
	now := time.Now()
	future := now.Add(7 * 24 * time.Hour)
	reviews := []models.Review{
		completedReview(1, models.RecommendAccept, [4]int{5, 5, 5, 5}, future),
		completedReview(2, models.RecommendAccept, [4]int{4, 4, 4, 4}, future),
		{ReviewID: 3, Status: models.ReviewInProgress, Deadline: future},
	}

	agg := BuildReviewAggregate(1, reviews, 2, now)

	assert.Equal(t, 2, agg.CompletedReviews)
	assert.Equal(t, 1, agg.OpenReviews)
	assert.False(t, agg.EligibleForDecision, "an open review must block eligibility even past the minimum")
}

func TestBuildReviewAggregateDeclinedDoesNotCount(t *testing.T) {
	now := time.Now()
	future := now.Add(7 * 24 * time.Hour)
	reviews := []models.Review{
		completedReview(1, models.RecommendMinorRevision, [4]int{3, 3, 3, 3}, future),
		{ReviewID: 2, Status: models.ReviewDeclined, Deadline: future},
	}

	agg := BuildReviewAggregate(1, reviews, 2, now)

	assert.Equal(t, 1, agg.CompletedReviews)
	assert.Equal(t, 1, agg.DeclinedReviews)
	assert.Equal(t, 0, agg.OpenReviews)
	assert.False(t, agg.EligibleForDecision, "declined reviews never count toward the minimum")
}

func TestBuildReviewAggregateOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	reviews := []models.Review{
		{ReviewID: 1, Status: models.ReviewInProgress, Deadline: past},
		{ReviewID: 2, Status: models.ReviewPendingInvitation, Deadline: past},
		{ReviewID: 3, Status: models.ReviewInProgress, Deadline: future},
		// terminal reviews are never overdue
		completedReview(4, models.RecommendAccept, [4]int{4, 4, 4, 4}, past),
		{ReviewID: 5, Status: models.ReviewDeclined, Deadline: past},
	}

	agg := BuildReviewAggregate(1, reviews, 2, now)

	assert.Equal(t, []int{1, 2}, agg.OverdueReviewIDs)
}
