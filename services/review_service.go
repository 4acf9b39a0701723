package services

import (
	"errors"
	"strings"
	"time"

	"journal-management-api/apperrors"
	"journal-management-api/config"
	"journal-management-api/models"
	"journal-management-api/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewService tracks individual reviewer assignments and their monotonic
// status machine.
type ReviewService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewReviewService(db *gorm.DB) *ReviewService {
	if db == nil {
		db = config.DB
	}
	return &ReviewService{db: db, notifier: NewNotificationService(db)}
}

// Ratings holds the four criterion scores, each on the 1-5 scale.
type Ratings struct {
	Originality  int `json:"originality" binding:"required"`
	Methodology  int `json:"methodology" binding:"required"`
	Clarity      int `json:"clarity" binding:"required"`
	Significance int `json:"significance" binding:"required"`
}

// SubmitReviewInput carries a completed review.
type SubmitReviewInput struct {
	Ratings           Ratings               `json:"ratings" binding:"required"`
	CommentsForAuthor string                `json:"comments_for_author" binding:"required"`
	CommentsForEditor string                `json:"comments_for_editor" binding:"required"`
	Recommendation    models.Recommendation `json:"recommendation" binding:"required"`
}

func validateReviewSubmission(in *SubmitReviewInput) error {
	ratings := map[string]int{
		"originality":  in.Ratings.Originality,
		"methodology":  in.Ratings.Methodology,
		"clarity":      in.Ratings.Clarity,
		"significance": in.Ratings.Significance,
	}
	for name, value := range ratings {
		if !utils.ValidateRating(value) {
			return apperrors.Validation("%s rating must be between 1 and 5, got %d", name, value)
		}
	}
	if strings.TrimSpace(in.CommentsForAuthor) == "" {
		return apperrors.Validation("comments for the author are required")
	}
	if strings.TrimSpace(in.CommentsForEditor) == "" {
		return apperrors.Validation("comments for the editor are required")
	}
	switch in.Recommendation {
	case models.RecommendAccept, models.RecommendMinorRevision, models.RecommendMajorRevision, models.RecommendReject:
	default:
		return apperrors.Validation("unknown recommendation %q", in.Recommendation)
	}
	return nil
}

func lockReview(tx *gorm.DB, reviewID int) (*models.Review, error) {
	var review models.Review
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&review, "review_id = ?", reviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("review %d not found", reviewID)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &review, nil
}

// RespondToInvitation records the reviewer's accept/decline. Accepting moves
// the review straight to in_progress. Declining is terminal and leaves the
// manuscript's reviewer count alone; the editor assigns a replacement.
func (s *ReviewService) RespondToInvitation(reviewID, reviewerID int, accept bool) (*models.Review, error) {
	var review *models.Review
	var manuscript *models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		review, err = lockReview(tx, reviewID)
		if err != nil {
			return err
		}
		if review.ReviewerID != reviewerID {
			return apperrors.NotFound("review %d not found", reviewID)
		}

		target := models.ReviewDeclined
		if accept {
			target = models.ReviewInProgress
		}
		if err := EnsureReviewTransition(review.Status, target); err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{"status": target}
		if accept {
			updates["accepted_at"] = now
			review.AcceptedAt = &now
		}
		if err := tx.Model(&models.Review{}).Where("review_id = ?", reviewID).Updates(updates).Error; err != nil {
			return apperrors.Internal(err)
		}
		review.Status = target

		manuscript, err = lockManuscript(tx, review.ManuscriptID)
		if err != nil {
			return err
		}
		event := "review_declined"
		if accept {
			event = "review_accepted"
		}
		return appendTimeline(tx, review.ManuscriptID, event, "", &reviewerID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.InvitationAnswered(review, manuscript, accept)
	return review, nil
}

// SubmitReview completes an in_progress review. If the manuscript now has
// enough completed reviews and no open ones, it advances to review_completed
// in the same transaction.
func (s *ReviewService) SubmitReview(reviewID, reviewerID int, in *SubmitReviewInput) (*models.Review, error) {
	if err := validateReviewSubmission(in); err != nil {
		return nil, err
	}

	var review *models.Review
	var manuscript *models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		review, err = lockReview(tx, reviewID)
		if err != nil {
			return err
		}
		if review.ReviewerID != reviewerID {
			return apperrors.NotFound("review %d not found", reviewID)
		}
		if err := EnsureReviewTransition(review.Status, models.ReviewCompleted); err != nil {
			return err
		}

		now := time.Now()
		recommendation := in.Recommendation
		if err := tx.Model(&models.Review{}).Where("review_id = ?", reviewID).Updates(map[string]interface{}{
			"status":              models.ReviewCompleted,
			"completed_at":        now,
			"rating_originality":  in.Ratings.Originality,
			"rating_methodology":  in.Ratings.Methodology,
			"rating_clarity":      in.Ratings.Clarity,
			"rating_significance": in.Ratings.Significance,
			"comments_for_author": in.CommentsForAuthor,
			"comments_for_editor": in.CommentsForEditor,
			"recommendation":      recommendation,
		}).Error; err != nil {
			return apperrors.Internal(err)
		}
		review.Status = models.ReviewCompleted
		review.CompletedAt = &now
		review.Recommendation = &recommendation

		manuscript, err = lockManuscript(tx, review.ManuscriptID)
		if err != nil {
			return err
		}
		if err := appendTimeline(tx, review.ManuscriptID, "review_submitted", "", &reviewerID); err != nil {
			return err
		}

		return s.maybeCompleteReviewStage(tx, manuscript)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ReviewSubmitted(review, manuscript)
	return review, nil
}

// maybeCompleteReviewStage flips under_review -> review_completed once enough
// reviews are in and no assignment is still open. Caller holds the manuscript
// row lock.
func (s *ReviewService) maybeCompleteReviewStage(tx *gorm.DB, manuscript *models.Manuscript) error {
	if manuscript.Status != models.ManuscriptUnderReview {
		return nil
	}

	var completed, open int64
	if err := tx.Model(&models.Review{}).
		Where("manuscript_id = ? AND status = ?", manuscript.ManuscriptID, models.ReviewCompleted).
		Count(&completed).Error; err != nil {
		return apperrors.Internal(err)
	}
	if err := tx.Model(&models.Review{}).
		Where("manuscript_id = ? AND status IN ?", manuscript.ManuscriptID,
			[]models.ReviewStatus{models.ReviewPendingInvitation, models.ReviewAccepted, models.ReviewInProgress}).
		Count(&open).Error; err != nil {
		return apperrors.Internal(err)
	}

	if completed < int64(MinReviewsForDecision()) || open > 0 {
		return nil
	}

	if err := EnsureManuscriptTransition(manuscript.Status, models.ManuscriptReviewCompleted); err != nil {
		return err
	}
	if err := tx.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscript.ManuscriptID).
		Update("status", models.ManuscriptReviewCompleted).Error; err != nil {
		return apperrors.Internal(err)
	}
	manuscript.Status = models.ManuscriptReviewCompleted
	return appendTimeline(tx, manuscript.ManuscriptID, "review_stage_completed", "", nil)
}

// SendReminder re-notifies a reviewer with an open review. Advisory: no state
// changes; rate limiting is the caller's concern.
func (s *ReviewService) SendReminder(reviewID, actorID int) error {
	var review models.Review
	err := s.db.First(&review, "review_id = ?", reviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("review %d not found", reviewID)
	}
	if err != nil {
		return apperrors.Internal(err)
	}

	if review.Status != models.ReviewAccepted && review.Status != models.ReviewInProgress {
		return apperrors.InvalidState("reminders can only be sent for accepted or in_progress reviews, not %s", review.Status)
	}

	var manuscript models.Manuscript
	if err := s.db.First(&manuscript, "manuscript_id = ?", review.ManuscriptID).Error; err != nil {
		return apperrors.Internal(err)
	}

	s.notifier.ReviewReminder(&review, &manuscript)
	return nil
}

// Aggregate summarizes all reviews of a manuscript for the editor. Advisory
// only; it never advances state.
func (s *ReviewService) Aggregate(manuscriptID int) (*ReviewAggregate, error) {
	var count int64
	if err := s.db.Model(&models.Manuscript{}).
		Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if count == 0 {
		return nil, apperrors.NotFound("manuscript %d not found", manuscriptID)
	}

	var reviews []models.Review
	if err := s.db.Where("manuscript_id = ?", manuscriptID).Order("invited_at ASC").Find(&reviews).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	return BuildReviewAggregate(manuscriptID, reviews, MinReviewsForDecision(), time.Now()), nil
}
