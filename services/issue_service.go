package services

import (
	"errors"
	"fmt"
	"time"

	"journal-management-api/apperrors"
	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IssueService manages publication containers. Publishing an issue publishes
// every accepted manuscript assigned to it, each through the manuscript state
// machine, and opens each one's DOI deposit.
type IssueService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewIssueService(db *gorm.DB) *IssueService {
	if db == nil {
		db = config.DB
	}
	return &IssueService{db: db, notifier: NewNotificationService(db)}
}

// CreateIssueInput describes a new, unpublished issue.
type CreateIssueInput struct {
	Volume int    `json:"volume" binding:"required"`
	Number int    `json:"number" binding:"required"`
	Year   int    `json:"year" binding:"required"`
	Title  string `json:"title"`
}

func (s *IssueService) Create(in *CreateIssueInput) (*models.Issue, error) {
	if in.Volume <= 0 || in.Number <= 0 || in.Year <= 0 {
		return nil, apperrors.Validation("volume, number and year must be positive")
	}

	now := time.Now()
	issue := models.Issue{
		Volume:   in.Volume,
		Number:   in.Number,
		Year:     in.Year,
		Title:    in.Title,
		CreateAt: now,
		UpdateAt: now,
	}
	if err := s.db.Create(&issue).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &issue, nil
}

// Publish marks the issue published and publishes each accepted manuscript
// assigned to it in one transaction.
func (s *IssueService) Publish(issueID, actorID int) (*models.Issue, error) {
	var issue models.Issue
	var published []models.Manuscript

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&issue, "issue_id = ?", issueID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("issue %d not found", issueID)
		}
		if err != nil {
			return apperrors.Internal(err)
		}
		if issue.IsPublished {
			return apperrors.InvalidState("issue %d is already published", issueID)
		}

		var ids []int
		if err := tx.Model(&models.Manuscript{}).
			Where("issue_id = ? AND status = ? AND delete_at IS NULL", issueID, models.ManuscriptAccepted).
			Order("manuscript_id ASC").
			Pluck("manuscript_id", &ids).Error; err != nil {
			return apperrors.Internal(err)
		}

		now := time.Now()
		for _, manuscriptID := range ids {
			manuscript, err := lockManuscript(tx, manuscriptID)
			if err != nil {
				return err
			}
			if err := publishLocked(tx, manuscript, actorID, now); err != nil {
				return fmt.Errorf("manuscript %d: %w", manuscriptID, err)
			}
			published = append(published, *manuscript)
		}

		if err := tx.Model(&models.Issue{}).
			Where("issue_id = ?", issueID).
			Updates(map[string]interface{}{
				"is_published": true,
				"published_at": now,
				"update_at":    now,
			}).Error; err != nil {
			return apperrors.Internal(err)
		}
		issue.IsPublished = true
		issue.PublishedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range published {
		s.notifier.ManuscriptPublished(&published[i])
	}
	return &issue, nil
}
