package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"journal-management-api/apperrors"
	"journal-management-api/config"
	"journal-management-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ManuscriptService owns the manuscript lifecycle. Every status change runs
// inside one transaction that locks the manuscript row, validates the edge
// against the central table and writes status, timeline and side records
// together, so an illegal transition fails with no partial state.
type ManuscriptService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewManuscriptService(db *gorm.DB) *ManuscriptService {
	if db == nil {
		db = config.DB
	}
	return &ManuscriptService{db: db, notifier: NewNotificationService(db)}
}

// AuthorInput is one author entry on submission.
type AuthorInput struct {
	Name            string  `json:"name" binding:"required"`
	Affiliation     string  `json:"affiliation" binding:"required"`
	Email           *string `json:"email"`
	OrcidID         *string `json:"orcid_id"`
	IsCorresponding bool    `json:"is_corresponding"`
}

// SubmitManuscriptInput carries everything needed to create version 1.
type SubmitManuscriptInput struct {
	Title       string        `json:"title" binding:"required"`
	Abstract    string        `json:"abstract" binding:"required"`
	Keywords    []string      `json:"keywords"`
	Authors     []AuthorInput `json:"authors" binding:"required"`
	FileIDs     []int         `json:"file_ids" binding:"required"`
	SubmittedBy int           `json:"-"`
}

// ReviewerAssignment names one reviewer and an optional per-reviewer deadline.
type ReviewerAssignment struct {
	ReviewerID int        `json:"reviewer_id" binding:"required"`
	Deadline   *time.Time `json:"deadline"`
}

// DecisionInput is the editor's binding ruling.
type DecisionInput struct {
	Decision      models.DecisionType `json:"decision" binding:"required"`
	Letter        string              `json:"letter" binding:"required"`
	InternalNotes *string             `json:"internal_notes"`
	Override      bool                `json:"override"`
}

// RevisionInput is an author resubmission under revision_required.
type RevisionInput struct {
	FileIDs               []int `json:"file_ids" binding:"required"`
	ResponseToReviewersID *int  `json:"response_to_reviewers_id"`
}

func newManuscriptCode(now time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("MS-%d-%s", now.Year(), short)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "Duplicate entry")
}

// lockManuscript fetches the row FOR UPDATE so the read-validate-write
// sequence is serialized per manuscript.
func lockManuscript(tx *gorm.DB, manuscriptID int) (*models.Manuscript, error) {
	var m models.Manuscript
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "manuscript_id = ? AND delete_at IS NULL", manuscriptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("manuscript %d not found", manuscriptID)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &m, nil
}

func appendTimeline(tx *gorm.DB, manuscriptID int, event string, detail string, actorID *int) error {
	row := models.ManuscriptTimeline{
		ManuscriptID: manuscriptID,
		Event:        event,
		ActorID:      actorID,
		CreatedAt:    time.Now(),
	}
	if detail != "" {
		row.Detail = &detail
	}
	if err := tx.Create(&row).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func validateSubmission(in *SubmitManuscriptInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.Validation("title is required")
	}
	if strings.TrimSpace(in.Abstract) == "" {
		return apperrors.Validation("abstract is required")
	}
	if len(in.Authors) == 0 {
		return apperrors.Validation("at least one author is required")
	}
	corresponding := 0
	for i, author := range in.Authors {
		if strings.TrimSpace(author.Name) == "" || strings.TrimSpace(author.Affiliation) == "" {
			return apperrors.Validation("author %d is missing a name or affiliation", i+1)
		}
		if author.IsCorresponding {
			corresponding++
		}
	}
	if corresponding != 1 {
		return apperrors.Validation("exactly one corresponding author is required, got %d", corresponding)
	}
	if len(in.FileIDs) == 0 {
		return apperrors.Validation("at least one file is required")
	}
	return nil
}

// resolveFiles checks that every referenced upload exists and is not deleted.
func resolveFiles(tx *gorm.DB, fileIDs []int) ([]models.FileUpload, error) {
	seen := make(map[int]bool, len(fileIDs))
	for _, id := range fileIDs {
		if seen[id] {
			return nil, apperrors.Validation("file %d is listed twice", id)
		}
		seen[id] = true
	}
	var files []models.FileUpload
	if err := tx.Where("file_id IN ? AND delete_at IS NULL", fileIDs).Find(&files).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(files) != len(fileIDs) {
		return nil, apperrors.NotFound("one or more referenced files do not exist")
	}
	return files, nil
}

func createRevision(tx *gorm.DB, manuscriptID, version, submittedBy int, fileIDs []int, responseToReviewersID *int) (*models.Revision, error) {
	revision := models.Revision{
		ManuscriptID:          manuscriptID,
		VersionNumber:         version,
		IsInitial:             version == 1,
		SubmittedBy:           submittedBy,
		SubmittedAt:           time.Now(),
		ResponseToReviewersID: responseToReviewersID,
	}
	if err := tx.Create(&revision).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.Conflict("revision version %d already exists for manuscript %d", version, manuscriptID)
		}
		return nil, apperrors.Internal(err)
	}
	for order, fileID := range fileIDs {
		link := models.RevisionFile{
			RevisionID: revision.RevisionID,
			FileID:     fileID,
			FileOrder:  order + 1,
		}
		if err := tx.Create(&link).Error; err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	return &revision, nil
}

// Submit creates a manuscript with revision v1 in status submitted.
func (s *ManuscriptService) Submit(in *SubmitManuscriptInput) (*models.Manuscript, error) {
	if err := validateSubmission(in); err != nil {
		return nil, err
	}

	now := time.Now()
	var manuscript models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := resolveFiles(tx, in.FileIDs); err != nil {
			return err
		}

		manuscript = models.Manuscript{
			ManuscriptCode: newManuscriptCode(now),
			Title:          strings.TrimSpace(in.Title),
			Abstract:       strings.TrimSpace(in.Abstract),
			Keywords:       strings.Join(in.Keywords, ","),
			Status:         models.ManuscriptSubmitted,
			SubmittedBy:    in.SubmittedBy,
			SubmittedAt:    now,
		}
		if err := tx.Create(&manuscript).Error; err != nil {
			return apperrors.Internal(err)
		}

		for order, author := range in.Authors {
			row := models.ManuscriptAuthor{
				ManuscriptID:    manuscript.ManuscriptID,
				Name:            strings.TrimSpace(author.Name),
				Affiliation:     strings.TrimSpace(author.Affiliation),
				Email:           author.Email,
				OrcidID:         author.OrcidID,
				IsCorresponding: author.IsCorresponding,
				AuthorOrder:     order + 1,
			}
			if err := tx.Create(&row).Error; err != nil {
				return apperrors.Internal(err)
			}
		}

		if _, err := createRevision(tx, manuscript.ManuscriptID, 1, in.SubmittedBy, in.FileIDs, nil); err != nil {
			return err
		}

		return appendTimeline(tx, manuscript.ManuscriptID, "submitted",
			fmt.Sprintf("initial submission with %d file(s)", len(in.FileIDs)), &in.SubmittedBy)
	})
	if err != nil {
		return nil, err
	}
	return &manuscript, nil
}

// AssignReviewers creates one pending invitation per reviewer and moves the
// manuscript under review. Assigning a reviewer twice fails with a conflict;
// the unique (manuscript_id, reviewer_id) index holds under concurrency.
func (s *ManuscriptService) AssignReviewers(manuscriptID, editorID int, assignments []ReviewerAssignment) ([]models.Review, error) {
	if len(assignments) == 0 {
		return nil, apperrors.Validation("at least one reviewer is required")
	}
	seen := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		if a.ReviewerID <= 0 {
			return nil, apperrors.Validation("reviewer id must be positive")
		}
		if seen[a.ReviewerID] {
			return nil, apperrors.Conflict("reviewer %d is listed twice", a.ReviewerID)
		}
		seen[a.ReviewerID] = true
	}

	var created []models.Review
	var manuscript *models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		manuscript, err = lockManuscript(tx, manuscriptID)
		if err != nil {
			return err
		}
		if manuscript.Status != models.ManuscriptSubmitted && manuscript.Status != models.ManuscriptUnderReview {
			return apperrors.InvalidState("reviewers can only be assigned while a manuscript is submitted or under review, not %s", manuscript.Status)
		}

		var round int64
		if err := tx.Model(&models.Revision{}).Where("manuscript_id = ?", manuscriptID).Count(&round).Error; err != nil {
			return apperrors.Internal(err)
		}

		now := time.Now()
		defaultDeadline := now.AddDate(0, 0, ReviewDeadlineDays())
		created = created[:0]
		for _, a := range assignments {
			var reviewer models.User
			if err := tx.First(&reviewer, "user_id = ? AND delete_at IS NULL", a.ReviewerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("reviewer %d not found", a.ReviewerID)
				}
				return apperrors.Internal(err)
			}

			deadline := defaultDeadline
			if a.Deadline != nil {
				deadline = *a.Deadline
			}
			review := models.Review{
				ManuscriptID: manuscriptID,
				ReviewerID:   a.ReviewerID,
				AssignedBy:   editorID,
				ReviewRound:  int(round),
				Status:       models.ReviewPendingInvitation,
				Deadline:     deadline,
				InvitedAt:    now,
			}
			if err := tx.Create(&review).Error; err != nil {
				if isDuplicateKey(err) {
					return apperrors.Conflict("reviewer %d is already assigned to manuscript %d", a.ReviewerID, manuscriptID)
				}
				return apperrors.Internal(err)
			}
			created = append(created, review)
		}

		if manuscript.Status == models.ManuscriptSubmitted {
			if err := EnsureManuscriptTransition(manuscript.Status, models.ManuscriptUnderReview); err != nil {
				return err
			}
			manuscript.Status = models.ManuscriptUnderReview
			if err := tx.Model(&models.Manuscript{}).
				Where("manuscript_id = ?", manuscriptID).
				Updates(map[string]interface{}{"status": manuscript.Status, "editor_id": editorID}).Error; err != nil {
				return apperrors.Internal(err)
			}
		}

		return appendTimeline(tx, manuscriptID, "reviewers_assigned",
			fmt.Sprintf("%d reviewer(s) invited", len(created)), &editorID)
	})
	if err != nil {
		return nil, err
	}

	for i := range created {
		s.notifier.ReviewInvited(&created[i], manuscript)
	}
	return created, nil
}

// RecordDecision writes the editor's binding ruling and advances the
// manuscript. Without override the manuscript must be review_completed; with
// override the editor may decide from any pre-decision state.
func (s *ManuscriptService) RecordDecision(manuscriptID, editorID int, in *DecisionInput) (*models.EditorialDecision, error) {
	if strings.TrimSpace(in.Letter) == "" {
		return nil, apperrors.Validation("decision letter is required")
	}
	outcome, err := DecisionOutcome(in.Decision)
	if err != nil {
		return nil, err
	}

	var decision models.EditorialDecision
	var manuscript *models.Manuscript
	err = s.db.Transaction(func(tx *gorm.DB) error {
		manuscript, err = lockManuscript(tx, manuscriptID)
		if err != nil {
			return err
		}

		if in.Override {
			switch manuscript.Status {
			case models.ManuscriptSubmitted, models.ManuscriptUnderReview, models.ManuscriptReviewCompleted:
				// Editor override skips the review_completed gate.
			default:
				return apperrors.InvalidState("decision cannot be recorded on a %s manuscript even with override", manuscript.Status)
			}
		} else {
			if manuscript.Status != models.ManuscriptReviewCompleted {
				return apperrors.InvalidState("decision requires a review_completed manuscript, not %s", manuscript.Status)
			}
			if err := EnsureManuscriptTransition(manuscript.Status, outcome); err != nil {
				return err
			}
		}

		var round int64
		if err := tx.Model(&models.Revision{}).Where("manuscript_id = ?", manuscriptID).Count(&round).Error; err != nil {
			return apperrors.Internal(err)
		}

		decision = models.EditorialDecision{
			ManuscriptID:  manuscriptID,
			Decision:      in.Decision,
			DecisionRound: int(round),
			Letter:        in.Letter,
			InternalNotes: in.InternalNotes,
			DecidedBy:     editorID,
			DecidedAt:     time.Now(),
		}
		if err := tx.Create(&decision).Error; err != nil {
			return apperrors.Internal(err)
		}

		if err := tx.Model(&models.Manuscript{}).
			Where("manuscript_id = ?", manuscriptID).
			Update("status", outcome).Error; err != nil {
			return apperrors.Internal(err)
		}
		manuscript.Status = outcome

		detail := fmt.Sprintf("decision %s (round %d)", in.Decision, decision.DecisionRound)
		if in.Override {
			detail += ", editor override"
		}
		return appendTimeline(tx, manuscriptID, "decision_recorded", detail, &editorID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.DecisionIssued(manuscript, in.Decision)
	return &decision, nil
}

// SubmitRevision appends the next immutable revision and re-enters the review
// pipeline. Prior reviews stay untouched as history.
func (s *ManuscriptService) SubmitRevision(manuscriptID, authorID int, in *RevisionInput) (*models.Revision, error) {
	if len(in.FileIDs) == 0 {
		return nil, apperrors.Validation("at least one file is required")
	}

	var revision *models.Revision
	var manuscript *models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		manuscript, err = lockManuscript(tx, manuscriptID)
		if err != nil {
			return err
		}
		if manuscript.SubmittedBy != authorID {
			return apperrors.Validation("only the submitting author can submit a revision")
		}
		if err := EnsureManuscriptTransition(manuscript.Status, models.ManuscriptSubmitted); err != nil {
			return err
		}

		if _, err := resolveFiles(tx, in.FileIDs); err != nil {
			return err
		}
		if in.ResponseToReviewersID != nil {
			if _, err := resolveFiles(tx, []int{*in.ResponseToReviewersID}); err != nil {
				return err
			}
		}

		var maxVersion int
		if err := tx.Model(&models.Revision{}).
			Where("manuscript_id = ?", manuscriptID).
			Select("COALESCE(MAX(version_number), 0)").Scan(&maxVersion).Error; err != nil {
			return apperrors.Internal(err)
		}

		revision, err = createRevision(tx, manuscriptID, maxVersion+1, authorID, in.FileIDs, in.ResponseToReviewersID)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Manuscript{}).
			Where("manuscript_id = ?", manuscriptID).
			Update("status", models.ManuscriptSubmitted).Error; err != nil {
			return apperrors.Internal(err)
		}

		return appendTimeline(tx, manuscriptID, "revision_submitted",
			fmt.Sprintf("revision v%d with %d file(s)", revision.VersionNumber, len(in.FileIDs)), &authorID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.RevisionSubmitted(manuscript, revision.VersionNumber)
	return revision, nil
}

// AssignToIssue links an accepted manuscript to an unpublished issue.
func (s *ManuscriptService) AssignToIssue(manuscriptID, issueID, editorID int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		manuscript, err := lockManuscript(tx, manuscriptID)
		if err != nil {
			return err
		}
		if manuscript.Status != models.ManuscriptAccepted {
			return apperrors.InvalidState("only accepted manuscripts can be assigned to an issue, not %s", manuscript.Status)
		}

		var issue models.Issue
		if err := tx.First(&issue, "issue_id = ?", issueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("issue %d not found", issueID)
			}
			return apperrors.Internal(err)
		}
		if issue.IsPublished {
			return apperrors.InvalidState("issue %d is already published", issueID)
		}

		if err := tx.Model(&models.Manuscript{}).
			Where("manuscript_id = ?", manuscriptID).
			Update("issue_id", issueID).Error; err != nil {
			return apperrors.Internal(err)
		}

		return appendTimeline(tx, manuscriptID, "assigned_to_issue",
			fmt.Sprintf("issue %d (vol %d no %d)", issueID, issue.Volume, issue.Number), &editorID)
	})
}

// publishLocked moves an accepted, issue-assigned manuscript to published and
// opens its DOI deposit record in pending. Caller must hold the row lock.
func publishLocked(tx *gorm.DB, manuscript *models.Manuscript, actorID int, publishedAt time.Time) error {
	if err := EnsureManuscriptTransition(manuscript.Status, models.ManuscriptPublished); err != nil {
		return err
	}
	if manuscript.IssueID == nil {
		return apperrors.InvalidState("manuscript %d has no issue assigned", manuscript.ManuscriptID)
	}

	if err := tx.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscript.ManuscriptID).
		Updates(map[string]interface{}{
			"status":       models.ManuscriptPublished,
			"published_at": publishedAt,
		}).Error; err != nil {
		return apperrors.Internal(err)
	}
	manuscript.Status = models.ManuscriptPublished
	manuscript.PublishedAt = &publishedAt

	// Deposit record enters the state machine: not_assigned -> pending.
	doi := models.DoiMetadata{
		ManuscriptID:  manuscript.ManuscriptID,
		DepositStatus: models.DoiPending,
		CreateAt:      publishedAt,
		UpdateAt:      publishedAt,
	}
	if err := tx.Create(&doi).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.Conflict("manuscript %d already has a DOI deposit record", manuscript.ManuscriptID)
		}
		return apperrors.Internal(err)
	}

	return appendTimeline(tx, manuscript.ManuscriptID, "published", "DOI deposit opened", &actorID)
}

// Publish publishes a single accepted manuscript that has an issue assigned.
func (s *ManuscriptService) Publish(manuscriptID, actorID int) (*models.Manuscript, error) {
	var manuscript *models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		manuscript, err = lockManuscript(tx, manuscriptID)
		if err != nil {
			return err
		}
		return publishLocked(tx, manuscript, actorID, time.Now())
	})
	if err != nil {
		return nil, err
	}
	s.notifier.ManuscriptPublished(manuscript)
	return manuscript, nil
}

// Delete soft-deletes a manuscript. Manuscripts with reviews are protected
// unless force is set (admin action), and published manuscripts never go.
func (s *ManuscriptService) Delete(manuscriptID, actorID int, force bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		manuscript, err := lockManuscript(tx, manuscriptID)
		if err != nil {
			return err
		}
		if manuscript.Status == models.ManuscriptPublished {
			return apperrors.InvalidState("published manuscripts cannot be deleted")
		}

		var reviewCount int64
		if err := tx.Model(&models.Review{}).Where("manuscript_id = ?", manuscriptID).Count(&reviewCount).Error; err != nil {
			return apperrors.Internal(err)
		}
		if reviewCount > 0 && !force {
			return apperrors.Conflict("manuscript %d has %d review(s); deletion requires force", manuscriptID, reviewCount)
		}

		now := time.Now()
		if err := tx.Model(&models.Manuscript{}).
			Where("manuscript_id = ?", manuscriptID).
			Update("delete_at", now).Error; err != nil {
			return apperrors.Internal(err)
		}

		return appendTimeline(tx, manuscriptID, "deleted", "", &actorID)
	})
}
