package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"journal-management-api/apperrors"
	"journal-management-api/config"
	"journal-management-api/models"
	"journal-management-api/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	depositTimeout       = 30 * time.Second
	bulkRetryConcurrency = 4
)

// DoiService drives the retryable deposit workflow against the external DOI
// registrar. Retries are operator-triggered only; nothing here schedules
// background attempts.
type DoiService struct {
	db        *gorm.DB
	registrar RegistrarClient
	notifier  *NotificationService
}

func NewDoiService(db *gorm.DB, registrar RegistrarClient) *DoiService {
	if db == nil {
		db = config.DB
	}
	if registrar == nil {
		registrar = NewHTTPRegistrarClient("", nil)
	}
	return &DoiService{db: db, registrar: registrar, notifier: NewNotificationService(db)}
}

// BulkRetryItem is one manuscript's outcome inside a bulk retry run.
type BulkRetryItem struct {
	ManuscriptID  int                     `json:"manuscript_id"`
	DepositStatus models.DoiDepositStatus `json:"deposit_status"`
	Doi           *string                 `json:"doi,omitempty"`
	Error         string                  `json:"error,omitempty"`
}

// BulkRetryResult aggregates independent per-manuscript retry outcomes.
type BulkRetryResult struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Items     []BulkRetryItem `json:"items"`
}

// reservationPath lists the status writes that reserve an attempt. A deposit
// restarted from failed passes back through pending on its way to processing;
// the other retryable states go straight to processing.
func reservationPath(current models.DoiDepositStatus) []models.DoiDepositStatus {
	if current == models.DoiFailed {
		return []models.DoiDepositStatus{models.DoiPending, models.DoiProcessing}
	}
	return []models.DoiDepositStatus{models.DoiProcessing}
}

func lockDoiMetadata(tx *gorm.DB, manuscriptID int) (*models.DoiMetadata, error) {
	var meta models.DoiMetadata
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&meta, "manuscript_id = ?", manuscriptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("manuscript %d has no DOI deposit record", manuscriptID)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &meta, nil
}

// GetStatus returns the deposit record with its full attempt history.
func (s *DoiService) GetStatus(manuscriptID int) (*models.DoiMetadata, error) {
	var meta models.DoiMetadata
	err := s.db.Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("attempt_number ASC") }).
		First(&meta, "manuscript_id = ?", manuscriptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("manuscript %d has no DOI deposit record", manuscriptID)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &meta, nil
}

// Deposit performs exactly one registrar attempt for a published manuscript.
// Legal from not_assigned, pending or failed. The record is marked
// processing only while the registrar call is in flight and always resolves
// to success or failed before returning; each call appends exactly one
// history entry and increments the attempt counter by one.
func (s *DoiService) Deposit(ctx context.Context, manuscriptID, actorID int) (*models.DoiMetadata, error) {
	return s.attempt(ctx, manuscriptID, actorID, false)
}

// Retry is a fresh deposit attempt, permitted only from failed or
// not_assigned. Each call is one attempt; backoff is the caller's concern.
func (s *DoiService) Retry(ctx context.Context, manuscriptID, actorID int) (*models.DoiMetadata, error) {
	return s.attempt(ctx, manuscriptID, actorID, true)
}

func (s *DoiService) attempt(ctx context.Context, manuscriptID, actorID int, retryGate bool) (*models.DoiMetadata, error) {
	var request *DepositRequest
	var manuscript *models.Manuscript

	// Phase 1: reserve the attempt. The row lock serializes concurrent
	// deposits on the same manuscript; a second caller sees processing.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		manuscript, err = lockManuscript(tx, manuscriptID)
		if err != nil {
			return err
		}
		if manuscript.Status != models.ManuscriptPublished {
			return apperrors.InvalidState("DOI deposit requires a published manuscript, not %s", manuscript.Status)
		}

		meta, err := lockDoiMetadata(tx, manuscriptID)
		if err != nil {
			return err
		}
		if retryGate {
			if meta.DepositStatus != models.DoiFailed && meta.DepositStatus != models.DoiNotAssigned {
				return apperrors.InvalidState("retry is permitted only from failed or not_assigned, not %s", meta.DepositStatus)
			}
		} else if !meta.Retryable() {
			return apperrors.InvalidState("deposit cannot start while status is %s", meta.DepositStatus)
		}

		now := time.Now()
		for _, status := range reservationPath(meta.DepositStatus) {
			if err := tx.Model(&models.DoiMetadata{}).
				Where("doi_metadata_id = ?", meta.DoiMetadataID).
				Updates(map[string]interface{}{"deposit_status": status, "update_at": now}).Error; err != nil {
				return apperrors.Internal(err)
			}
		}

		request, err = s.buildRequest(tx, manuscript)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Phase 2: the external call. No mid-flight cancellation; once
	// processing begins the attempt runs to a resolved outcome.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), depositTimeout)
	defer cancel()
	result, callErr := s.registrar.SubmitDeposit(callCtx, request)

	// Phase 3: record the outcome. A timeout or malformed response is a
	// failed attempt, recorded like any other; the record never stays
	// processing.
	meta, err := s.recordOutcome(manuscriptID, actorID, result, callErr, false)
	if err != nil {
		return nil, err
	}
	s.notifier.DoiResolved(manuscript, meta)
	if callErr != nil {
		return meta, apperrors.External(callErr, "DOI deposit attempt %d failed", meta.DepositAttempts)
	}
	return meta, nil
}

func (s *DoiService) buildRequest(tx *gorm.DB, manuscript *models.Manuscript) (*DepositRequest, error) {
	var authors []models.ManuscriptAuthor
	if err := tx.Where("manuscript_id = ?", manuscript.ManuscriptID).
		Order("author_order ASC").Find(&authors).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}

	req := &DepositRequest{
		ManuscriptCode: manuscript.ManuscriptCode,
		Title:          manuscript.Title,
		Authors:        names,
	}
	if manuscript.PublishedAt != nil {
		req.PublishedAt = *manuscript.PublishedAt
	}
	if manuscript.IssueID != nil {
		var issue models.Issue
		if err := tx.First(&issue, "issue_id = ?", *manuscript.IssueID).Error; err == nil {
			req.Volume = issue.Volume
			req.Number = issue.Number
			req.Year = issue.Year
		}
	}
	return req, nil
}

// resolveAttempt computes the history entry and the metadata column updates
// for one resolved deposit outcome. The entry's status is always success or
// failed, never processing, and its attempt number extends the history by
// exactly one. Pure; recordOutcome persists both in one transaction.
func resolveAttempt(meta *models.DoiMetadata, result *DepositResult, callErr error, manual bool, actorID int, now time.Time) (models.DoiDepositAttempt, map[string]interface{}) {
	attempt := models.DoiDepositAttempt{
		DoiMetadataID:  meta.DoiMetadataID,
		AttemptNumber:  meta.DepositAttempts + 1,
		ManualOverride: manual,
		AttemptedBy:    &actorID,
		AttemptedAt:    now,
	}
	updates := map[string]interface{}{
		"deposit_attempts":     meta.DepositAttempts + 1,
		"last_deposit_attempt": now,
		"update_at":            now,
	}

	if callErr != nil {
		msg := callErr.Error()
		attempt.Status = models.DoiFailed
		attempt.Error = &msg
		updates["deposit_status"] = models.DoiFailed
		updates["deposit_error"] = msg
		return attempt, updates
	}

	attempt.Status = models.DoiSuccess
	if result.RawResponse != "" {
		raw := result.RawResponse
		attempt.Response = &raw
	}
	updates["deposit_status"] = models.DoiSuccess
	updates["deposit_error"] = nil
	updates["doi"] = result.Doi
	return attempt, updates
}

// recordOutcome appends the attempt history entry and resolves the deposit
// status. Used for both registrar outcomes and manual overrides.
func (s *DoiService) recordOutcome(manuscriptID, actorID int, result *DepositResult, callErr error, manual bool) (*models.DoiMetadata, error) {
	var updated *models.DoiMetadata
	err := s.db.Transaction(func(tx *gorm.DB) error {
		meta, err := lockDoiMetadata(tx, manuscriptID)
		if err != nil {
			return err
		}

		now := time.Now()
		attempt, updates := resolveAttempt(meta, result, callErr, manual, actorID, now)

		if err := tx.Create(&attempt).Error; err != nil {
			return apperrors.Internal(err)
		}
		if err := tx.Model(&models.DoiMetadata{}).
			Where("doi_metadata_id = ?", meta.DoiMetadataID).
			Updates(updates).Error; err != nil {
			return apperrors.Internal(err)
		}

		event := "doi_deposit_failed"
		detail := fmt.Sprintf("attempt %d", attempt.AttemptNumber)
		if callErr == nil {
			event = "doi_assigned"
			detail = fmt.Sprintf("attempt %d, DOI %s", attempt.AttemptNumber, result.Doi)
			if manual {
				detail += " (manual override)"
			}
		}
		if err := appendTimeline(tx, manuscriptID, event, detail, &actorID); err != nil {
			return err
		}

		meta.DepositAttempts = attempt.AttemptNumber
		meta.LastDepositAttempt = &now
		if callErr != nil {
			meta.DepositStatus = models.DoiFailed
			meta.DepositError = attempt.Error
		} else {
			meta.DepositStatus = models.DoiSuccess
			meta.DepositError = nil
			meta.Doi = &result.Doi
		}
		updated = meta
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ManualAssign records an operator-supplied DOI, bypassing the registrar.
// This is the escape hatch when the registrar cannot be reached or its
// responses cannot be parsed. Audited as a manual-override history entry.
func (s *DoiService) ManualAssign(manuscriptID, actorID int, doi string) (*models.DoiMetadata, error) {
	doi = strings.TrimSpace(doi)
	if !utils.ValidateDOI(doi) {
		return nil, apperrors.Validation("invalid DOI format %q, expected 10.prefix/suffix", doi)
	}

	// Precondition checks match Deposit's phase 1, minus the status gate:
	// manual assignment is legal from any deposit state.
	var manuscript *models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		manuscript, err = lockManuscript(tx, manuscriptID)
		if err != nil {
			return err
		}
		if manuscript.Status != models.ManuscriptPublished {
			return apperrors.InvalidState("DOI can only be assigned to a published manuscript, not %s", manuscript.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	meta, err := s.recordOutcome(manuscriptID, actorID, &DepositResult{Doi: doi}, nil, true)
	if err != nil {
		return nil, err
	}
	s.notifier.DoiResolved(manuscript, meta)
	return meta, nil
}

// BulkRetry re-attempts every failed deposit with bounded parallelism. Each
// manuscript's outcome is independent; one failure never aborts the batch.
func (s *DoiService) BulkRetry(ctx context.Context, actorID int) (*BulkRetryResult, error) {
	var ids []int
	if err := s.db.Model(&models.DoiMetadata{}).
		Where("deposit_status = ?", models.DoiFailed).
		Order("manuscript_id ASC").
		Pluck("manuscript_id", &ids).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.retryAll(ctx, ids, actorID, func(ctx context.Context, manuscriptID int) (*models.DoiMetadata, error) {
		return s.Retry(ctx, manuscriptID, actorID)
	})
}

// retryAll fans the retry function out over the ids. Factored out so the
// aggregation behavior is testable without a database.
func (s *DoiService) retryAll(ctx context.Context, ids []int, actorID int,
	retry func(ctx context.Context, manuscriptID int) (*models.DoiMetadata, error)) (*BulkRetryResult, error) {

	result := &BulkRetryResult{
		Total: len(ids),
		Items: make([]BulkRetryItem, len(ids)),
	}

	var mu sync.Mutex
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(bulkRetryConcurrency)

	for i, manuscriptID := range ids {
		i, manuscriptID := i, manuscriptID
		g.Go(func() error {
			item := BulkRetryItem{ManuscriptID: manuscriptID}
			meta, err := retry(groupCtx, manuscriptID)
			if meta != nil {
				item.DepositStatus = meta.DepositStatus
				item.Doi = meta.Doi
			}
			if err != nil {
				item.Error = apperrors.MessageOf(err)
			}

			mu.Lock()
			result.Items[i] = item
			if err == nil && meta != nil && meta.DepositStatus == models.DoiSuccess {
				result.Succeeded++
			} else {
				result.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only orders the joins.
	_ = g.Wait()
	return result, nil
}
