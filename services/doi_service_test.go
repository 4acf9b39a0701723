package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"journal-management-api/models"
)

func strPtr(s string) *string { return &s }

func TestResolveAttemptFailure(t *testing.T) {
	now := time.Now()
	meta := &models.DoiMetadata{DoiMetadataID: 3, DepositAttempts: 2, DepositStatus: models.DoiProcessing}

	attempt, updates := resolveAttempt(meta, nil, fmt.Errorf("registrar returned status 503"), false, 7, now)

	if attempt.AttemptNumber != 3 {
		t.Errorf("AttemptNumber = %d, want prior+1 = 3", attempt.AttemptNumber)
	}
	if attempt.Status != models.DoiFailed {
		t.Errorf("attempt status = %s, want failed", attempt.Status)
	}
	if attempt.Error == nil || *attempt.Error != "registrar returned status 503" {
		t.Errorf("attempt should carry the failure detail, got %v", attempt.Error)
	}
	if attempt.ManualOverride {
		t.Error("registrar outcome must not be tagged as manual override")
	}
	if updates["deposit_status"] != models.DoiFailed {
		t.Errorf("deposit_status update = %v, want failed", updates["deposit_status"])
	}
	if updates["deposit_attempts"] != 3 {
		t.Errorf("deposit_attempts update = %v, want 3", updates["deposit_attempts"])
	}
}

func TestResolveAttemptSuccess(t *testing.T) {
	now := time.Now()
	meta := &models.DoiMetadata{DoiMetadataID: 3, DepositAttempts: 1, DepositStatus: models.DoiProcessing}
	result := &DepositResult{Doi: "10.1234/jrnl.2026.7", RawResponse: `{"doi":"10.1234/jrnl.2026.7"}`}

	attempt, updates := resolveAttempt(meta, result, nil, false, 7, now)

	if attempt.AttemptNumber != 2 {
		t.Errorf("AttemptNumber = %d, want prior+1 = 2", attempt.AttemptNumber)
	}
	if attempt.Status != models.DoiSuccess {
		t.Errorf("attempt status = %s, want success", attempt.Status)
	}
	if attempt.Error != nil {
		t.Errorf("successful attempt must not carry an error, got %q", *attempt.Error)
	}
	if attempt.Response == nil || *attempt.Response != result.RawResponse {
		t.Error("successful attempt should keep the registrar response")
	}
	if updates["deposit_status"] != models.DoiSuccess {
		t.Errorf("deposit_status update = %v, want success", updates["deposit_status"])
	}
	if updates["doi"] != "10.1234/jrnl.2026.7" {
		t.Errorf("doi update = %v", updates["doi"])
	}
	if updates["deposit_error"] != nil {
		t.Errorf("success must clear deposit_error, got %v", updates["deposit_error"])
	}
}

func TestResolveAttemptManualOverride(t *testing.T) {
	now := time.Now()
	meta := &models.DoiMetadata{DoiMetadataID: 3, DepositAttempts: 4, DepositStatus: models.DoiFailed}

	attempt, _ := resolveAttempt(meta, &DepositResult{Doi: "10.5281/zenodo.99"}, nil, true, 7, now)

	if attempt.AttemptNumber != 5 {
		t.Errorf("AttemptNumber = %d, want prior+1 = 5", attempt.AttemptNumber)
	}
	if !attempt.ManualOverride {
		t.Error("manual assignment must be tagged as manual override in the history")
	}
	if attempt.AttemptedBy == nil || *attempt.AttemptedBy != 7 {
		t.Errorf("AttemptedBy = %v, want 7", attempt.AttemptedBy)
	}
}

func TestResolveAttemptNeverLeavesProcessing(t *testing.T) {
	now := time.Now()
	meta := &models.DoiMetadata{DoiMetadataID: 1, DepositStatus: models.DoiProcessing}

	for _, callErr := range []error{nil, fmt.Errorf("timeout")} {
		result := &DepositResult{Doi: "10.1234/x"}
		if callErr != nil {
			result = nil
		}
		attempt, updates := resolveAttempt(meta, result, callErr, false, 1, now)
		if attempt.Status == models.DoiProcessing {
			t.Error("a resolved attempt must never carry processing")
		}
		if updates["deposit_status"] == models.DoiProcessing {
			t.Error("the metadata must never resolve to processing")
		}
	}
}

func TestReservationPath(t *testing.T) {
	tests := []struct {
		from models.DoiDepositStatus
		want []models.DoiDepositStatus
	}{
		{models.DoiFailed, []models.DoiDepositStatus{models.DoiPending, models.DoiProcessing}},
		{models.DoiNotAssigned, []models.DoiDepositStatus{models.DoiProcessing}},
		{models.DoiPending, []models.DoiDepositStatus{models.DoiProcessing}},
	}

	for _, tt := range tests {
		got := reservationPath(tt.from)
		if len(got) != len(tt.want) {
			t.Fatalf("reservationPath(%s) = %v, want %v", tt.from, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("reservationPath(%s)[%d] = %s, want %s", tt.from, i, got[i], tt.want[i])
			}
		}
		if got[len(got)-1] != models.DoiProcessing {
			t.Errorf("reservationPath(%s) must end in processing", tt.from)
		}
	}
}

func TestRetryAllAggregatesIndependentOutcomes(t *testing.T) {
	svc := &DoiService{}
	ids := []int{10, 11, 12, 13, 14}

	// Odd manuscript ids fail, even ones succeed.
	retry := func(ctx context.Context, manuscriptID int) (*models.DoiMetadata, error) {
		if manuscriptID%2 != 0 {
			return &models.DoiMetadata{
				ManuscriptID:  manuscriptID,
				DepositStatus: models.DoiFailed,
			}, fmt.Errorf("registrar rejected manuscript %d", manuscriptID)
		}
		return &models.DoiMetadata{
			ManuscriptID:  manuscriptID,
			DepositStatus: models.DoiSuccess,
			Doi:           strPtr(fmt.Sprintf("10.1234/ms.%d", manuscriptID)),
		}, nil
	}

	result, err := svc.retryAll(context.Background(), ids, 1, retry)
	if err != nil {
		t.Fatalf("retryAll returned error: %v", err)
	}

	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if result.Succeeded != 3 || result.Failed != 2 {
		t.Errorf("Succeeded/Failed = %d/%d, want 3/2", result.Succeeded, result.Failed)
	}
	if result.Succeeded+result.Failed != result.Total {
		t.Errorf("outcome counts do not sum to total: %+v", result)
	}

	// Items stay in input order regardless of completion order.
	for i, item := range result.Items {
		if item.ManuscriptID != ids[i] {
			t.Fatalf("Items[%d].ManuscriptID = %d, want %d", i, item.ManuscriptID, ids[i])
		}
		if item.ManuscriptID%2 != 0 {
			if item.Error == "" || item.DepositStatus != models.DoiFailed {
				t.Errorf("failed item %d missing error detail: %+v", item.ManuscriptID, item)
			}
		} else {
			if item.Error != "" || item.Doi == nil {
				t.Errorf("succeeded item %d carries unexpected state: %+v", item.ManuscriptID, item)
			}
		}
	}
}

func TestRetryAllEmpty(t *testing.T) {
	svc := &DoiService{}

	result, err := svc.retryAll(context.Background(), nil, 1,
		func(ctx context.Context, manuscriptID int) (*models.DoiMetadata, error) {
			t.Error("retry must not be called for an empty batch")
			return nil, nil
		})
	if err != nil {
		t.Fatalf("retryAll returned error: %v", err)
	}
	if result.Total != 0 || result.Succeeded != 0 || result.Failed != 0 {
		t.Errorf("unexpected counts for empty batch: %+v", result)
	}
}

func TestRetryAllNilMetadataCountsAsFailure(t *testing.T) {
	svc := &DoiService{}

	result, err := svc.retryAll(context.Background(), []int{1}, 1,
		func(ctx context.Context, manuscriptID int) (*models.DoiMetadata, error) {
			return nil, fmt.Errorf("no deposit record")
		})
	if err != nil {
		t.Fatalf("retryAll returned error: %v", err)
	}
	if result.Failed != 1 || result.Succeeded != 0 {
		t.Errorf("Failed/Succeeded = %d/%d, want 1/0", result.Failed, result.Succeeded)
	}
	if result.Items[0].Error == "" {
		t.Error("item should carry the retry error message")
	}
}

func TestRetryAllBoundsConcurrency(t *testing.T) {
	svc := &DoiService{}
	ids := make([]int, 20)
	for i := range ids {
		ids[i] = i + 1
	}

	var current, peak int64
	retry := func(ctx context.Context, manuscriptID int) (*models.DoiMetadata, error) {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&current, -1)
		return &models.DoiMetadata{ManuscriptID: manuscriptID, DepositStatus: models.DoiSuccess}, nil
	}

	if _, err := svc.retryAll(context.Background(), ids, 1, retry); err != nil {
		t.Fatalf("retryAll returned error: %v", err)
	}
	if got := atomic.LoadInt64(&peak); got > bulkRetryConcurrency {
		t.Errorf("observed %d concurrent retries, limit is %d", got, bulkRetryConcurrency)
	}
}
