package models

import "time"

// DoiDepositStatus is the closed set of deposit states.
type DoiDepositStatus string

const (
	DoiNotAssigned DoiDepositStatus = "not_assigned"
	DoiPending     DoiDepositStatus = "pending"
	DoiProcessing  DoiDepositStatus = "processing"
	DoiSuccess     DoiDepositStatus = "success"
	DoiFailed      DoiDepositStatus = "failed"
)

// DoiMetadata is the deposit state for a published manuscript. One row per
// manuscript, created when the manuscript is published. DepositAttempts
// always equals the number of doi_deposit_attempts rows.
type DoiMetadata struct {
	DoiMetadataID      int              `gorm:"primaryKey;column:doi_metadata_id" json:"doi_metadata_id"`
	ManuscriptID       int              `gorm:"column:manuscript_id;unique" json:"manuscript_id"`
	Doi                *string          `gorm:"column:doi" json:"doi,omitempty"`
	DepositStatus      DoiDepositStatus `gorm:"column:deposit_status" json:"deposit_status"`
	DepositAttempts    int              `gorm:"column:deposit_attempts" json:"deposit_attempts"`
	LastDepositAttempt *time.Time       `gorm:"column:last_deposit_attempt" json:"last_deposit_attempt,omitempty"`
	DepositError       *string          `gorm:"column:deposit_error" json:"deposit_error,omitempty"`
	CreateAt           time.Time        `gorm:"column:create_at" json:"create_at"`
	UpdateAt           time.Time        `gorm:"column:update_at" json:"update_at"`

	History []DoiDepositAttempt `gorm:"foreignKey:DoiMetadataID" json:"history,omitempty"`
}

// DoiDepositAttempt is one append-only deposit history entry. Status here is
// always a resolved outcome (success or failed), never processing.
type DoiDepositAttempt struct {
	AttemptID      int              `gorm:"primaryKey;column:attempt_id" json:"attempt_id"`
	DoiMetadataID  int              `gorm:"column:doi_metadata_id" json:"doi_metadata_id"`
	AttemptNumber  int              `gorm:"column:attempt_number" json:"attempt_number"`
	Status         DoiDepositStatus `gorm:"column:status" json:"status"`
	Error          *string          `gorm:"column:error" json:"error,omitempty"`
	Response       *string          `gorm:"column:response" json:"response,omitempty"`
	ManualOverride bool             `gorm:"column:manual_override" json:"manual_override"`
	AttemptedBy    *int             `gorm:"column:attempted_by" json:"attempted_by,omitempty"`
	AttemptedAt    time.Time        `gorm:"column:attempted_at" json:"attempted_at"`
}

// TableName overrides
func (DoiMetadata) TableName() string {
	return "doi_metadata"
}

func (DoiDepositAttempt) TableName() string {
	return "doi_deposit_attempts"
}

// Retryable reports whether a deposit attempt may be started.
func (d *DoiMetadata) Retryable() bool {
	return d.DepositStatus == DoiNotAssigned || d.DepositStatus == DoiPending || d.DepositStatus == DoiFailed
}
