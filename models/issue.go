package models

import "time"

// Issue is the publication container for accepted manuscripts. Publishing an
// issue publishes every assigned manuscript and opens its DOI deposit.
type Issue struct {
	IssueID     int        `gorm:"primaryKey;column:issue_id" json:"issue_id"`
	Volume      int        `gorm:"column:volume" json:"volume"`
	Number      int        `gorm:"column:number" json:"number"`
	Year        int        `gorm:"column:year" json:"year"`
	Title       string     `gorm:"column:title" json:"title"`
	IsPublished bool       `gorm:"column:is_published" json:"is_published"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	CreateAt    time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt    time.Time  `gorm:"column:update_at" json:"update_at"`

	Manuscripts []Manuscript `gorm:"foreignKey:IssueID" json:"manuscripts,omitempty"`
}

// TableName specifies the table name for Issue.
func (Issue) TableName() string {
	return "issues"
}
