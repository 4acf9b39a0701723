package models

import "time"

// ReviewStatus is the closed set of states for one reviewer assignment.
type ReviewStatus string

const (
	ReviewPendingInvitation ReviewStatus = "pending_invitation"
	ReviewAccepted          ReviewStatus = "accepted"
	ReviewDeclined          ReviewStatus = "declined"
	ReviewInProgress        ReviewStatus = "in_progress"
	ReviewCompleted         ReviewStatus = "completed"
)

// IsTerminal reports whether the review can no longer change.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewDeclined || s == ReviewCompleted
}

// Recommendation is a reviewer's advisory verdict.
type Recommendation string

const (
	RecommendAccept        Recommendation = "accept"
	RecommendMinorRevision Recommendation = "minor_revision"
	RecommendMajorRevision Recommendation = "major_revision"
	RecommendReject        Recommendation = "reject"
)

// Review represents one reviewer's assignment to one manuscript. The unique
// index on (manuscript_id, reviewer_id) is the authority for the
// no-duplicate-reviewer rule, including under concurrent assignment calls.
type Review struct {
	ReviewID     int          `gorm:"primaryKey;column:review_id" json:"review_id"`
	ManuscriptID int          `gorm:"column:manuscript_id;uniqueIndex:idx_manuscript_reviewer" json:"manuscript_id"`
	ReviewerID   int          `gorm:"column:reviewer_id;uniqueIndex:idx_manuscript_reviewer" json:"reviewer_id"`
	AssignedBy   int          `gorm:"column:assigned_by" json:"assigned_by"`
	ReviewRound  int          `gorm:"column:review_round" json:"review_round"`
	Status       ReviewStatus `gorm:"column:status" json:"status"`
	Deadline     time.Time    `gorm:"column:deadline" json:"deadline"`
	InvitedAt    time.Time    `gorm:"column:invited_at" json:"invited_at"`
	AcceptedAt   *time.Time   `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	CompletedAt  *time.Time   `gorm:"column:completed_at" json:"completed_at,omitempty"`

	// Set only when status=completed.
	RatingOriginality  *int            `gorm:"column:rating_originality" json:"rating_originality,omitempty"`
	RatingMethodology  *int            `gorm:"column:rating_methodology" json:"rating_methodology,omitempty"`
	RatingClarity      *int            `gorm:"column:rating_clarity" json:"rating_clarity,omitempty"`
	RatingSignificance *int            `gorm:"column:rating_significance" json:"rating_significance,omitempty"`
	CommentsForAuthor  *string         `gorm:"column:comments_for_author" json:"comments_for_author,omitempty"`
	CommentsForEditor  *string         `gorm:"column:comments_for_editor" json:"comments_for_editor,omitempty"`
	Recommendation     *Recommendation `gorm:"column:recommendation" json:"recommendation,omitempty"`

	// Relations
	Reviewer *User       `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Assigner *User       `gorm:"foreignKey:AssignedBy" json:"assigner,omitempty"`
	Manu     *Manuscript `gorm:"foreignKey:ManuscriptID" json:"manuscript,omitempty"`
}

// TableName specifies the table name for Review.
func (Review) TableName() string {
	return "reviews"
}

// AverageRating returns the mean of the four criterion ratings, or 0 when the
// review is not completed.
func (r *Review) AverageRating() float64 {
	if r.RatingOriginality == nil || r.RatingMethodology == nil ||
		r.RatingClarity == nil || r.RatingSignificance == nil {
		return 0
	}
	sum := *r.RatingOriginality + *r.RatingMethodology + *r.RatingClarity + *r.RatingSignificance
	return float64(sum) / 4.0
}

// IsOverdue reports whether an open review has passed its deadline.
func (r *Review) IsOverdue(now time.Time) bool {
	return !r.Status.IsTerminal() && now.After(r.Deadline)
}
