package services

import (
	"fmt"
	"log"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

// NotificationService persists in-app notifications and mails the affected
// user. Delivery is fire-and-forget: a failed mail or insert is logged and
// never rolls back the state transition that triggered it.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db}
}

func (s *NotificationService) notify(userID int, title, message, ntype string, manuscriptID *int) {
	var related *uint
	if manuscriptID != nil {
		id := uint(*manuscriptID)
		related = &id
	}
	row := models.Notification{
		UserID:              uint(userID),
		Title:               title,
		Message:             message,
		Type:                ntype,
		RelatedManuscriptID: related,
		CreateAt:            time.Now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("Warning: failed to store notification for user %d: %v", userID, err)
	}

	var user models.User
	if err := s.db.Select("email").First(&user, "user_id = ? AND delete_at IS NULL", userID).Error; err != nil {
		return
	}
	go func(email, subject, body string) {
		if err := config.SendMail([]string{email}, subject, body); err != nil {
			log.Printf("Warning: failed to send notification email to %s: %v", email, err)
		}
	}(user.Email, title, "<p>"+message+"</p>")
}

// ReviewInvited notifies a reviewer about a new assignment.
func (s *NotificationService) ReviewInvited(review *models.Review, manuscript *models.Manuscript) {
	msg := fmt.Sprintf("You have been invited to review manuscript %s (%q). Response due by %s.",
		manuscript.ManuscriptCode, manuscript.Title, review.Deadline.Format("2 Jan 2006"))
	s.notify(review.ReviewerID, "Review invitation", msg, "info", &manuscript.ManuscriptID)
}

// ReviewReminder nudges a reviewer about an open review.
func (s *NotificationService) ReviewReminder(review *models.Review, manuscript *models.Manuscript) {
	msg := fmt.Sprintf("Reminder: your review of manuscript %s is due by %s.",
		manuscript.ManuscriptCode, review.Deadline.Format("2 Jan 2006"))
	s.notify(review.ReviewerID, "Review reminder", msg, "warning", &manuscript.ManuscriptID)
}

// InvitationAnswered tells the assigning editor about a reviewer's response.
func (s *NotificationService) InvitationAnswered(review *models.Review, manuscript *models.Manuscript, accepted bool) {
	verb := "declined"
	if accepted {
		verb = "accepted"
	}
	msg := fmt.Sprintf("Reviewer %d has %s the invitation for manuscript %s.",
		review.ReviewerID, verb, manuscript.ManuscriptCode)
	s.notify(review.AssignedBy, "Review invitation "+verb, msg, "info", &manuscript.ManuscriptID)
}

// ReviewSubmitted tells the assigning editor a review came in.
func (s *NotificationService) ReviewSubmitted(review *models.Review, manuscript *models.Manuscript) {
	msg := fmt.Sprintf("A review for manuscript %s has been submitted.", manuscript.ManuscriptCode)
	s.notify(review.AssignedBy, "Review submitted", msg, "success", &manuscript.ManuscriptID)
}

// DecisionIssued notifies the submitting author of the editorial decision.
func (s *NotificationService) DecisionIssued(manuscript *models.Manuscript, decision models.DecisionType) {
	msg := fmt.Sprintf("An editorial decision (%s) has been issued for manuscript %s.",
		decision, manuscript.ManuscriptCode)
	s.notify(manuscript.SubmittedBy, "Editorial decision", msg, "info", &manuscript.ManuscriptID)
}

// RevisionSubmitted notifies the assigned editor of a resubmission.
func (s *NotificationService) RevisionSubmitted(manuscript *models.Manuscript, version int) {
	if manuscript.EditorID == nil {
		return
	}
	msg := fmt.Sprintf("Revision v%d of manuscript %s has been submitted.", version, manuscript.ManuscriptCode)
	s.notify(*manuscript.EditorID, "Revision submitted", msg, "info", &manuscript.ManuscriptID)
}

// ManuscriptPublished notifies the submitting author on publication.
func (s *NotificationService) ManuscriptPublished(manuscript *models.Manuscript) {
	msg := fmt.Sprintf("Manuscript %s has been published.", manuscript.ManuscriptCode)
	s.notify(manuscript.SubmittedBy, "Manuscript published", msg, "success", &manuscript.ManuscriptID)
}

// DoiResolved notifies the submitting author about a resolved deposit attempt.
func (s *NotificationService) DoiResolved(manuscript *models.Manuscript, meta *models.DoiMetadata) {
	if meta.DepositStatus == models.DoiSuccess && meta.Doi != nil {
		msg := fmt.Sprintf("DOI %s has been registered for manuscript %s.", *meta.Doi, manuscript.ManuscriptCode)
		s.notify(manuscript.SubmittedBy, "DOI registered", msg, "success", &manuscript.ManuscriptID)
		return
	}
	msg := fmt.Sprintf("DOI deposit attempt %d for manuscript %s failed.", meta.DepositAttempts, manuscript.ManuscriptCode)
	s.notify(manuscript.SubmittedBy, "DOI deposit failed", msg, "error", &manuscript.ManuscriptID)
}
