package services

import (
	"context"
	"errors"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
	"gorm.io/gorm"
)

// Notification types.
const (
	NotificationJobInvitation      = "job_invitation"
	NotificationInvitationResponse = "invitation_response"
	NotificationProjectCreated     = "project_created"
	NotificationProjectStatus      = "project_status"
	NotificationMilestone          = "milestone"
	NotificationPayment            = "payment"
	NotificationMessage            = "message"
	NotificationReview             = "review"
	NotificationVerification       = "verification"
)

// Notifier records a notification for a user.
type Notifier interface {
	Notify(ctx context.Context, in *NotifyInput) (*models.Notification, error)
}

type NotifyInput struct {
	UserID  string
	Type    string
	Title   models.LocalizedText
	Message models.LocalizedText
	Link    string
}

// notify is best-effort: the operation that triggered it has already
// committed.
func notify(ctx context.Context, n Notifier, in *NotifyInput) {
	if n == nil || in.UserID == "" {
		return
	}
	if _, err := n.Notify(ctx, in); err != nil {
		logger.Warn().Err(err).Str("user_id", in.UserID).Str("type", in.Type).Msg("[Notification] Failed to record")
	}
}

// NotificationService persists notifications, pushes them to live
// connections and schedules email delivery.
type NotificationService struct {
	db    *gorm.DB
	hub   *queue.Hub
	queue queue.TaskQueue
}

func NewNotificationService(db *gorm.DB, hub *queue.Hub, q queue.TaskQueue) *NotificationService {
	return &NotificationService{db: db, hub: hub, queue: q}
}

type NotificationListRequest struct {
	PageRequest
	Unread bool `form:"unread"`
}

func (s *NotificationService) Notify(ctx context.Context, in *NotifyInput) (*models.Notification, error) {
	n := models.Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   in.Title,
		Message: in.Message,
		Link:    in.Link,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, writeErr(err, "notification")
	}

	if s.hub != nil {
		s.hub.Publish(n.UserID, queue.Event{Type: "notification", Data: n})
	}
	if s.queue != nil {
		if err := s.queue.Enqueue(TaskTypeNotificationEmail, &EmailTask{NotificationID: n.ID}); err != nil {
			logger.Warn().Err(err).Str("notification_id", n.ID).Msg("[Notification] Failed to enqueue email")
		}
	}
	return &n, nil
}

func (s *NotificationService) List(ctx context.Context, userID string, req *NotificationListRequest) ([]models.Notification, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if req.Unread {
		query = query.Where("is_read = ?", false)
	}

	notifications := []models.Notification{}
	err := query.Order("created_at DESC").Limit(req.limit()).Offset(req.Offset).Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	var n models.Notification
	if err := s.db.WithContext(ctx).Select("id").First(&n, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return lookupErr(err, "notification")
	}
	return s.db.WithContext(ctx).Model(&n).UpdateColumn("is_read", true).Error
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	return result.RowsAffected, result.Error
}

// EmailDelivery sends notification emails from the background queue.
type EmailDelivery struct {
	db      *gorm.DB
	mailer  Mailer
	baseURL string
}

func NewEmailDelivery(db *gorm.DB, mailer Mailer, baseURL string) *EmailDelivery {
	return &EmailDelivery{db: db, mailer: mailer, baseURL: baseURL}
}

// Deliver emails one notification to its user. Users without an email
// address, and deployments without SMTP, are skipped.
func (d *EmailDelivery) Deliver(ctx context.Context, notificationID string) error {
	if d.mailer == nil {
		return nil
	}

	db := d.db.WithContext(ctx)
	var n models.Notification
	if err := db.First(&n, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var user models.User
	if err := db.First(&user, "id = ?", n.UserID).Error; err != nil {
		return lookupErr(err, "user")
	}
	if user.Email == nil || *user.Email == "" {
		return nil
	}

	lang := user.PreferredLanguage
	if !lang.Valid() {
		lang = models.LangEN
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return d.mailer.Send(ctx, *user.Email, n.Title.Get(lang), buildEmailBody(&n, lang, d.baseURL))
}
