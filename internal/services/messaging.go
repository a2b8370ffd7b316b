package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessagingService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewMessagingService(db *gorm.DB, notifier Notifier) *MessagingService {
	return &MessagingService{db: db, notifier: notifier}
}

type ConversationRequest struct {
	ParticipantID string  `json:"participantId" binding:"required"`
	ProjectID     *string `json:"projectId"`
}

type MessageRequest struct {
	ConversationID string               `json:"conversationId" binding:"required"`
	Content        models.LocalizedText `json:"content"`
	ContentAr      *string              `json:"contentAr"`
	FileURLs       []string             `json:"fileUrls" binding:"omitempty,max=10,dive,url"`
}

// ConversationSummary is a conversation as listed for one participant.
type ConversationSummary struct {
	models.Conversation
	OtherUser   *models.User `json:"otherUser"`
	UnreadCount int64        `json:"unreadCount"`
}

// GetOrCreateConversation returns the single conversation between userID
// and the other participant, creating it on first use. Concurrent callers
// converge on the same row through the unique pair key.
func (s *MessagingService) GetOrCreateConversation(ctx context.Context, userID string, req *ConversationRequest) (*models.Conversation, error) {
	if req.ParticipantID == userID {
		return nil, invalid("participantId", "must be another user")
	}

	projectID := req.ProjectID
	if projectID != nil && strings.TrimSpace(*projectID) == "" {
		projectID = nil
	}

	first, second, key := models.CanonicalPair(userID, req.ParticipantID)
	var conversation models.Conversation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var other models.User
		if err := tx.Select("id").First(&other, "id = ?", req.ParticipantID).Error; err != nil {
			return lookupErr(err, "user")
		}
		if projectID != nil {
			if err := checkConversationProject(tx, *projectID, userID, req.ParticipantID); err != nil {
				return err
			}
		}

		candidate := models.Conversation{
			ProjectID:    projectID,
			Participant1: first,
			Participant2: second,
			PairKey:      key,
		}
		candidate.LastMessageAt = tx.NowFunc()
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Create(&candidate).Error; err != nil {
			return writeErr(err, "conversation")
		}

		return tx.First(&conversation, "pair_key = ?", key).Error
	})
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// checkConversationProject requires the two users to be the company and
// the professional of projectID, in either order.
func checkConversationProject(tx *gorm.DB, projectID, userID, participantID string) error {
	var project models.Project
	err := tx.Preload("Company", func(db *gorm.DB) *gorm.DB { return db.Select("id", "user_id") }).
		Preload("Professional", func(db *gorm.DB) *gorm.DB { return db.Select("id", "user_id") }).
		First(&project, "id = ?", projectID).Error
	if err != nil {
		return lookupErr(err, "project")
	}
	if project.Company == nil || project.Professional == nil {
		return invalid("projectId", "must be a project between both participants")
	}

	companyUser, professionalUser := project.Company.UserID, project.Professional.UserID
	if (companyUser == userID && professionalUser == participantID) ||
		(companyUser == participantID && professionalUser == userID) {
		return nil
	}
	return invalid("projectId", "must be a project between both participants")
}

// ListConversations returns the user's conversations, most recent first.
func (s *MessagingService) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	db := s.db.WithContext(ctx)

	var conversations []models.Conversation
	err := db.Where("participant_1 = ? OR participant_2 = ?", userID, userID).
		Order("last_message_at DESC").Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return []ConversationSummary{}, nil
	}

	ids := make([]string, len(conversations))
	otherIDs := make([]string, len(conversations))
	for i := range conversations {
		ids[i] = conversations[i].ID
		otherIDs[i] = conversations[i].Other(userID)
	}

	var users []models.User
	if err := publicUserColumns(db).Where("id IN ?", otherIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	usersByID := make(map[string]*models.User, len(users))
	for i := range users {
		usersByID[users[i].ID] = &users[i]
	}

	var counts []struct {
		ConversationID string
		Unread         int64
	}
	err = db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", ids, userID, false).
		Group("conversation_id").Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	unread := make(map[string]int64, len(counts))
	for _, c := range counts {
		unread[c.ConversationID] = c.Unread
	}

	summaries := make([]ConversationSummary, len(conversations))
	for i, c := range conversations {
		summaries[i] = ConversationSummary{
			Conversation: c,
			OtherUser:    usersByID[c.Other(userID)],
			UnreadCount:  unread[c.ID],
		}
	}
	return summaries, nil
}

// GetConversation returns the conversation if userID takes part in it.
func (s *MessagingService) GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.WithContext(ctx).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, lookupErr(err, "conversation")
	}
	if !conversation.HasParticipant(userID) {
		return nil, fmt.Errorf("not a participant of this conversation: %w", ErrForbidden)
	}
	return &conversation, nil
}

// ListMessages returns the conversation's messages, oldest first.
func (s *MessagingService) ListMessages(ctx context.Context, conversationID, userID string) ([]models.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	messages := []models.Message{}
	err := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// CreateMessage appends a message and advances the conversation's
// lastMessageAt to it in one transaction.
func (s *MessagingService) CreateMessage(ctx context.Context, senderID string, req *MessageRequest) (*models.Message, error) {
	content := localized(req.Content, req.ContentAr)
	if content.IsZero() && len(req.FileURLs) == 0 {
		return nil, invalid("content", "is required")
	}

	var message models.Message
	var recipientID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conversation models.Conversation
		if err := tx.First(&conversation, "id = ?", req.ConversationID).Error; err != nil {
			return lookupErr(err, "conversation")
		}
		if !conversation.HasParticipant(senderID) {
			return fmt.Errorf("not a participant of this conversation: %w", ErrForbidden)
		}
		recipientID = conversation.Other(senderID)

		message = models.Message{
			ConversationID: conversation.ID,
			SenderID:       senderID,
			Content:        content,
			FileURLs:       models.Strings(req.FileURLs),
			IsRead:         false,
		}
		if err := tx.Create(&message).Error; err != nil {
			return writeErr(err, "message")
		}

		return tx.Model(&models.Conversation{}).
			Where("id = ? AND last_message_at < ?", conversation.ID, message.CreatedAt).
			UpdateColumn("last_message_at", message.CreatedAt).Error
	})
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, &NotifyInput{
		UserID:  recipientID,
		Type:    NotificationMessage,
		Title:   models.LocalizedText{En: "New message", Ar: "رسالة جديدة"},
		Message: preview(content),
		Link:    "/messages/" + message.ConversationID,
	})
	return &message, nil
}

func preview(text models.LocalizedText) models.LocalizedText {
	cut := func(s string) string {
		r := []rune(strings.TrimSpace(s))
		if len(r) > 140 {
			return string(r[:140]) + "…"
		}
		return string(r)
	}
	return models.LocalizedText{En: cut(text.En), Ar: cut(text.Ar)}
}

// MarkRead marks every message not sent by userID as read.
func (s *MessagingService) MarkRead(ctx context.Context, conversationID, userID string) (int64, error) {
	if _, err := s.GetConversation(ctx, conversationID, userID); err != nil {
		return 0, err
	}

	result := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, userID, false).
		UpdateColumn("is_read", true)
	return result.RowsAffected, result.Error
}
