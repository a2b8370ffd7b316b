package models

import "time"

// Conversation is an unordered pair of users. Participants are stored in
// canonical order and PairKey is unique, so a pair has at most one row.
type Conversation struct {
	Base
	ProjectID     *string   `gorm:"size:36" json:"projectId"`
	Participant1  string    `gorm:"column:participant_1;size:36;not null;index" json:"participant1"`
	Participant2  string    `gorm:"column:participant_2;size:36;not null;index" json:"participant2"`
	PairKey       string    `gorm:"uniqueIndex;size:80;not null" json:"-"`
	LastMessageAt time.Time `gorm:"index" json:"lastMessageAt"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Conversation) TableName() string { return "conversations" }

// HasParticipant reports whether userID is one side of the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.Participant1 == userID || c.Participant2 == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.Participant1 == userID {
		return c.Participant2
	}
	return c.Participant1
}

// CanonicalPair orders two user ids and derives their pair key.
func CanonicalPair(a, b string) (first, second, key string) {
	if b < a {
		a, b = b, a
	}
	return a, b, a + ":" + b
}

type Message struct {
	Base
	ConversationID string        `gorm:"index;size:36;not null" json:"conversationId"`
	SenderID       string        `gorm:"size:36;not null" json:"senderId"`
	Content        LocalizedText `gorm:"embedded;embeddedPrefix:content_" json:"content"`
	FileURLs       StringList    `json:"fileUrls"`
	IsRead         bool          `gorm:"not null;default:false" json:"isRead"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) LocalizedFields() []*LocalizedText {
	return []*LocalizedText{&m.Content}
}
