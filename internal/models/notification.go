package models

// Notification is a per-user message with an optional deep link.
type Notification struct {
	Base
	UserID  string        `gorm:"index;size:36;not null" json:"userId"`
	Type    string        `gorm:"size:50;not null" json:"type"`
	Title   LocalizedText `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Message LocalizedText `gorm:"embedded;embeddedPrefix:message_" json:"message"`
	Link    string        `gorm:"size:500" json:"link"`
	IsRead  bool          `gorm:"not null;default:false;index" json:"isRead"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) LocalizedFields() []*LocalizedText {
	return []*LocalizedText{&n.Title, &n.Message}
}
