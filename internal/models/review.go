package models

// Review is left by one participant of a completed project about the other.
// Moderated reviews are hidden from listings and from rating aggregates.
type Review struct {
	Base
	ProjectID       string `gorm:"uniqueIndex:idx_review_project_reviewer;size:36;not null" json:"projectId"`
	ReviewerID      string `gorm:"uniqueIndex:idx_review_project_reviewer;size:36;not null" json:"reviewerId"`
	RevieweeID      string `gorm:"index;size:36;not null" json:"revieweeId"`
	Rating          int    `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	PublicFeedback  string `gorm:"type:text" json:"publicFeedback"`
	PrivateFeedback string `gorm:"type:text" json:"privateFeedback,omitempty"`
	IsVerified      bool   `json:"isVerified"`
	IsModerated     bool   `gorm:"index" json:"isModerated"`
	HelpfulCount    int    `gorm:"not null;default:0" json:"helpfulCount"`
}

func (Review) TableName() string { return "reviews" }
