package models

import (
	"strings"
	"time"
)

// Service is a professional's sellable offering.
type Service struct {
	Base
	ProfileID        string               `gorm:"index;size:36;not null" json:"profileId"`
	Profile          *ProfessionalProfile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
	Title            LocalizedText        `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Description      LocalizedText        `gorm:"embedded;embeddedPrefix:description_" json:"description"`
	Category         string               `gorm:"size:100;not null;index" json:"category"`
	DurationHours    *int                 `json:"duration"`
	Format           ServiceFormat        `gorm:"size:20;not null;default:virtual" json:"format"`
	PricingModel     PricingModel         `gorm:"size:20;not null;default:fixed" json:"pricingModel"`
	Price            *Money               `json:"price"`
	Currency         string               `gorm:"size:3;default:USD" json:"currency"`
	DeliveryTimeline string               `gorm:"size:255" json:"deliveryTimeline"`
	Deliverables     StringList           `json:"deliverables"`
	Outcomes         StringList           `json:"outcomes"`
	MediaURLs        StringList           `json:"mediaUrls"`
	IsPublic         bool                 `gorm:"index" json:"isPublic"`
	ViewCount        int                  `gorm:"not null;default:0" json:"viewCount"`
	ConversionCount  int                  `gorm:"not null;default:0" json:"conversionCount"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func (Service) TableName() string { return "services" }

func (s *Service) LocalizedFields() []*LocalizedText {
	return []*LocalizedText{&s.Title, &s.Description}
}

// Job is a company's posted work request.
type Job struct {
	Base
	CompanyID            string          `gorm:"index;size:36;not null" json:"companyId"`
	Company              *CompanyProfile `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	PostedBy             string          `gorm:"size:36;not null" json:"postedBy"`
	Title                LocalizedText   `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Description          LocalizedText   `gorm:"embedded;embeddedPrefix:description_" json:"description"`
	JobType              JobType         `gorm:"size:20;not null;index" json:"jobType"`
	SkillsRequired       StringList      `json:"skillsRequired"`
	Duration             string          `gorm:"size:100" json:"duration"`
	Budget               *Money          `json:"budget"`
	Currency             string          `gorm:"size:3;default:USD" json:"currency"`
	DeliveryFormat       DeliveryFormat  `gorm:"size:20;not null;default:remote" json:"deliveryFormat"`
	Location             string          `gorm:"size:255" json:"location"`
	StartDate            *time.Time      `json:"startDate"`
	Deadline             *time.Time      `json:"deadline"`
	LanguageRequirements StringList      `json:"languageRequirements"`
	IsPublic             bool            `gorm:"index" json:"isPublic"`
	IsFeatured           bool            `json:"isFeatured"`
	IsUrgent             bool            `json:"isUrgent"`
	ViewCount            int             `gorm:"not null;default:0" json:"viewCount"`
	ApplicationCount     int             `gorm:"not null;default:0" json:"applicationCount"`
	Embedding            Vector          `json:"-"`
	UpdatedAt            time.Time       `json:"updatedAt"`

	Invitations []JobInvitation `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"invitations,omitempty"`
}

func (Job) TableName() string { return "jobs" }

func (j *Job) LocalizedFields() []*LocalizedText {
	return []*LocalizedText{&j.Title, &j.Description}
}

// EmbeddingText is the text indexed for semantic matching.
func (j *Job) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(j.Title.Get(LangEN))
	b.WriteString("\n")
	b.WriteString(j.Description.Get(LangEN))
	if len(j.SkillsRequired) > 0 {
		b.WriteString("\nSkills: ")
		b.WriteString(strings.Join(j.SkillsRequired, ", "))
	}
	b.WriteString("\nType: ")
	b.WriteString(string(j.JobType))
	return b.String()
}

// JobInvitation invites a professional to apply for a job.
type JobInvitation struct {
	Base
	JobID       string               `gorm:"uniqueIndex:idx_invitation_job_profile;size:36;not null" json:"jobId"`
	ProfileID   string               `gorm:"uniqueIndex:idx_invitation_job_profile;index;size:36;not null" json:"profileId"`
	Job         *Job                 `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Profile     *ProfessionalProfile `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"-"`
	Message     string               `gorm:"type:text" json:"message"`
	Status      InvitationStatus     `gorm:"size:20;not null;default:pending" json:"status"`
	RespondedAt *time.Time           `json:"respondedAt"`
}

func (JobInvitation) TableName() string { return "job_invitations" }
