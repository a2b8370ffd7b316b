package models

import "time"

type ProfessionalProfile struct {
	Base
	UserID             string             `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	User               *User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Bio                LocalizedText      `gorm:"embedded;embeddedPrefix:bio_" json:"bio"`
	Location           string             `gorm:"size:255" json:"location"`
	Timezone           string             `gorm:"size:64" json:"timezone"`
	Languages          StringList         `json:"languages"`
	IntroVideoURL      string             `gorm:"size:500" json:"introVideoUrl"`
	LinkedinURL        string             `gorm:"size:500" json:"linkedinUrl"`
	PortfolioURL       string             `gorm:"size:500" json:"portfolioUrl"`
	HourlyRate         *Money             `json:"hourlyRate"`
	Currency           string             `gorm:"size:3;default:USD" json:"currency"`
	VerificationStatus VerificationStatus `gorm:"size:20;default:pending" json:"verificationStatus"`
	IsTopRated         bool               `json:"isTopRated"`
	IsTrending         bool               `json:"isTrending"`
	TotalProjects      int                `gorm:"not null;default:0" json:"totalProjects"`
	AverageRating      float64            `gorm:"type:decimal(3,2);not null;default:0" json:"averageRating"`
	ResponseTimeHours  int                `gorm:"default:24" json:"responseTime"`
	Embedding          Vector             `json:"-"`
	UpdatedAt          time.Time          `json:"updatedAt"`

	Certifications []Certification `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"certifications,omitempty"`
	Portfolio      []PortfolioItem `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"portfolio,omitempty"`
	Services       []Service       `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"services,omitempty"`
}

func (ProfessionalProfile) TableName() string { return "professional_profiles" }

func (p *ProfessionalProfile) LocalizedFields() []*LocalizedText {
	return []*LocalizedText{&p.Bio}
}

// EmbeddingText is the text indexed for semantic matching.
func (p *ProfessionalProfile) EmbeddingText() string {
	text := p.Bio.Get(LangEN)
	if p.Location != "" {
		text += "\nLocation: " + p.Location
	}
	for _, lang := range p.Languages {
		text += "\nLanguage: " + lang
	}
	return text
}

type Certification struct {
	Base
	ProfileID     string        `gorm:"index;size:36;not null" json:"profileId"`
	Name          LocalizedText `gorm:"embedded;embeddedPrefix:name_" json:"name"`
	Issuer        string        `gorm:"size:255" json:"issuer"`
	IssueDate     *time.Time    `json:"issueDate"`
	ExpiryDate    *time.Time    `json:"expiryDate"`
	CredentialURL string        `gorm:"size:500" json:"credentialUrl"`
}

func (Certification) TableName() string { return "certifications" }

func (c *Certification) LocalizedFields() []*LocalizedText {
	return []*LocalizedText{&c.Name}
}

type PortfolioItem struct {
	Base
	ProfileID    string        `gorm:"index;size:36;not null" json:"profileId"`
	Title        LocalizedText `gorm:"embedded;embeddedPrefix:title_" json:"title"`
	Description  LocalizedText `gorm:"embedded;embeddedPrefix:description_" json:"description"`
	FileURL      string        `gorm:"size:500;not null" json:"fileUrl"`
	FileType     string        `gorm:"size:100" json:"fileType"`
	ThumbnailURL string        `gorm:"size:500" json:"thumbnailUrl"`
}

func (PortfolioItem) TableName() string { return "portfolio_items" }

func (p *PortfolioItem) LocalizedFields() []*LocalizedText {
	return []*LocalizedText{&p.Title, &p.Description}
}
