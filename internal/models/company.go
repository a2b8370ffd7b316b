package models

import "time"

type CompanyProfile struct {
	Base
	UserID       string        `gorm:"uniqueIndex;size:36;not null" json:"userId"`
	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CompanyName  LocalizedText `gorm:"embedded;embeddedPrefix:company_name_" json:"companyName"`
	LogoURL      string        `gorm:"size:500" json:"logoUrl"`
	Industry     string        `gorm:"size:100" json:"industry"`
	CompanySize  string        `gorm:"size:50" json:"companySize"`
	Country      string        `gorm:"size:100" json:"country"`
	Website      string        `gorm:"size:500" json:"website"`
	BillingEmail string        `gorm:"size:255" json:"billingEmail"`
	VATNumber    string        `gorm:"size:64" json:"vatNumber"`
	UpdatedAt    time.Time     `json:"updatedAt"`

	TeamMembers []CompanyTeamMember `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"teamMembers,omitempty"`
	Jobs        []Job               `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"jobs,omitempty"`
}

func (CompanyProfile) TableName() string { return "company_profiles" }

func (c *CompanyProfile) LocalizedFields() []*LocalizedText {
	return []*LocalizedText{&c.CompanyName}
}

type CompanyTeamMember struct {
	Base
	CompanyID string   `gorm:"uniqueIndex:idx_team_company_user;size:36;not null" json:"companyId"`
	UserID    string   `gorm:"uniqueIndex:idx_team_company_user;size:36;not null" json:"userId"`
	Role      TeamRole `gorm:"size:20;not null;default:viewer" json:"role"`
	User      *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (CompanyTeamMember) TableName() string { return "company_team_members" }
