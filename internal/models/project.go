package models

import "time"

// Project is an engagement between one company and one professional,
// created from a job or directly.
type Project struct {
	Base
	JobID          *string              `gorm:"index;size:36" json:"jobId"`
	Job            *Job                 `gorm:"foreignKey:JobID" json:"job,omitempty"`
	CompanyID      string               `gorm:"index;size:36;not null" json:"companyId"`
	Company        *CompanyProfile      `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	ProfessionalID string               `gorm:"index;size:36;not null" json:"professionalId"`
	Professional   *ProfessionalProfile `gorm:"foreignKey:ProfessionalID" json:"professional,omitempty"`
	Title          string               `gorm:"size:255;not null" json:"title"`
	Description    string               `gorm:"type:text" json:"description"`
	Status         ProjectStatus        `gorm:"size:20;not null;default:pending;index" json:"status"`
	TotalAmount    Money                `gorm:"not null" json:"totalAmount"`
	Currency       string               `gorm:"size:3;default:USD" json:"currency"`
	StartDate      *time.Time           `json:"startDate"`
	EndDate        *time.Time           `json:"endDate"`
	CompletedAt    *time.Time           `json:"completedAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`

	Milestones []Milestone `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"milestones,omitempty"`
}

func (Project) TableName() string { return "projects" }

// Milestone is a partial-payment checkpoint within a project.
type Milestone struct {
	Base
	ProjectID   string          `gorm:"index;size:36;not null" json:"projectId"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Amount      Money           `gorm:"not null" json:"amount"`
	DueDate     *time.Time      `json:"dueDate"`
	Status      MilestoneStatus `gorm:"size:20;not null;default:pending" json:"status"`
	CompletedAt *time.Time      `json:"completedAt"`
}

func (Milestone) TableName() string { return "project_milestones" }

// Payment records money moving through escrow for a project.
type Payment struct {
	Base
	ProjectID         string        `gorm:"index;size:36;not null" json:"projectId"`
	MilestoneID       *string       `gorm:"size:36" json:"milestoneId"`
	ProcessorIntentID string        `gorm:"size:255;index" json:"stripePaymentIntentId"`
	Amount            Money         `gorm:"not null" json:"amount"`
	Currency          string        `gorm:"size:3;default:USD" json:"currency"`
	Status            PaymentStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaidBy            string        `gorm:"size:36;not null" json:"paidBy"`
	PaidTo            string        `gorm:"size:36;not null" json:"paidTo"`
	PlatformFee       Money         `json:"platformFee"`
	InvoiceURL        string        `gorm:"size:500" json:"invoiceUrl"`
	ReleasedAt        *time.Time    `json:"releasedAt"`
	RefundedAt        *time.Time    `json:"refundedAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }
