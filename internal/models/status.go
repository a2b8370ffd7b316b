package models

import "slices"

type UserType string

const (
	UserTypeProfessional UserType = "professional"
	UserTypeCompany      UserType = "company"
	UserTypeAdmin        UserType = "admin"
)

func (t UserType) Valid() bool {
	return t == UserTypeProfessional || t == UserTypeCompany || t == UserTypeAdmin
}

type TeamRole string

const (
	TeamRoleAdmin     TeamRole = "admin"
	TeamRoleRecruiter TeamRole = "recruiter"
	TeamRoleViewer    TeamRole = "viewer"
)

type ServiceFormat string

const (
	FormatInPerson ServiceFormat = "in-person"
	FormatVirtual  ServiceFormat = "virtual"
	FormatHybrid   ServiceFormat = "hybrid"
)

type PricingModel string

const (
	PricingHourly PricingModel = "hourly"
	PricingFixed  PricingModel = "fixed"
	PricingCustom PricingModel = "custom"
)

type JobType string

const (
	JobTypeTraining     JobType = "training"
	JobTypeCoaching     JobType = "coaching"
	JobTypeElearning    JobType = "elearning"
	JobTypeFacilitation JobType = "facilitation"
	JobTypeConsulting   JobType = "consulting"
)

type DeliveryFormat string

const (
	DeliveryOnsite DeliveryFormat = "onsite"
	DeliveryRemote DeliveryFormat = "remote"
	DeliveryHybrid DeliveryFormat = "hybrid"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// transitions is a state machine: each state maps to the states it may move to.
type transitions[S ~string] map[S][]S

func (t transitions[S]) allows(from, to S) bool {
	return slices.Contains(t[from], to)
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

var invitationTransitions = transitions[InvitationStatus]{
	InvitationPending: {InvitationAccepted, InvitationDeclined},
}

func (s InvitationStatus) CanTransitionTo(next InvitationStatus) bool {
	return invitationTransitions.allows(s, next)
}

type ProjectStatus string

const (
	ProjectPending   ProjectStatus = "pending"
	ProjectActive    ProjectStatus = "active"
	ProjectInReview  ProjectStatus = "in_review"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

var projectTransitions = transitions[ProjectStatus]{
	ProjectPending:  {ProjectActive, ProjectCancelled},
	ProjectActive:   {ProjectInReview, ProjectCancelled},
	ProjectInReview: {ProjectActive, ProjectCompleted, ProjectCancelled},
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPending, ProjectActive, ProjectInReview, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	return projectTransitions.allows(s, next)
}

// Terminal reports whether no further transition is possible.
func (s ProjectStatus) Terminal() bool {
	return len(projectTransitions[s]) == 0
}

type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

var milestoneTransitions = transitions[MilestoneStatus]{
	MilestonePending:    {MilestoneInProgress, MilestoneCompleted},
	MilestoneInProgress: {MilestoneCompleted},
}

func (s MilestoneStatus) CanTransitionTo(next MilestoneStatus) bool {
	return milestoneTransitions.allows(s, next)
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentHeld     PaymentStatus = "held"
	PaymentReleased PaymentStatus = "released"
	PaymentRefunded PaymentStatus = "refunded"
)

// A pending payment may be voided straight to refunded; released money is
// out of escrow and cannot move again.
var paymentTransitions = transitions[PaymentStatus]{
	PaymentPending: {PaymentHeld, PaymentRefunded},
	PaymentHeld:    {PaymentReleased, PaymentRefunded},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return paymentTransitions.allows(s, next)
}
