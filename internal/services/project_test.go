package services

import (
	"context"
	"testing"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_Create(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	projects := NewProjectService(db, notifier)
	catalog := NewCatalogService(db, nil)
	owner, company := createCompany(t, db)
	proUser, profile := createProfessional(t, db)

	service, err := catalog.Create(ctx, profile.ID, &CreateServiceRequest{
		Title:       models.LocalizedText{En: "Negotiation masterclass"},
		Description: models.LocalizedText{En: "Two days of practice"},
		Category:    "sales",
	})
	require.NoError(t, err)
	job := newJob(t, NewJobService(db, nil, nil), company.ID, owner.ID, true)

	project, err := projects.Create(ctx, company.ID, &CreateProjectRequest{
		JobID:          &job.ID,
		ServiceID:      &service.ID,
		ProfessionalID: profile.ID,
		Title:          " Negotiation cohort ",
		TotalAmount:    "2500",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectPending, project.Status)
	assert.Equal(t, models.Money("2500.00"), project.TotalAmount)
	assert.Equal(t, "Negotiation cohort", project.Title)
	assert.Equal(t, "USD", project.Currency)
	assert.Equal(t, proUser.ID, notifier.last().UserID)
	assert.Equal(t, NotificationProjectCreated, notifier.last().Type)

	converted, err := catalog.Get(ctx, service.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, converted.ConversionCount)
}

func TestProjectService_Create_Rejects(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	projects := NewProjectService(db, nil)
	_, company := createCompany(t, db)
	rivalOwner, rival := createCompany(t, db)
	_, profile := createProfessional(t, db)
	_, otherProfile := createProfessional(t, db)

	rivalJob := newJob(t, NewJobService(db, nil, nil), rival.ID, rivalOwner.ID, true)
	foreignService, err := NewCatalogService(db, nil).Create(ctx, otherProfile.ID, &CreateServiceRequest{
		Title:       models.LocalizedText{En: "Someone else's"},
		Description: models.LocalizedText{En: "Not yours"},
		Category:    "hr",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     CreateProjectRequest
		field   string
		wantErr error
	}{
		{"bad amount", CreateProjectRequest{ProfessionalID: profile.ID, Title: "x", TotalAmount: "-5"}, "totalAmount", nil},
		{"unknown professional", CreateProjectRequest{ProfessionalID: "missing", Title: "x", TotalAmount: "10"}, "", ErrNotFound},
		{"job of another company", CreateProjectRequest{JobID: &rivalJob.ID, ProfessionalID: profile.ID, Title: "x", TotalAmount: "10"}, "jobId", nil},
		{"service of another professional", CreateProjectRequest{ServiceID: &foreignService.ID, ProfessionalID: profile.ID, Title: "x", TotalAmount: "10"}, "serviceId", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := projects.Create(ctx, company.ID, &tt.req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Issues[0].Field)
		})
	}

	var count int64
	db.Model(&models.Project{}).Count(&count)
	assert.Zero(t, count, "rejected projects leave nothing behind")
}

func TestProjectService_Access(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	projects := NewProjectService(db, nil)
	project := createProject(t, db, models.ProjectActive)
	stranger := createUser(t, db, models.UserTypeCompany)
	admin := createUser(t, db, models.UserTypeAdmin)

	tests := []struct {
		name string
		user *models.User
		role ProjectRole
		err  error
	}{
		{"company", &models.User{Base: models.Base{ID: project.Company.UserID}}, RoleCompany, nil},
		{"professional", &models.User{Base: models.Base{ID: project.Professional.UserID}}, RoleProfessional, nil},
		{"admin", admin, RoleAdmin, nil},
		{"stranger", stranger, "", ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, role, err := projects.Access(ctx, project.ID, tt.user)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, role)
		})
	}
}

func TestProjectService_StatusTransitions(t *testing.T) {
	tests := []struct {
		from models.ProjectStatus
		to   models.ProjectStatus
		ok   bool
	}{
		{models.ProjectPending, models.ProjectActive, true},
		{models.ProjectPending, models.ProjectCompleted, false},
		{models.ProjectActive, models.ProjectInReview, true},
		{models.ProjectInReview, models.ProjectActive, true},
		{models.ProjectInReview, models.ProjectCompleted, true},
		{models.ProjectCompleted, models.ProjectActive, false},
		{models.ProjectCancelled, models.ProjectPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			db := newTestDB(t)
			projects := NewProjectService(db, nil)
			project := createProject(t, db, tt.from)

			status := tt.to
			updated, err := projects.Update(context.Background(), project.ID, project.Company.UserID, &UpdateProjectRequest{Status: &status})
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
		})
	}
}

func TestProjectService_CompleteUpdatesAggregates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	projects := NewProjectService(db, notifier)
	project := createProject(t, db, models.ProjectInReview)

	completed := models.ProjectCompleted
	updated, err := projects.Update(ctx, project.ID, project.Company.UserID, &UpdateProjectRequest{Status: &completed})
	require.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)

	var profile models.ProfessionalProfile
	require.NoError(t, db.First(&profile, "id = ?", project.ProfessionalID).Error)
	assert.Equal(t, 1, profile.TotalProjects)

	last := notifier.last()
	assert.Equal(t, project.Professional.UserID, last.UserID, "the other party hears about it")
	assert.Equal(t, NotificationProjectStatus, last.Type)
}

func TestProjectService_Milestones(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	projects := NewProjectService(db, notifier)
	project := createProject(t, db, models.ProjectActive)

	first, err := projects.AddMilestone(ctx, project.ID, &MilestoneRequest{Title: "Discovery", Amount: "250"})
	require.NoError(t, err)
	second, err := projects.AddMilestone(ctx, project.ID, &MilestoneRequest{Title: "Delivery", Amount: "750.5"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, models.Money("750.50"), second.Amount)

	_, err = projects.AddMilestone(ctx, project.ID, &MilestoneRequest{Title: "Bad", Amount: "abc"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	listed, err := projects.ListMilestones(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "Discovery", listed[0].Title)

	started, err := projects.UpdateMilestoneStatus(ctx, first.ID, project.Professional.UserID, models.MilestoneInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.MilestoneInProgress, started.Status)
	assert.Empty(t, notifier.types(), "only completion notifies")

	done, err := projects.UpdateMilestoneStatus(ctx, first.ID, project.Professional.UserID, models.MilestoneCompleted)
	require.NoError(t, err)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, project.Company.UserID, notifier.last().UserID)

	_, err = projects.UpdateMilestoneStatus(ctx, first.ID, project.Professional.UserID, models.MilestonePending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestProjectService_AddMilestone_TerminalProject(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectService(db, nil)

	for _, status := range []models.ProjectStatus{models.ProjectCompleted, models.ProjectCancelled} {
		project := createProject(t, db, status)
		_, err := projects.AddMilestone(context.Background(), project.ID, &MilestoneRequest{Title: "Late", Amount: "10"})
		assert.ErrorIs(t, err, ErrConflict, "status %s", status)
	}
}
