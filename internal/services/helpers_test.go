package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory sqlite database with every table.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := models.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, db *gorm.DB, userType models.UserType) *models.User {
	t.Helper()
	email := uuid.NewString()[:8] + "@example.com"
	user := &models.User{Email: &email, FirstName: "Test", UserType: userType}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProfessional(t *testing.T, db *gorm.DB) (*models.User, *models.ProfessionalProfile) {
	t.Helper()
	user := createUser(t, db, models.UserTypeProfessional)
	profile := &models.ProfessionalProfile{
		UserID:             user.ID,
		Bio:                models.LocalizedText{En: "Facilitator"},
		Currency:           "USD",
		VerificationStatus: models.VerificationPending,
		Languages:          models.Strings(nil),
	}
	require.NoError(t, db.Create(profile).Error)
	return user, profile
}

func createCompany(t *testing.T, db *gorm.DB) (*models.User, *models.CompanyProfile) {
	t.Helper()
	user := createUser(t, db, models.UserTypeCompany)
	company := &models.CompanyProfile{UserID: user.ID, CompanyName: models.LocalizedText{En: "Acme"}}
	require.NoError(t, db.Create(company).Error)
	return user, company
}

// createProject opens a project in the given status between a fresh
// company and a fresh professional.
func createProject(t *testing.T, db *gorm.DB, status models.ProjectStatus) *models.Project {
	t.Helper()
	_, company := createCompany(t, db)
	_, professional := createProfessional(t, db)
	return createProjectBetween(t, db, company, professional, status)
}

func createProjectBetween(t *testing.T, db *gorm.DB, company *models.CompanyProfile, professional *models.ProfessionalProfile, status models.ProjectStatus) *models.Project {
	t.Helper()
	project := &models.Project{
		CompanyID:      company.ID,
		ProfessionalID: professional.ID,
		Title:          "Leadership workshop",
		Status:         status,
		TotalAmount:    "1000.00",
		Currency:       "USD",
	}
	require.NoError(t, db.Create(project).Error)

	var loaded models.Project
	require.NoError(t, db.Preload("Company").Preload("Professional").First(&loaded, "id = ?", project.ID).Error)
	return &loaded
}

// recordingNotifier keeps every notification instead of storing it.
type recordingNotifier struct {
	mu    sync.Mutex
	items []NotifyInput
}

func (n *recordingNotifier) Notify(_ context.Context, in *NotifyInput) (*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, *in)
	return &models.Notification{UserID: in.UserID, Type: in.Type}, nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.items))
	for i, item := range n.items {
		out[i] = item.Type
	}
	return out
}

func (n *recordingNotifier) last() NotifyInput {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.items[len(n.items)-1]
}

type enqueuedTask struct {
	Type    string
	Payload interface{}
}

// recordingQueue captures tasks without running them.
type recordingQueue struct {
	mu    sync.Mutex
	tasks []enqueuedTask
}

func (q *recordingQueue) Enqueue(taskType string, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, enqueuedTask{Type: taskType, Payload: payload})
	return nil
}

func (q *recordingQueue) IsAsync() bool { return true }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) indexTasks() []IndexTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []IndexTask
	for _, task := range q.tasks {
		if it, ok := task.Payload.(*IndexTask); ok {
			out = append(out, *it)
		}
	}
	return out
}

// fakeEmbedder returns fixed vectors keyed by the exact input text and a
// default vector for anything else.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return e.fallback, nil
}

// fakeTranslator tags text with the target language.
type fakeTranslator struct {
	err   error
	calls int
}

func (tr *fakeTranslator) Translate(_ context.Context, text string, from, to models.Language) (string, error) {
	tr.calls++
	if tr.err != nil {
		return "", tr.err
	}
	return fmt.Sprintf("[%s] %s", to, text), nil
}
