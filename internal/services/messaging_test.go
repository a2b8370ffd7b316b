package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lndnexus/marketplace/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagingService_GetOrCreateConversation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	messaging := NewMessagingService(db, nil)
	alice := createUser(t, db, models.UserTypeCompany)
	bob := createUser(t, db, models.UserTypeProfessional)

	first, err := messaging.GetOrCreateConversation(ctx, alice.ID, &ConversationRequest{ParticipantID: bob.ID})
	require.NoError(t, err)
	again, err := messaging.GetOrCreateConversation(ctx, bob.ID, &ConversationRequest{ParticipantID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "the pair is unordered")

	p1, p2, _ := models.CanonicalPair(alice.ID, bob.ID)
	assert.Equal(t, p1, first.Participant1)
	assert.Equal(t, p2, first.Participant2)

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestMessagingService_GetOrCreateConversation_Project(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	messaging := NewMessagingService(db, nil)
	project := createProject(t, db, models.ProjectActive)
	companyUser, professionalUser := project.Company.UserID, project.Professional.UserID

	alice := createUser(t, db, models.UserTypeCompany)
	bob := createUser(t, db, models.UserTypeProfessional)
	_, err := messaging.GetOrCreateConversation(ctx, alice.ID, &ConversationRequest{ParticipantID: bob.ID, ProjectID: &project.ID})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr, "outsiders cannot attach another pair's project")
	assert.Equal(t, "projectId", verr.Issues[0].Field)

	_, err = messaging.GetOrCreateConversation(ctx, companyUser, &ConversationRequest{ParticipantID: alice.ID, ProjectID: &project.ID})
	assert.ErrorAs(t, err, &verr, "one participant is not enough")

	missing := "missing-project"
	_, err = messaging.GetOrCreateConversation(ctx, companyUser, &ConversationRequest{ParticipantID: professionalUser, ProjectID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	assert.Zero(t, count)

	conversation, err := messaging.GetOrCreateConversation(ctx, professionalUser, &ConversationRequest{ParticipantID: companyUser, ProjectID: &project.ID})
	require.NoError(t, err)
	require.NotNil(t, conversation.ProjectID)
	assert.Equal(t, project.ID, *conversation.ProjectID)

	blank := " "
	plain, err := messaging.GetOrCreateConversation(ctx, alice.ID, &ConversationRequest{ParticipantID: bob.ID, ProjectID: &blank})
	require.NoError(t, err)
	assert.Nil(t, plain.ProjectID)
}

func TestMessagingService_GetOrCreateConversation_Concurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	messaging := NewMessagingService(db, nil)
	alice := createUser(t, db, models.UserTypeCompany)
	bob := createUser(t, db, models.UserTypeProfessional)

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := alice.ID, bob.ID
			if i%2 == 1 {
				from, to = to, from
			}
			c, err := messaging.GetOrCreateConversation(ctx, from, &ConversationRequest{ParticipantID: to})
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestMessagingService_GetOrCreateConversation_Rejects(t *testing.T) {
	db := newTestDB(t)
	messaging := NewMessagingService(db, nil)
	alice := createUser(t, db, models.UserTypeCompany)

	_, err := messaging.GetOrCreateConversation(context.Background(), alice.ID, &ConversationRequest{ParticipantID: alice.ID})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = messaging.GetOrCreateConversation(context.Background(), alice.ID, &ConversationRequest{ParticipantID: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessagingService_Messages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	messaging := NewMessagingService(db, notifier)
	alice := createUser(t, db, models.UserTypeCompany)
	bob := createUser(t, db, models.UserTypeProfessional)
	eve := createUser(t, db, models.UserTypeProfessional)

	conversation, err := messaging.GetOrCreateConversation(ctx, alice.ID, &ConversationRequest{ParticipantID: bob.ID})
	require.NoError(t, err)

	_, err = messaging.CreateMessage(ctx, alice.ID, &MessageRequest{ConversationID: conversation.ID})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr, "empty messages are rejected")

	_, err = messaging.CreateMessage(ctx, eve.ID, &MessageRequest{ConversationID: conversation.ID, Content: models.LocalizedText{En: "hi"}})
	assert.ErrorIs(t, err, ErrForbidden)

	var sent []*models.Message
	for _, text := range []string{"Hello", "Are you free in May?"} {
		m, err := messaging.CreateMessage(ctx, alice.ID, &MessageRequest{ConversationID: conversation.ID, Content: models.LocalizedText{En: text}})
		require.NoError(t, err)
		sent = append(sent, m)
	}
	reply, err := messaging.CreateMessage(ctx, bob.ID, &MessageRequest{
		ConversationID: conversation.ID,
		ContentAr:      strPtr("نعم"),
	})
	require.NoError(t, err)
	assert.Equal(t, "نعم", reply.Content.Ar)

	assert.Equal(t, alice.ID, notifier.last().UserID)
	assert.Equal(t, NotificationMessage, notifier.last().Type)

	var stored models.Conversation
	require.NoError(t, db.First(&stored, "id = ?", conversation.ID).Error)
	assert.WithinDuration(t, reply.CreatedAt, stored.LastMessageAt, time.Millisecond)
	assert.False(t, stored.LastMessageAt.Before(sent[1].CreatedAt))

	listed, err := messaging.ListMessages(ctx, conversation.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "Hello", listed[0].Content.En)

	_, err = messaging.ListMessages(ctx, conversation.ID, eve.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	summaries, err := messaging.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].UnreadCount)
	require.NotNil(t, summaries[0].OtherUser)
	assert.Equal(t, alice.ID, summaries[0].OtherUser.ID)

	updated, err := messaging.MarkRead(ctx, conversation.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated, "only the other side's messages are marked")

	updated, err = messaging.MarkRead(ctx, conversation.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, updated)

	_, err = messaging.MarkRead(ctx, conversation.ID, eve.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPreview(t *testing.T) {
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'ع'
	}
	got := preview(models.LocalizedText{En: " short ", Ar: string(long)})
	assert.Equal(t, "short", got.En)
	assert.Equal(t, 141, len([]rune(got.Ar)))
}
