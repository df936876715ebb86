package service

import (
	"context"
	"strings"
	"testing"

	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/message"
	"github.com/19DennisBrown/Tiberbu-webapp-version-one/internal/domain/profile"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage_References(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bob := h.physician(t, "bob")
	alice := h.patient(t, "alice", bob.ID)

	tests := []struct {
		name        string
		patientID   uuid.UUID
		physicianID uuid.UUID
		content     string
		wantErr     error
	}{
		{"valid", alice.ID, bob.ID, "hello", nil},
		{"patient is a physician", bob.ID, bob.ID, "hello", profile.ErrPatientNotFound},
		{"physician is a patient", alice.ID, alice.ID, "hello", profile.ErrPhysicianNotFound},
		{"unknown patient", uuid.New(), bob.ID, "hello", profile.ErrPatientNotFound},
		{"empty content", alice.ID, bob.ID, "   ", message.ErrContentRequired},
		{"content too long", alice.ID, bob.ID, strings.Repeat("a", message.MaxContentLength+1), message.ErrContentTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := h.messages.CreateMessage(ctx, alice, CreateMessageCommand{
				PatientID:   tc.patientID,
				PhysicianID: tc.physicianID,
				Content:     tc.content,
			})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, alice.ID, m.AuthorID)
			assert.Equal(t, tc.content, m.Content)
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.MessagesSent))
}

// Alice writes to Bob, Bob replies, and the conversation reads back in order.
func TestConversation_AliceAndBob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bob := h.physician(t, "bob")
	alice := h.patient(t, "alice", bob.ID)

	empty, err := h.messages.ListConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, turn := range []struct {
		from    string
		content string
	}{
		{"alice", "I still have a headache"},
		{"bob", "Take the prescribed dose"},
		{"alice", "Thanks"},
	} {
		caller := alice
		if turn.from == "bob" {
			caller = bob
		}
		_, err := h.messages.CreateMessage(ctx, caller, CreateMessageCommand{
			PatientID: alice.ID, PhysicianID: bob.ID, Content: turn.content,
		})
		require.NoError(t, err)
	}

	convo, err := h.messages.ListConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, convo, 3)
	assert.Equal(t, "I still have a headache", convo[0].Content)
	assert.Equal(t, bob.ID, convo[1].AuthorID)
	for i := 1; i < len(convo); i++ {
		assert.False(t, convo[i].CreatedAt.Before(convo[i-1].CreatedAt), "created_at must not decrease")
	}

	recent, err := h.messages.ListRecent(ctx, bob, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].ModifiedAt.After(recent[i-1].ModifiedAt), "modified_at must not increase")
	}
	assert.Equal(t, "Thanks", recent[0].Content)
}

func TestListRecent_Limit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bob := h.physician(t, "bob")
	alice := h.patient(t, "alice", bob.ID)
	outsider := h.patient(t, "erin", bob.ID)

	for range 5 {
		_, err := h.messages.CreateMessage(ctx, alice, CreateMessageCommand{
			PatientID: alice.ID, PhysicianID: bob.ID, Content: "ping",
		})
		require.NoError(t, err)
	}

	recent, err := h.messages.ListRecent(ctx, alice, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	none, err := h.messages.ListRecent(ctx, outsider, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
