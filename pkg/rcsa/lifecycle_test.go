package rcsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatusAllowedTransitions(t *testing.T) {
	cases := []struct {
		from   MasterStatus
		action MasterAction
		want   MasterStatus
	}{
		{StatusDraft, ActionSubmit, StatusPendingApproval},
		{StatusRejected, ActionSubmit, StatusPendingApproval},
		{StatusPendingApproval, ActionApprove, StatusApproved},
		{StatusPendingApproval, ActionReject, StatusRejected},
		{StatusApproved, ActionPublish, StatusPublished},
		{StatusPendingApproval, ActionArchive, StatusArchived},
		{StatusApproved, ActionArchive, StatusArchived},
		{StatusRejected, ActionArchive, StatusArchived},
		{StatusPublished, ActionArchive, StatusArchived},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.from, tc.action)
		require.NoError(t, err, "%s + %s", tc.from, tc.action)
		assert.Equal(t, tc.want, got)
	}
}

func TestNextStatusRejectsInvalidTransitions(t *testing.T) {
	cases := []struct {
		from   MasterStatus
		action MasterAction
	}{
		{StatusDraft, ActionPublish},
		{StatusDraft, ActionApprove},
		{StatusDraft, ActionArchive},
		{StatusPublished, ActionSubmit},
		{StatusPublished, ActionPublish},
		{StatusArchived, ActionSubmit},
		{StatusArchived, ActionArchive},
		{StatusApproved, ActionSubmit},
		{StatusRejected, ActionPublish},
	}
	for _, tc := range cases {
		_, err := NextStatus(tc.from, tc.action)
		require.Error(t, err, "%s + %s", tc.from, tc.action)

		e := AsError(err)
		assert.Equal(t, KindInvalidTransition, e.Kind)
		assert.Equal(t, tc.from, e.CurrentState)
		assert.Equal(t, string(tc.action), e.Action)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, ActionSubmit))
	assert.False(t, CanTransition(StatusDraft, ActionPublish))
	assert.False(t, CanTransition(StatusArchived, ActionSubmit))
}
