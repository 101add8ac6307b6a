package custody

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusCreated, StatusInTransit},
		{StatusCreated, StatusLost},
		{StatusInTransit, StatusReceived},
		{StatusInTransit, StatusLost},
		{StatusReceived, StatusInTransit},
		{StatusReceived, StatusProcessing},
		{StatusReceived, StatusLost},
		{StatusProcessing, StatusInTransit},
		{StatusProcessing, StatusApproved},
		{StatusProcessing, StatusRejected},
		{StatusProcessing, StatusLost},
		{StatusApproved, StatusCompleted},
		{StatusApproved, StatusLost},
	}
	for _, move := range legal {
		assert.True(t, CanTransition(move.from, move.to), "%s -> %s", move.from, move.to)
	}

	illegal := []struct{ from, to Status }{
		{StatusCreated, StatusReceived},
		{StatusCreated, StatusApproved},
		{StatusCreated, StatusCompleted},
		{StatusInTransit, StatusInTransit},
		{StatusInTransit, StatusProcessing},
		{StatusReceived, StatusApproved},
		{StatusApproved, StatusProcessing},
		{StatusRejected, StatusProcessing},
		{StatusRejected, StatusLost},
		{StatusCompleted, StatusLost},
		{StatusLost, StatusCreated},
		{Status("misplaced"), StatusLost},
	}
	for _, move := range illegal {
		assert.False(t, CanTransition(move.from, move.to), "%s -> %s", move.from, move.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusLost.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, Status("misplaced").Terminal(), "unknown statuses are not terminal, just invalid")
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusInTransit.Valid())
	assert.False(t, Status("archived").Valid())
}

func TestTransitionErrorMessage(t *testing.T) {
	err := &TransitionError{From: StatusCompleted, To: StatusInTransit}
	assert.Equal(t, `illegal custody transition from "completed" to "in_transit"`, err.Error())
}
