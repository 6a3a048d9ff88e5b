package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionTracker_SubscribedOnlyAfterAllAcks(t *testing.T) {
	tr := NewSubscriptionTracker(3)
	assert.False(t, tr.Subscribed())

	tr.Ack()
	tr.Ack()
	assert.False(t, tr.Subscribed())

	tr.Ack()
	assert.True(t, tr.Subscribed())
}

func TestSubscriptionTracker_ZeroRequiredIsImmediatelySubscribed(t *testing.T) {
	tr := NewSubscriptionTracker(0)
	assert.True(t, tr.Subscribed())
}
