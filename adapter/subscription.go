package adapter

import "sync/atomic"

// SubscriptionTracker counts subscription acknowledgements independently
// of data processing: per spec §4.4 step 3, the adapter transitions to
// "subscribed" only after all acks are received, but frames may arrive
// and are processed normally before that point -- the two are tracked
// independently, never gating each other.
type SubscriptionTracker struct {
	required int32
	acked    int32
}

// NewSubscriptionTracker builds a tracker expecting `required`
// acknowledgements (commonly 3, per spec §4.4).
func NewSubscriptionTracker(required int) *SubscriptionTracker {
	return &SubscriptionTracker{required: int32(required)}
}

// Ack records one received acknowledgement.
func (s *SubscriptionTracker) Ack() {
	atomic.AddInt32(&s.acked, 1)
}

// Subscribed reports whether every expected acknowledgement has arrived.
func (s *SubscriptionTracker) Subscribed() bool {
	return atomic.LoadInt32(&s.acked) >= atomic.LoadInt32(&s.required)
}
