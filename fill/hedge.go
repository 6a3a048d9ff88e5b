package fill

import "time"

// HedgeEvent pairs an original Event with the subsequent hedge execution
// on the counter-venue. The decision to hedge belongs to the out-of-scope
// execution engine; this is a transport record only (spec §3).
type HedgeEvent struct {
	Original Event
	Hedge    Event
}

// LatencyMS returns (hedge_time - original_time) in milliseconds.
func (h HedgeEvent) LatencyMS() float64 {
	return float64(h.Hedge.Timestamp.Sub(h.Original.Timestamp)) / float64(time.Millisecond)
}
