package orderbook

import "time"

// Update is a single delta frame to apply to a Book, parameterized so
// both §4.2 initialization modes can share one application path.
//
// FirstUpdateID/LastUpdateID correspond to the wire fields venues name
// "U"/"u" (Binance) or an equivalent monotonic sequence; venues that do
// not provide a first-update-id (mode B venues applying zero-means-delete
// merges) leave FirstUpdateID at zero and rely on LastUpdateID alone.
type Update struct {
	Bids          Levels
	Asks          Levels
	FirstUpdateID int64
	LastUpdateID  int64
	Timestamp     time.Time
	// AllowEmpty permits an Update with no Bids and no Asks; every venue
	// delta path sets it, so a delta frame with no level changes still
	// advances LastUpdateID. Snapshots go through LoadSnapshot instead.
	AllowEmpty bool
}

func (u *Update) validate() error {
	if len(u.Bids) == 0 && len(u.Asks) == 0 && !u.AllowEmpty {
		return ErrEmptyUpdate
	}
	return nil
}
