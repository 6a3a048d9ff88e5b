package orderbook

import "errors"

var (
	// ErrNotInitialized is returned when a delta arrives before any
	// snapshot has been loaded (spec §8 scenario 2: delta before
	// snapshot is discarded with a warning, no callback fired).
	ErrNotInitialized = errors.New("orderbook: not initialized, delta discarded")

	// ErrOutOfOrder is returned when an update's sequence number does
	// not advance the book's last_update_id; the caller should discard
	// the update as a no-op rather than propagate an error upward.
	ErrOutOfOrder = errors.New("orderbook: update is out of order")

	// ErrCrossedBook is returned when applying an update would leave
	// max(bid) >= min(ask). The book has already been invalidated by
	// the time this is returned; the caller must re-snapshot.
	ErrCrossedBook = errors.New("orderbook: update would cross the book")

	// ErrSequenceGap is returned by buffer-mode callers (mode A) when a
	// delta's first update id does not chain from the previous one.
	ErrSequenceGap = errors.New("orderbook: sequence gap detected")

	// ErrEmptyUpdate is returned when an update carries no bid/ask
	// entries and does not explicitly allow an empty payload.
	ErrEmptyUpdate = errors.New("orderbook: update has no bid/ask targets")

	// ErrSymbolNotFound names an untracked venue/symbol pair. The
	// consumer-facing lookups in package adapter return
	// adapter.ErrDepthNotFound instead; nothing in this module returns it.
	ErrSymbolNotFound = errors.New("orderbook: symbol not found")
)
