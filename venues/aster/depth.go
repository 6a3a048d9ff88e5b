package aster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/shiftfx/mdcore/adapter"
	"github.com/shiftfx/mdcore/internal/corelog"
	"github.com/shiftfx/mdcore/internal/restclient"
	"github.com/shiftfx/mdcore/internal/venueerr"
	"github.com/shiftfx/mdcore/internal/wireutil"
	"github.com/shiftfx/mdcore/orderbook"
	"github.com/shiftfx/mdcore/wsconn"
)

const (
	venueName        = "aster"
	wsBase           = "wss://fstream.asterdex.com/stream"
	restBase         = "https://fapi.asterdex.com"
	depthSnapshotFmt = "%s/fapi/v1/depth?symbol=%s&limit=1000"
)

// DepthAdapter maintains a single symbol's Aster order book replica,
// following initialization mode A (spec §4.2), identical in protocol
// shape to Binance: REST snapshot + U/u sequenced deltas. Only the
// endpoints differ; both venues use lowercase stream names for an
// uppercase canonical symbol.
type DepthAdapter struct {
	*adapter.BaseDepthAdapter

	symbol string // canonical BASEUSDT
	rest   *restclient.Client
}

// NewDepthAdapter constructs an Aster depth adapter for canonical symbol
// (e.g. "BTCUSDT").
func NewDepthAdapter(symbol string) *DepthAdapter {
	d := &DepthAdapter{
		symbol: strings.ToUpper(symbol),
		rest:   restclient.New(venueName, 10),
	}
	d.BaseDepthAdapter = adapter.NewBaseDepthAdapter(venueName, d)
	return d
}

func (d *DepthAdapter) streamName() string {
	return strings.ToLower(d.symbol) + "@depth@100ms"
}

// Connect implements adapter.Connector.
func (d *DepthAdapter) Connect(ctx context.Context) error {
	url := fmt.Sprintf("%s?streams=%s", wsBase, d.streamName())
	conn := wsconn.New(venueName, url)

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := conn.Dial(dialCtx, &gws.Dialer{}, http.Header{}); err != nil {
		return venueerr.Connf(venueName, "dial: %w", err)
	}
	defer conn.Close()

	d.Stats().RecordConnect(time.Now())

	frames, errs := conn.Listen(ctx)

	type snapOut struct {
		s   depthSnapshot
		err error
	}
	snapCh := make(chan snapOut, 1)
	go func() {
		body, err := d.rest.Do(ctx, restclient.Request{
			Method: http.MethodGet,
			URL:    fmt.Sprintf(depthSnapshotFmt, restBase, d.symbol),
		})
		if err != nil {
			snapCh <- snapOut{err: err}
			return
		}
		var snap depthSnapshot
		if err := json.Unmarshal(body, &snap); err != nil {
			snapCh <- snapOut{err: venueerr.Protof(venueName, "decode snapshot: %w", err)}
			return
		}
		snapCh <- snapOut{s: snap}
	}()

	log := corelog.Venue(corelog.Orderbook, venueName)

	var (
		snapshotLoaded bool
		buffered       []depthUpdateEvent
	)

	for {
		select {
		case <-ctx.Done():
			d.Buffer.Invalidate(d.symbol)
			return nil
		case err := <-errs:
			d.Buffer.Invalidate(d.symbol)
			if err == nil || err == context.Canceled {
				return nil
			}
			return venueerr.Connf(venueName, "read: %w", err)
		case out := <-snapCh:
			if out.err != nil {
				d.Buffer.Invalidate(d.symbol)
				return venueerr.Connf(venueName, "snapshot fetch: %w", out.err)
			}
			bids := wireutil.LevelsFromPairs(out.s.Bids)
			asks := wireutil.LevelsFromPairs(out.s.Asks)
			if err := d.Buffer.LoadSnapshot(d.symbol, adapter.ModeA, bids, asks, out.s.LastUpdateID, time.Now().UTC()); err != nil {
				return venueerr.Protof(venueName, "apply snapshot: %w", err)
			}
			snapshotLoaded = true

			for _, ev := range buffered {
				if ev.FinalUpdate <= out.s.LastUpdateID {
					continue
				}
				if err := d.applyDelta(ev); err != nil {
					if err == adapter.ErrDepthNotFound {
						continue
					}
					log.Warn().Err(err).Str("symbol", d.symbol).Msg("sequence gap replaying buffered deltas, re-snapshotting")
					return venueerr.Protof(venueName, "buffered delta replay: %w", err)
				}
			}
			buffered = nil
		case resp, ok := <-frames:
			if !ok {
				continue
			}
			var frame combinedStreamFrame
			if err := json.Unmarshal(resp.Raw, &frame); err != nil {
				log.Warn().Err(err).Msg("malformed combined stream frame")
				continue
			}
			ev := frame.Data
			if !snapshotLoaded {
				buffered = append(buffered, ev)
				continue
			}
			if err := d.applyDelta(ev); err != nil {
				log.Warn().Err(err).Str("symbol", d.symbol).Msg("sequence gap, re-snapshotting")
				return venueerr.Protof(venueName, "sequence gap: %w", err)
			}
		}
	}
}

func (d *DepthAdapter) applyDelta(ev depthUpdateEvent) error {
	return d.Buffer.ApplyDelta(d.symbol, depthUpdateToOrderbookUpdate(ev))
}

func depthUpdateToOrderbookUpdate(ev depthUpdateEvent) *orderbook.Update {
	return &orderbook.Update{
		Bids:          wireutil.LevelsFromPairs(ev.Bids),
		Asks:          wireutil.LevelsFromPairs(ev.Asks),
		FirstUpdateID: ev.FirstUpdate,
		LastUpdateID:  ev.FinalUpdate,
		Timestamp:     time.UnixMilli(ev.TransactTime).UTC(),
		AllowEmpty:    true,
	}
}
