package hyperliquid

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/shiftfx/mdcore/adapter"
	"github.com/shiftfx/mdcore/internal/corelog"
	"github.com/shiftfx/mdcore/internal/venueerr"
	"github.com/shiftfx/mdcore/internal/wireutil"
	"github.com/shiftfx/mdcore/orderbook"
	"github.com/shiftfx/mdcore/wsconn"
)

const (
	venueName = "hyperliquid"
	wsURL     = "wss://api.hyperliquid.xyz/ws"
)

// DepthAdapter maintains a single coin's Hyperliquid order book replica.
// Unlike the other venues, Hyperliquid's l2Book channel never tags a
// message snapshot or delta -- every message is a full top-of-book
// replace (spec §4.2 mode B, degenerate case: "treat every message as a
// snapshot").
type DepthAdapter struct {
	*adapter.BaseDepthAdapter

	symbol string // canonical BASEUSDT, e.g. "BTCUSDT"
	coin   string // Hyperliquid wire form, e.g. "BTC"
}

// NewDepthAdapter constructs a Hyperliquid depth adapter for canonical
// symbol (e.g. "BTCUSDT"); Hyperliquid itself has no USDT suffix on perps,
// so the wire-level coin is derived via toCoin (spec §4.3 symbol
// normalization).
func NewDepthAdapter(symbol string) *DepthAdapter {
	symbol = strings.ToUpper(symbol)
	d := &DepthAdapter{symbol: symbol, coin: toCoin(symbol)}
	d.BaseDepthAdapter = adapter.NewBaseDepthAdapter(venueName, d)
	return d
}

// Connect implements adapter.Connector.
func (d *DepthAdapter) Connect(ctx context.Context) error {
	conn := wsconn.New(venueName, wsURL)
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := conn.Dial(dialCtx, &gws.Dialer{}, http.Header{}); err != nil {
		return venueerr.Connf(venueName, "dial: %w", err)
	}
	defer conn.Close()

	if err := conn.SendJSONMessage(subscribeMessage{
		Method:       "subscribe",
		Subscription: subscription{Type: "l2Book", Coin: d.coin},
	}); err != nil {
		return venueerr.Connf(venueName, "subscribe: %w", err)
	}

	d.Stats().RecordConnect(time.Now())

	frames, errs := conn.Listen(ctx)
	log := corelog.Venue(corelog.Orderbook, venueName)

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
		case resp, ok := <-frames:
			if !ok {
				continue
			}
			if err := d.handleFrame(resp.Raw); err != nil {
				log.Warn().Err(err).Str("symbol", d.symbol).Msg("l2Book frame rejected, re-subscribing")
				return venueerr.Protof(venueName, "l2Book frame: %w", err)
			}
		}
	}
}

func (d *DepthAdapter) handleFrame(raw []byte) error {
	var env wsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if env.Channel != "l2Book" {
		return nil // subscription ack, heartbeat, other channel
	}

	var frame l2BookFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return err
	}
	if !strings.EqualFold(frame.Data.Coin, d.coin) {
		return nil
	}

	bids := levelsFromRows(frame.Data.Levels[0])
	asks := levelsFromRows(frame.Data.Levels[1])
	at := time.UnixMilli(frame.Data.Time).UTC()

	return d.Buffer.LoadSnapshot(d.symbol, adapter.ModeB, bids, asks, frame.Data.Time, at)
}

func levelsFromRows(rows []l2BookLevel) orderbook.Levels {
	out := make(orderbook.Levels, 0, len(rows))
	for _, r := range rows {
		lvl, err := wireutil.LevelFromStrings(r.Px, r.Sz)
		if err != nil {
			continue
		}
		out = append(out, lvl)
	}
	return out
}
