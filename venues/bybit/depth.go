package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
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
	venueName        = "bybit"
	publicLinearURL  = "wss://stream.bybit.com/v5/public/linear"
	clientPingPeriod = 20 * time.Second
	depthLevels      = 50
)

// DepthAdapter maintains a single symbol's Bybit linear perpetual order
// book replica, following initialization mode B (spec §4.2): the venue
// itself tags each frame "snapshot" or "delta", so no REST fetch or
// buffering is needed before the first applicable frame arrives.
type DepthAdapter struct {
	*adapter.BaseDepthAdapter

	symbol string // canonical BASEUSDT
	wsURL  string
}

// NewDepthAdapter constructs a Bybit depth adapter for canonical symbol
// (e.g. "BTCUSDT").
func NewDepthAdapter(symbol string) *DepthAdapter {
	d := &DepthAdapter{
		symbol: strings.ToUpper(symbol),
		wsURL:  publicLinearURL,
	}
	d.BaseDepthAdapter = adapter.NewBaseDepthAdapter(venueName, d)
	return d
}

func (d *DepthAdapter) topic() string {
	return fmt.Sprintf("orderbook.%d.%s", depthLevels, d.symbol)
}

// Connect implements adapter.Connector.
func (d *DepthAdapter) Connect(ctx context.Context) error {
	conn := wsconn.New(venueName, d.wsURL)
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := conn.Dial(dialCtx, &gws.Dialer{}, http.Header{}); err != nil {
		return venueerr.Connf(venueName, "dial: %w", err)
	}
	defer conn.Close()

	if err := conn.SendJSONMessage(map[string]any{
		"op":   "subscribe",
		"args": []string{d.topic()},
	}); err != nil {
		return venueerr.Connf(venueName, "subscribe: %w", err)
	}

	d.Stats().RecordConnect(time.Now())

	var wg sync.WaitGroup
	done := make(chan struct{})
	defer func() { close(done); wg.Wait() }()
	conn.SetupPingHandler(&wg, done, wsconn.PingHandler{
		Delay:       clientPingPeriod,
		MessageType: gws.TextMessage,
		Message:     []byte(`{"op":"ping"}`),
	})

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
				if err == orderbook.ErrNotInitialized {
					// Delta arrived before the first snapshot: discard
					// and keep running, the next "snapshot" frame seeds
					// the book (spec §8 scenario 2).
					log.Warn().Str("symbol", d.symbol).Msg("delta before snapshot, discarding")
					continue
				}
				log.Warn().Err(err).Str("symbol", d.symbol).Msg("orderbook frame rejected, re-subscribing")
				return venueerr.Protof(venueName, "orderbook frame: %w", err)
			}
		}
	}
}

func (d *DepthAdapter) handleFrame(raw []byte) error {
	var env wsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil // non-JSON / pong noise, ignore
	}
	if !strings.HasPrefix(env.Topic, "orderbook.") {
		return nil // op acks, pong replies, etc.
	}

	var frame orderbookFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return err
	}

	bids := levelsFromRows(frame.Data.Bids)
	asks := levelsFromRows(frame.Data.Asks)
	at := time.UnixMilli(frame.TS).UTC()

	switch frame.Type {
	case "snapshot":
		return d.Buffer.LoadSnapshot(d.symbol, adapter.ModeB, bids, asks, frame.Data.UpdID, at)
	case "delta":
		return d.Buffer.ApplyDelta(d.symbol, &orderbook.Update{
			Bids:         bids,
			Asks:         asks,
			LastUpdateID: frame.Data.UpdID,
			Timestamp:    at,
			AllowEmpty:   true,
		})
	default:
		return nil
	}
}

func levelsFromRows(rows [][]string) orderbook.Levels {
	return wireutil.LevelsFromPairs(rows)
}
