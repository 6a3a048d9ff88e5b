package okx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
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
	venueName      = "okx"
	publicWSURL    = "wss://ws.okx.com:8443/ws/v5/public"
	privateWSURL   = "wss://ws.okx.com:8443/ws/v5/private"
	booksChannel   = "books"
)

// DepthAdapter maintains a single symbol's OKX swap order book replica,
// following initialization mode B (spec §4.2): the "books" channel tags
// its first message "snapshot" and every later one "update".
type DepthAdapter struct {
	*adapter.BaseDepthAdapter

	symbol string // canonical BASEUSDT
	instID string // OKX wire form, e.g. BTC-USDT-SWAP
	wsURL  string
}

// NewDepthAdapter constructs an OKX depth adapter for canonical symbol
// (e.g. "BTCUSDT").
func NewDepthAdapter(symbol string) *DepthAdapter {
	symbol = strings.ToUpper(symbol)
	d := &DepthAdapter{
		symbol: symbol,
		instID: toInstID(symbol),
		wsURL:  publicWSURL,
	}
	d.BaseDepthAdapter = adapter.NewBaseDepthAdapter(venueName, d)
	return d
}

// toInstID converts a canonical BASEUSDT symbol to OKX's BASE-USDT-SWAP
// instId wire form (spec §4.3 "instId <-> canonical symbol conversion").
func toInstID(symbol string) string {
	if strings.HasSuffix(symbol, "USDT") {
		return symbol[:len(symbol)-4] + "-USDT-SWAP"
	}
	return symbol
}

// fromInstID converts an OKX instId back to the canonical BASEUSDT form.
func fromInstID(instID string) string {
	parts := strings.Split(instID, "-")
	if len(parts) >= 2 {
		return parts[0] + parts[1]
	}
	return instID
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
		"op": "subscribe",
		"args": []map[string]string{
			{"channel": booksChannel, "instId": d.instID},
		},
	}); err != nil {
		return venueerr.Connf(venueName, "subscribe: %w", err)
	}

	d.Stats().RecordConnect(time.Now())

	frames, errs := conn.Listen(ctx)
	log := corelog.Venue(corelog.Orderbook, venueName)

	pingTicker := time.NewTicker(20 * time.Second)
	defer pingTicker.Stop()

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
		case <-pingTicker.C:
			// OKX's heartbeat is client-initiated: send the literal text
			// "ping" and expect a literal "pong" in reply (spec §4.3
			// "server-ping/client-pong" -- the client drives the cadence,
			// the server's "pong" just confirms liveness).
			if err := conn.SendRawMessage(gws.TextMessage, []byte("ping")); err != nil {
				return venueerr.Connf(venueName, "ping: %w", err)
			}
		case resp, ok := <-frames:
			if !ok {
				continue
			}
			if string(resp.Raw) == "pong" {
				continue
			}
			if err := d.handleFrame(resp.Raw); err != nil {
				if err == orderbook.ErrNotInitialized {
					// Update arrived before the first snapshot: discard
					// and keep running, the next "snapshot" frame seeds
					// the book (spec §8 scenario 2).
					log.Warn().Str("symbol", d.symbol).Msg("update before snapshot, discarding")
					continue
				}
				log.Warn().Err(err).Str("symbol", d.symbol).Msg("books frame rejected, re-subscribing")
				return venueerr.Protof(venueName, "books frame: %w", err)
			}
		}
	}
}

func (d *DepthAdapter) handleFrame(raw []byte) error {
	var env wsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if env.Arg == nil || env.Arg.Channel != booksChannel {
		return nil // subscribe ack, error frame, other channel
	}

	var frame booksFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return err
	}
	if frame.Arg.InstID != d.instID || len(frame.Data) == 0 {
		return nil
	}

	for _, row := range frame.Data {
		bids := wireutil.LevelsFromPairs(row.Bids)
		asks := wireutil.LevelsFromPairs(row.Asks)
		tsMillis, _ := strconv.ParseInt(row.TS, 10, 64)
		at := time.UnixMilli(tsMillis).UTC()

		switch frame.Action {
		case "snapshot":
			if err := d.Buffer.LoadSnapshot(d.symbol, adapter.ModeB, bids, asks, row.SeqID, at); err != nil {
				return err
			}
		default: // "update"
			if err := d.Buffer.ApplyDelta(d.symbol, &orderbook.Update{
				Bids:         bids,
				Asks:         asks,
				LastUpdateID: row.SeqID,
				Timestamp:    at,
				AllowEmpty:   true,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
