package lighter

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
	venueName       = "lighter"
	restBase        = "https://mainnet.zklighter.elliot.ai"
	wsURL           = "wss://mainnet.zklighter.elliot.ai/stream"
	marketsEndpoint = "/api/v1/markets"
)

// DepthAdapter maintains a single symbol's Lighter order book replica,
// following initialization mode B (spec §4.2): the websocket tags the
// first message "subscribed/order_book" (snapshot) and every later one
// "update/order_book" (delta). Lighter addresses books by integer market
// id, so the adapter first resolves symbol via REST (spec §4.3 "REST
// market-id mapping").
type DepthAdapter struct {
	*adapter.BaseDepthAdapter

	symbol string
	rest   *restclient.Client
}

// NewDepthAdapter constructs a Lighter depth adapter for canonical symbol
// (e.g. "BTCUSDT").
func NewDepthAdapter(symbol string) *DepthAdapter {
	d := &DepthAdapter{
		symbol: strings.ToUpper(symbol),
		rest:   restclient.New(venueName, 5),
	}
	d.BaseDepthAdapter = adapter.NewBaseDepthAdapter(venueName, d)
	return d
}

func (d *DepthAdapter) resolveMarketID(ctx context.Context) (int, error) {
	body, err := d.rest.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		URL:    restBase + marketsEndpoint,
	})
	if err != nil {
		return 0, err
	}
	var resp marketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, venueerr.Protof(venueName, "decode markets: %w", err)
	}
	for _, m := range resp.Markets {
		if strings.EqualFold(m.Symbol, d.symbol) {
			return m.MarketID, nil
		}
	}
	return 0, venueerr.Protof(venueName, "unknown market for symbol %s", d.symbol)
}

// Connect implements adapter.Connector.
func (d *DepthAdapter) Connect(ctx context.Context) error {
	marketID, err := d.resolveMarketID(ctx)
	if err != nil {
		return err
	}

	conn := wsconn.New(venueName, wsURL)
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := conn.Dial(dialCtx, &gws.Dialer{}, http.Header{}); err != nil {
		return venueerr.Connf(venueName, "dial: %w", err)
	}
	defer conn.Close()

	channel := fmt.Sprintf("order_book/%d", marketID)
	if err := conn.SendJSONMessage(map[string]any{
		"type":    "subscribe",
		"channel": channel,
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
			if err := d.handleFrame(resp.Raw, channel); err != nil {
				if err == orderbook.ErrNotInitialized {
					// Update arrived before the first snapshot: discard
					// and keep running, the next "subscribed" frame
					// seeds the book (spec §8 scenario 2).
					log.Warn().Str("symbol", d.symbol).Msg("update before snapshot, discarding")
					continue
				}
				log.Warn().Err(err).Str("symbol", d.symbol).Msg("order book frame rejected, re-subscribing")
				return venueerr.Protof(venueName, "order book frame: %w", err)
			}
		}
	}
}

func (d *DepthAdapter) handleFrame(raw []byte, channel string) error {
	var env wsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if env.Channel != channel {
		return nil
	}

	var frame orderBookFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return err
	}

	bids := levelsFromRows(frame.OrderBook.Bids)
	asks := levelsFromRows(frame.OrderBook.Asks)
	at := time.Now().UTC()

	if strings.HasPrefix(frame.Type, "subscribed") {
		return d.Buffer.LoadSnapshot(d.symbol, adapter.ModeB, bids, asks, frame.OrderBook.Offset, at)
	}
	return d.Buffer.ApplyDelta(d.symbol, &orderbook.Update{
		Bids:         bids,
		Asks:         asks,
		LastUpdateID: frame.OrderBook.Offset,
		Timestamp:    at,
		AllowEmpty:   true,
	})
}

func levelsFromRows(rows []orderBookLevel) orderbook.Levels {
	out := make(orderbook.Levels, 0, len(rows))
	for _, r := range rows {
		lvl, err := wireutil.LevelFromStrings(r.Price, r.Quantity)
		if err != nil {
			continue
		}
		out = append(out, lvl)
	}
	return out
}
