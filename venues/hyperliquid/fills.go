package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/shiftfx/mdcore/adapter"
	"github.com/shiftfx/mdcore/fill"
	"github.com/shiftfx/mdcore/internal/corelog"
	"github.com/shiftfx/mdcore/internal/venueerr"
	"github.com/shiftfx/mdcore/internal/wireutil"
	"github.com/shiftfx/mdcore/wsconn"
)

// FillAdapter streams normalized fills from Hyperliquid's userEvents
// channel. Unlike every other venue in this module, Hyperliquid's private
// channel needs no credentials at all -- subscribing to a wallet address
// is itself the authorization (spec §4.4 "no auth").
type FillAdapter struct {
	*adapter.BaseFillAdapter

	wallet string
}

// NewFillAdapter constructs a Hyperliquid fill adapter for the given
// wallet address. onFill is invoked synchronously for every parsed fill.
func NewFillAdapter(wallet string, onFill adapter.FillCallback) *FillAdapter {
	f := &FillAdapter{wallet: wallet}
	f.BaseFillAdapter = adapter.NewBaseFillAdapter(venueName, onFill, f)
	return f
}

// Connect implements adapter.Connector.
func (f *FillAdapter) Connect(ctx context.Context) error {
	conn := wsconn.New(venueName, wsURL)
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := conn.Dial(dialCtx, &gws.Dialer{}, http.Header{}); err != nil {
		return venueerr.Connf(venueName, "dial: %w", err)
	}
	defer conn.Close()

	if err := conn.SendJSONMessage(subscribeMessage{
		Method:       "subscribe",
		Subscription: subscription{Type: "userEvents", User: f.wallet},
	}); err != nil {
		return venueerr.Connf(venueName, "subscribe: %w", err)
	}

	f.Stats().RecordConnect(time.Now())

	frames, errs := conn.Listen(ctx)
	log := corelog.Venue(corelog.Fills, venueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err == nil || err == context.Canceled {
				return nil
			}
			return venueerr.Connf(venueName, "read: %w", err)
		case resp, ok := <-frames:
			if !ok {
				continue
			}
			var env wsEnvelope
			if err := json.Unmarshal(resp.Raw, &env); err != nil || env.Channel != "user" {
				continue
			}
			var frame userEventsFrame
			if err := json.Unmarshal(resp.Raw, &frame); err != nil {
				log.Warn().Err(err).Msg("malformed userEvents frame")
				continue
			}
			for _, rec := range frame.Data.Fills {
				ev, err := parseFill(rec)
				if err != nil {
					log.Warn().Err(err).Msg("malformed fill record")
					continue
				}
				if ev != nil {
					f.Forward(*ev)
				}
			}
		}
	}
}

// parseFill converts a fillRecord to a normalized fill.Event. Commission
// fields are included only when the venue sends them (supplemented
// feature, spec §9: older Hyperliquid accounts omit feeToken).
func parseFill(rec fillRecord) (*fill.Event, error) {
	price, err := wireutil.ParseDecimal(rec.Px)
	if err != nil {
		return nil, err
	}
	qty, err := wireutil.ParseDecimal(rec.Sz)
	if err != nil {
		return nil, err
	}
	fee, err := wireutil.ParseDecimal(rec.Fee)
	if err != nil {
		return nil, err
	}

	ev := fill.Event{
		Venue:           venueName,
		Symbol:          fromCoin(rec.Coin),
		OrderID:         fmt.Sprintf("%d", rec.Oid),
		Side:            normalizeSide(rec.Side),
		Quantity:        qty,
		Price:           price,
		TradeID:         fmt.Sprintf("%d", rec.Tid),
		Timestamp:       fill.NormalizeMillis(rec.Time),
		Commission:      fee.Abs(),
		CommissionAsset: rec.FeeToken,
	}
	if !ev.Valid() {
		return nil, nil
	}
	return &ev, nil
}

func normalizeSide(s string) fill.Side {
	if s == "A" { // "ask" side fill, i.e. the account sold
		return fill.Sell
	}
	return fill.Buy
}
