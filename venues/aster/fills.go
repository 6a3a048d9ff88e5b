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
	"github.com/shiftfx/mdcore/fill"
	"github.com/shiftfx/mdcore/internal/corelog"
	"github.com/shiftfx/mdcore/internal/signing"
	"github.com/shiftfx/mdcore/internal/venueerr"
	"github.com/shiftfx/mdcore/internal/wireutil"
	"github.com/shiftfx/mdcore/wsconn"
)

const wsUserDataURL = "wss://fstream.asterdex.com/ws"

// Credentials holds the API key/secret used to sign Aster's private "auth"
// handshake (spec §4.4 "HMAC auth method like Lighter" -- unlike Binance,
// Aster's private channel needs no REST listen-key step at all).
type Credentials struct {
	APIKey    string
	APISecret string
}

// FillAdapter streams normalized fills from Aster's user data stream.
type FillAdapter struct {
	*adapter.BaseFillAdapter

	creds Credentials
}

// NewFillAdapter constructs an Aster fill adapter. onFill is invoked
// synchronously for every parsed fill.
func NewFillAdapter(creds Credentials, onFill adapter.FillCallback) *FillAdapter {
	f := &FillAdapter{creds: creds}
	f.BaseFillAdapter = adapter.NewBaseFillAdapter(venueName, onFill, f)
	return f
}

// Connect implements adapter.Connector.
func (f *FillAdapter) Connect(ctx context.Context) error {
	conn := wsconn.New(venueName, wsUserDataURL)
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := conn.Dial(dialCtx, &gws.Dialer{}, http.Header{}); err != nil {
		return venueerr.Connf(venueName, "dial: %w", err)
	}
	defer conn.Close()

	ts := time.Now().UnixMilli()
	sig := signing.HMACHex(f.creds.APISecret, fmt.Sprintf("%s%d", f.creds.APIKey, ts))
	if err := conn.SendJSONMessage(map[string]any{
		"method":    "auth",
		"apiKey":    f.creds.APIKey,
		"timestamp": ts,
		"signature": sig,
	}); err != nil {
		return venueerr.Connf(venueName, "send auth: %w", err)
	}

	frames, errs := conn.Listen(ctx)
	log := corelog.Venue(corelog.Fills, venueName)

	authed := false
	for !authed {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err == nil || err == context.Canceled {
				return nil
			}
			return venueerr.Connf(venueName, "read during auth: %w", err)
		case resp, ok := <-frames:
			if !ok {
				return venueerr.Connf(venueName, "connection closed during auth")
			}
			var env authFrame
			if err := json.Unmarshal(resp.Raw, &env); err != nil || env.Type != "auth" {
				continue
			}
			if !env.Success {
				return venueerr.Authf(venueName, "auth rejected: %s", env.Reason)
			}
			authed = true
		}
	}

	f.Stats().RecordConnect(time.Now())

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
			if ev, err := f.parseFrame(resp.Raw); err != nil {
				log.Warn().Err(err).Msg("malformed user data frame")
			} else if ev != nil {
				f.Forward(*ev)
			}
		}
	}
}

// parseFrame follows the same ORDER_TRADE_UPDATE rules as Binance (spec
// §9 "Binance-family wire"): only PARTIALLY_FILLED/FILLED statuses emit a
// fill.
func (f *FillAdapter) parseFrame(raw []byte) (*fill.Event, error) {
	var env orderTradeFrame
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.EventType != "ORDER_TRADE_UPDATE" {
		return nil, nil
	}
	o := env.Order
	if o.OrderStatus != "PARTIALLY_FILLED" && o.OrderStatus != "FILLED" {
		return nil, nil
	}

	price, err := wireutil.ParseDecimal(o.AvgPrice)
	if err != nil {
		return nil, err
	}
	qty, err := wireutil.ParseDecimal(o.LastFilledQty)
	if err != nil {
		return nil, err
	}
	commission, err := wireutil.ParseDecimal(o.Commission)
	if err != nil {
		return nil, err
	}

	ev := fill.Event{
		Venue:           venueName,
		Symbol:          o.Symbol,
		OrderID:         fmt.Sprintf("%d", o.OrderID),
		Side:            normalizeSide(o.Side),
		Quantity:        qty,
		Price:           price,
		TradeID:         fmt.Sprintf("%d", o.TradeID),
		Timestamp:       fill.NormalizeMillis(o.TransactTime),
		Commission:      commission.Abs(),
		CommissionAsset: o.CommissionAsset,
	}
	if !ev.Valid() {
		return nil, nil
	}
	return &ev, nil
}

func normalizeSide(s string) fill.Side {
	if strings.EqualFold(s, "SELL") {
		return fill.Sell
	}
	return fill.Buy
}
