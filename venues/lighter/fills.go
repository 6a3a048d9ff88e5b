package lighter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/shiftfx/mdcore/adapter"
	"github.com/shiftfx/mdcore/fill"
	"github.com/shiftfx/mdcore/internal/corelog"
	"github.com/shiftfx/mdcore/internal/restclient"
	"github.com/shiftfx/mdcore/internal/signing"
	"github.com/shiftfx/mdcore/internal/venueerr"
	"github.com/shiftfx/mdcore/internal/wireutil"
	"github.com/shiftfx/mdcore/wsconn"
)

// Credentials holds the API key/secret used to sign Lighter's private
// "auth" method (spec §4.4 "HMAC auth method like Aster").
type Credentials struct {
	APIKey    string
	APISecret string
}

// FillAdapter streams normalized fills from Lighter's account_trades
// channel. The private handshake captures a session token from the
// server's reply and holds it only for the lifetime of the connection;
// it is never persisted (spec §4.4 "session token capture").
type FillAdapter struct {
	*adapter.BaseFillAdapter

	creds Credentials
	rest  *restclient.Client
}

// NewFillAdapter constructs a Lighter fill adapter. onFill is invoked
// synchronously for every parsed fill.
func NewFillAdapter(creds Credentials, onFill adapter.FillCallback) *FillAdapter {
	f := &FillAdapter{creds: creds, rest: restclient.New(venueName, 5)}
	f.BaseFillAdapter = adapter.NewBaseFillAdapter(venueName, onFill, f)
	return f
}

// resolveSymbols fetches the REST market-id table (spec §4.3 "REST
// market-id mapping") so account-wide trade records, which carry only a
// market id, can be normalized to a canonical symbol.
func (f *FillAdapter) resolveSymbols(ctx context.Context) (map[int]string, error) {
	body, err := f.rest.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		URL:    restBase + marketsEndpoint,
	})
	if err != nil {
		return nil, err
	}
	var resp marketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, venueerr.Protof(venueName, "decode markets: %w", err)
	}
	out := make(map[int]string, len(resp.Markets))
	for _, m := range resp.Markets {
		out[m.MarketID] = strings.ToUpper(m.Symbol)
	}
	return out, nil
}

// Connect implements adapter.Connector.
func (f *FillAdapter) Connect(ctx context.Context) error {
	symbols, err := f.resolveSymbols(ctx)
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

	ts := time.Now().UnixMilli()
	sig := signing.HMACHex(f.creds.APISecret, fmt.Sprintf("%s%d", f.creds.APIKey, ts))
	if err := conn.SendJSONMessage(map[string]any{
		"type":       "auth",
		"api_key":    f.creds.APIKey,
		"timestamp":  ts,
		"signature":  sig,
	}); err != nil {
		return venueerr.Connf(venueName, "send auth: %w", err)
	}

	log := corelog.Venue(corelog.Fills, venueName)
	frames, errs := conn.Listen(ctx)

	var sessionToken string
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
			var env wsEnvelope
			if err := json.Unmarshal(resp.Raw, &env); err != nil {
				continue
			}
			switch env.Type {
			case "auth_error":
				return venueerr.Authf(venueName, "auth rejected")
			case "connected", "authenticated":
				sessionToken = env.Token
				authed = true
			}
		}
	}
	_ = sessionToken // held only for the connection's lifetime, never persisted

	if err := conn.SendJSONMessage(map[string]any{
		"type":    "subscribe",
		"channel": "account_trades",
	}); err != nil {
		return venueerr.Connf(venueName, "subscribe: %w", err)
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
			f.handleFrame(resp.Raw, symbols, log)
		}
	}
}

func (f *FillAdapter) handleFrame(raw []byte, symbols map[int]string, log zerolog.Logger) {
	var frame accountTradesFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return
	}
	if frame.Channel != "account_trades" {
		return
	}
	for _, rec := range frame.Trades {
		ev, err := parseTrade(rec, symbols[rec.MarketID])
		if err != nil {
			log.Warn().Err(err).Str("tradeId", rec.TradeID).Msg("malformed trade record")
			continue
		}
		if ev != nil {
			f.Forward(*ev)
		}
	}
}

func parseTrade(rec tradeRecord, symbol string) (*fill.Event, error) {
	price, err := wireutil.ParseDecimal(rec.Price)
	if err != nil {
		return nil, err
	}
	qty, err := wireutil.ParseDecimal(rec.Size)
	if err != nil {
		return nil, err
	}
	fee, err := wireutil.ParseDecimal(rec.Fee)
	if err != nil {
		return nil, err
	}

	ev := fill.Event{
		Venue:           venueName,
		Symbol:          symbol,
		OrderID:         rec.OrderID,
		Side:            normalizeSide(rec.Side),
		Quantity:        qty,
		Price:           price,
		TradeID:         rec.TradeID,
		Timestamp:       fill.NormalizeMicros(rec.TimestampUS),
		Commission:      fee.Abs(),
		CommissionAsset: rec.FeeAsset,
	}
	if !ev.Valid() {
		return nil, nil
	}
	return &ev, nil
}

func normalizeSide(s string) fill.Side {
	if strings.EqualFold(s, "sell") {
		return fill.Sell
	}
	return fill.Buy
}
