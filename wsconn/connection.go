// Package wsconn is the common websocket transport shared by every venue
// adapter: connect, send JSON/raw frames, a bounded-timeout read loop, a
// ping/pong handler, and request/response correlation via Match. Adapted
// from the teacher's exchanges/stream.WebsocketConnection.
package wsconn

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/shiftfx/mdcore/internal/corelog"
)

// DefaultRecvTimeout is the bounded recv-with-timeout used by every
// message loop so stop() is observed promptly (spec §4.1 step 3, §5).
const DefaultRecvTimeout = 5 * time.Second

// Response is a single decoded websocket frame.
type Response struct {
	Raw  []byte
	Type int
}

// Connection wraps a single gorilla/websocket connection with the
// concerns every venue adapter needs: proxying, verbose logging, rate
// limited writes, binary/gzip/flate decoding, a ping handler and
// request/response correlation.
type Connection struct {
	Verbose      bool
	ExchangeName string
	URL          string
	ProxyURL     string
	RateLimit    time.Duration

	// SessionID tags the connection's verbose "websocket connected" log
	// line so overlapping reconnects of the same venue/stream can be told
	// apart in logs.
	SessionID uuid.UUID

	connected int32

	writeControl sync.Mutex
	conn         *websocket.Conn

	Match   *Match
	Traffic chan struct{}
}

// New constructs a Connection for a venue's websocket URL.
func New(exchangeName, url string) *Connection {
	sessionID, _ := uuid.NewV4()
	return &Connection{
		ExchangeName: exchangeName,
		URL:          url,
		SessionID:    sessionID,
		Match:        NewMatch(),
		Traffic:      make(chan struct{}, 1),
	}
}

// Dial opens the connection, honoring ProxyURL if set.
func (c *Connection) Dial(ctx context.Context, dialer *websocket.Dialer, headers http.Header) error {
	if c.ProxyURL != "" {
		proxy, err := url.Parse(c.ProxyURL)
		if err != nil {
			return errors.Wrap(err, "wsconn: parse proxy url")
		}
		dialer.Proxy = http.ProxyURL(proxy)
	}

	conn, resp, err := dialer.DialContext(ctx, c.URL, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%s dial %s: status %d: %w", c.ExchangeName, c.URL, resp.StatusCode, err)
		}
		return fmt.Errorf("%s dial %s: %w", c.ExchangeName, c.URL, err)
	}
	c.conn = conn
	if c.Verbose {
		corelog.Venue(corelog.Websocket, c.ExchangeName).Info().
			Str("url", c.URL).Str("session", c.SessionID.String()).Msg("websocket connected")
	}
	select {
	case c.Traffic <- struct{}{}:
	default:
	}
	c.setConnected(true)
	return nil
}

// SendJSONMessage writes a JSON-encoded frame, rate limited if
// configured.
func (c *Connection) SendJSONMessage(data any) error {
	if !c.IsConnected() {
		return fmt.Errorf("%s: cannot send to a disconnected websocket", c.ExchangeName)
	}
	c.writeControl.Lock()
	defer c.writeControl.Unlock()
	if c.Verbose {
		corelog.Venue(corelog.Websocket, c.ExchangeName).Debug().Any("payload", data).Msg("sending websocket message")
	}
	if c.RateLimit > 0 {
		time.Sleep(c.RateLimit)
	}
	return c.conn.WriteJSON(data)
}

// SendRawMessage writes a raw frame without JSON encoding.
func (c *Connection) SendRawMessage(messageType int, message []byte) error {
	if !c.IsConnected() {
		return fmt.Errorf("%s: cannot send to a disconnected websocket", c.ExchangeName)
	}
	c.writeControl.Lock()
	defer c.writeControl.Unlock()
	if c.RateLimit > 0 {
		time.Sleep(c.RateLimit)
	}
	return c.conn.WriteMessage(messageType, message)
}

// PingHandler configures an automatic reply to server-sent pings or a
// client-driven ping ticker, mirroring the venue table in spec §4.3/§4.4.
type PingHandler struct {
	// UseGorillaHandler replies in-band to the library's ping control
	// frames (used by venues whose "heartbeat: library default" wire
	// entry relies on gorilla/websocket's built-in ping/pong).
	UseGorillaHandler bool
	MessageType       int
	Message           []byte
	Delay             time.Duration
}

// SetupPingHandler wires the configured ping behavior. When not using
// the gorilla handler, it starts a ticker goroutine that sends Message
// every Delay until done is closed.
func (c *Connection) SetupPingHandler(wg *sync.WaitGroup, done <-chan struct{}, handler PingHandler) {
	if handler.UseGorillaHandler {
		c.conn.SetPingHandler(func(msg string) error {
			err := c.conn.WriteControl(handler.MessageType, []byte(msg), time.Now().Add(handler.Delay))
			if errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil
			}
			return err
		})
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(handler.Delay)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.SendRawMessage(handler.MessageType, handler.Message); err != nil {
					corelog.Venue(corelog.Websocket, c.ExchangeName).Error().Err(err).Msg("ping send failed")
					return
				}
			}
		}
	}()
}

func (c *Connection) setConnected(b bool) {
	if b {
		atomic.StoreInt32(&c.connected, 1)
		return
	}
	atomic.StoreInt32(&c.connected, 0)
}

// IsConnected reports the current connection status.
func (c *Connection) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

// ReadMessage blocks for one frame up to DefaultRecvTimeout, decoding
// gzip/flate-compressed binary frames transparently. A timeout returns
// (Response{}, errTimeout) so the caller's message loop can check its
// running flag and loop (spec §4.1 step 3).
func (c *Connection) ReadMessage(timeout time.Duration) (Response, error) {
	if timeout <= 0 {
		timeout = DefaultRecvTimeout
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	mType, resp, err := c.conn.ReadMessage()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return Response{}, errTimeout
		}
		c.setConnected(false)
		return Response{}, err
	}

	select {
	case c.Traffic <- struct{}{}:
	default:
	}

	var out []byte
	switch mType {
	case websocket.TextMessage:
		out = resp
	case websocket.BinaryMessage:
		out, err = decompress(resp)
		if err != nil {
			return Response{}, err
		}
	}
	return Response{Raw: out, Type: mType}, nil
}

// errTimeout is returned by ReadMessage when the bounded recv elapses
// without a frame; it is not a connection failure.
var errTimeout = errors.New("wsconn: read timeout")

// IsTimeout reports whether err is the bounded-recv timeout sentinel.
func IsTimeout(err error) bool { return errors.Is(err, errTimeout) }

// Listen spawns a background goroutine that forwards every frame onto
// the returned channel until ctx is cancelled or a read fails. This lets
// a venue connector's Connect loop select between incoming frames and
// other concurrent work (a REST snapshot fetch, a keep-alive ticker)
// without blocking on the raw connection directly. The error channel
// receives exactly one value before closing, the frame channel closes
// immediately after.
func (c *Connection) Listen(ctx context.Context) (<-chan Response, <-chan error) {
	frames := make(chan Response, 64)
	errs := make(chan error, 1)
	go func() {
		defer close(frames)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}
			resp, err := c.ReadMessage(DefaultRecvTimeout)
			if err != nil {
				if IsTimeout(err) {
					continue
				}
				errs <- err
				return
			}
			select {
			case frames <- resp:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return frames, errs
}

func decompress(resp []byte) ([]byte, error) {
	if len(resp) < 2 {
		return nil, errors.New("wsconn: binary frame too short")
	}
	if resp[0] == 0x1f && resp[1] == 0x8b {
		gr, err := gzip.NewReader(bytes.NewReader(resp))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	}
	fr := flate.NewReader(bytes.NewReader(resp))
	defer fr.Close()
	return io.ReadAll(fr)
}

// Close closes the underlying connection.
func (c *Connection) Close() error {
	c.setConnected(false)
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
