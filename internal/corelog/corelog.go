// Package corelog provides the structured sub-loggers shared by every
// adapter and the registry. Call sites name the subsystem the way the
// teacher's own log package names its managers (WebsocketMgr, OrderbookMgr,
// ...); the backend is zerolog rather than a hand-rolled writer.
package corelog

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Subsystem identifies the logical component emitting a log line.
type Subsystem string

// Named subsystems, mirroring the teacher's log.WebsocketMgr-style tags.
const (
	Websocket Subsystem = "websocket"
	Orderbook Subsystem = "orderbook"
	Fills     Subsystem = "fills"
	Registry  Subsystem = "registry"
	Supervisor Subsystem = "supervisor"
)

var (
	base zerolog.Logger
	once sync.Once
)

func root() zerolog.Logger {
	once.Do(func() {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
			With().Timestamp().Logger()
	})
	return base
}

// For returns a logger scoped to a subsystem, e.g. corelog.For(corelog.Websocket).
func For(s Subsystem) zerolog.Logger {
	return root().With().Str("subsystem", string(s)).Logger()
}

// Venue returns a logger scoped to a subsystem and a venue code, the
// combination used by nearly every adapter log line.
func Venue(s Subsystem, venue string) zerolog.Logger {
	return root().With().Str("subsystem", string(s)).Str("venue", venue).Logger()
}

// SetGlobalLevel adjusts verbosity process-wide. It is independent of
// wsconn.Connection's per-connection Verbose field.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
