// Package reporter streams proctoring events to the backend over a
// websocket. It is strictly best-effort: a dead connection drops events
// rather than ever blocking or failing the exam session.
package reporter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	bufferSize     = 64
	writeTimeout   = 10 * time.Second
	reconnectDelay = 3 * time.Second
	pingInterval   = 30 * time.Second
)

// Reporter owns one outbound proctor stream for the lifetime of a session.
type Reporter struct {
	url    string
	header http.Header
	log    zerolog.Logger

	events chan ProctorEvent
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a reporter for the given ws:// or wss:// URL. token, when
// non-empty, is attached as a bearer Authorization header.
func New(wsURL, token string, log zerolog.Logger) *Reporter {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &Reporter{
		url:    wsURL,
		header: header,
		log:    log.With().Str("component", "proctor_reporter").Logger(),
		events: make(chan ProctorEvent, bufferSize),
	}
}

// Start launches the stream loop. Call once per session.
func (r *Reporter) Start(ctx context.Context) {
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx)
}

// Stop tears the stream down. Buffered events not yet written are dropped.
func (r *Reporter) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
}

// Report enqueues an event without blocking. When the buffer is full the
// oldest event is dropped: losing a proctor record is acceptable, stalling
// the exam is not.
func (r *Reporter) Report(ev ProctorEvent) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	for {
		select {
		case r.events <- ev:
			return
		default:
		}
		select {
		case dropped := <-r.events:
			r.log.Debug().Str("type", dropped.Type).Msg("Proctor buffer full, dropping oldest event")
		default:
		}
	}
}

func (r *Reporter) run(ctx context.Context) {
	defer close(r.done)

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, r.header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Warn().Err(err).Msg("Proctor stream dial failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		r.log.Info().Str("url", r.url).Msg("Proctor stream connected")
		if !r.pump(ctx, conn) {
			conn.Close()
			return
		}
		conn.Close()
	}
}

// pump writes events until the connection breaks. Returns false when the
// reporter is shutting down, true to trigger a reconnect.
func (r *Reporter) pump(ctx context.Context, conn *websocket.Conn) bool {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ping.C:
			if err := r.write(conn, Request{Action: ActionPing}); err != nil {
				r.log.Warn().Err(err).Msg("Proctor ping failed")
				return true
			}
		case ev := <-r.events:
			payload, err := json.Marshal(ev)
			if err != nil {
				r.log.Error().Err(err).Msg("Discarding unencodable proctor event")
				continue
			}
			if err := r.write(conn, Request{Action: ActionCheat, Payload: string(payload)}); err != nil {
				r.log.Warn().Err(err).Msg("Proctor write failed, requeueing event")
				r.Report(ev)
				return true
			}
		}
	}
}

func (r *Reporter) write(conn *websocket.Conn, req Request) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(req)
}
