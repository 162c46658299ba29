/*
Package chat contains the connection lifecycle and room broadcast engine.

This file defines the Client struct, the WebSocket side of one connection. It decodes
inbound frames into Session calls, acknowledges them, and runs the read and write loops
(ReadPump and WritePump) that own the underlying socket.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// WsCloseCodeSlowConsumer is a custom WebSocket Close Code (4000-4999 range)
	// telling the client it was dropped because it could not keep up with its room.
	WsCloseCodeSlowConsumer = 4008
)

// ClientOptions tunes a Client.
type ClientOptions struct {
	// SendQueueSize is the number of outbound frames buffered before the client counts as a slow consumer.
	SendQueueSize int

	// EventRate and EventBurst bound how fast the client may send events.
	EventRate  rate.Limit
	EventBurst int
}

// Client represents an active WebSocket connection and implements Peer.
type Client struct {
	id string

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// the lifecycle state machine driven by this connection's events.
	session *Session

	// queued outbound frames; closed by ReadPump after the session is disconnected.
	send chan []byte

	// closed when the server asks for the connection to be closed.
	quit      chan struct{}
	closeOnce sync.Once
	closeWith CloseReason

	// limits inbound events.
	limiter *rate.Limiter

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient wraps conn and attaches it to coordinator.
// It fails with ErrShuttingDown once the coordinator is shutting down.
func NewClient(coordinator *Coordinator, conn *websocket.Conn, opts ClientOptions) (*Client, error) {
	id := randx.ConnectionID()

	c := &Client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, opts.SendQueueSize),
		quit:    make(chan struct{}),
		limiter: rate.NewLimiter(opts.EventRate, opts.EventBurst),
		logger: logx.Logger().With().
			Str("component", "Client").
			Str("connection_id", id).
			Logger(),
	}

	session, err := coordinator.Attach(c)
	if err != nil {
		return nil, err
	}
	c.session = session

	return c, nil
}

// ID implements Peer.
func (c *Client) ID() string {
	return c.id
}

// Deliver implements Peer. It never blocks.
func (c *Client) Deliver(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close implements Peer. WritePump performs the actual close, so Close never blocks.
func (c *Client) Close(reason CloseReason) {
	c.closeOnce.Do(func() {
		c.closeWith = reason
		close(c.quit)
	})
}

// ReadPump reads frames until the connection fails or closes, then disconnects the session.
// It must run on exactly one goroutine per connection.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInbound(frame)
	}
}

// cleanupOnDisconnect runs the disconnect transition and lets WritePump finish.
func (c *Client) cleanupOnDisconnect() {
	c.session.Disconnect()

	// No peer can reach c.send once the session is disconnected.
	close(c.send)

	c.logger.Debug().Msg("Client connection cleanup finished.")
}

// processInbound decodes one frame and dispatches it to the session.
func (c *Client) processInbound(frame []byte) {
	var in Inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	if !c.limiter.Allow() {
		c.logger.Warn().Str("event", string(in.Type)).Msg("Client exceeded event rate")
		c.ack(in.AckID, errs.NewError(errs.ErrEventRateExceeded))
		return
	}

	switch in.Type {
	case EventJoin:
		var p JoinPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			c.ack(in.AckID, errs.NewError(errs.ErrInvalidParams))
			return
		}
		c.ack(in.AckID, c.session.Join(p.Name(), p.Room))

	case EventSendMessage:
		var text string
		if err := json.Unmarshal(in.Payload, &text); err != nil {
			c.ack(in.AckID, errs.NewError(errs.ErrInvalidParams))
			return
		}
		c.ack(in.AckID, c.session.SendMessage(text))

	case EventShareLocation, EventSendLocation:
		var p LocationPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil || p.Latitude == nil || p.Longitude == nil {
			c.ack(in.AckID, errs.NewError(errs.ErrInvalidParams))
			return
		}
		c.ack(in.AckID, c.session.ShareLocation(*p.Latitude, *p.Longitude))

	default:
		c.logger.Warn().Str("event", string(in.Type)).Msg("Client sent unsupported event type")
	}
}

// ack answers an inbound event that asked for an acknowledgment. A nil err acknowledges success.
func (c *Client) ack(ackID *int64, err error) {
	if ackID == nil {
		return
	}

	var errMsg string
	if err != nil {
		errMsg = errs.PublicMessage(err)
	}

	frame, encErr := encodeAck(*ackID, errMsg)
	if encErr != nil {
		c.logger.Error().Err(encErr).Msg("Failed to build ack")
		return
	}

	if !c.Deliver(frame) {
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send queue full, dropping ack and closing")
		c.Close(CloseSlowConsumer)
	}
}

// WritePump writes queued frames and heartbeats to the connection.
// It closes the connection when the send queue is closed, on a write error, or when Close is called.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}

		case <-c.quit:
			c.writeClose()
			return
		}
	}
}

// writeQueuedFrame writes a frame pulled from the send queue.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePing sends a heartbeat Ping.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// writeClose flushes frames already queued and sends a Close frame explaining why the server closes the connection.
func (c *Client) writeClose() {
	code, text := websocket.CloseGoingAway, "server shutting down"
	if c.closeWith == CloseSlowConsumer {
		code, text = WsCloseCodeSlowConsumer, "too slow to keep up with room traffic"
	}

	c.logger.Info().Int("close_code", code).Str("reason", text).Msg("Closing connection.")

	if c.closeWith == CloseShutdown {
		c.flushQueued()
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text)); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send WS Close Message.")
	}
}

// flushQueued writes whatever is already queued, so goodbye messages reach the client.
func (c *Client) flushQueued() {
	for {
		select {
		case frame, ok := <-c.send:
			if !ok || !c.writeQueuedFrame(frame, true) {
				return
			}
		default:
			return
		}
	}
}
