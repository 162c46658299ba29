/*
Package chat contains the connection lifecycle and room broadcast engine.

This file defines the Coordinator, which owns every attached connection and serializes
all membership changes and room broadcasts behind a single mutex. Holding the mutex while
frames are queued gives every recipient the same relative order of events in a room:
a join announcement and roster update are queued before any later message of that room.
*/
package chat

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"

	"roomchat/internal/app/message"
	"roomchat/internal/app/presence"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

// CloseReason tells a Peer why the server is closing it.
type CloseReason int

const (
	// CloseShutdown is used when the server is stopping.
	CloseShutdown CloseReason = iota

	// CloseSlowConsumer is used when the peer's outbound queue overflowed.
	CloseSlowConsumer
)

// Peer is the outbound side of one transport connection.
type Peer interface {
	// ID returns the connection id, unique among open connections.
	ID() string

	// Deliver queues an encoded frame without blocking. It returns false if the frame was dropped.
	Deliver(frame []byte) bool

	// Close asks the transport to close the connection without blocking.
	// The connection's Session is disconnected once its read side ends.
	Close(reason CloseReason)
}

// ContentFilter classifies message text.
type ContentFilter interface {
	IsAllowed(text string) bool
}

// Stats is a point-in-time view of the Coordinator.
type Stats struct {
	Connections  int `json:"connections"`
	Participants int `json:"participants"`
	Rooms        int `json:"rooms"`
}

// Coordinator drives the join, message, location and disconnect transitions of every session.
type Coordinator struct {
	// mu serializes every state transition and the broadcasts it triggers.
	mu sync.Mutex

	registry  *presence.Registry
	filter    ContentFilter
	formatter *message.Formatter

	// sessions holds every attached connection, joined or not.
	sessions map[string]*Session

	// members holds the peers bound to a room broadcast group, keyed by connection id.
	members map[string]Peer

	// closing is set once Shutdown starts; drained is closed when the last session leaves after that.
	closing bool
	drained chan struct{}

	logger zerolog.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithFormatter replaces the wall-clock message formatter.
func WithFormatter(f *message.Formatter) Option {
	return func(c *Coordinator) {
		c.formatter = f
	}
}

// NewCoordinator creates a Coordinator over registry, gating messages with filter.
func NewCoordinator(registry *presence.Registry, filter ContentFilter, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:  registry,
		filter:    filter,
		formatter: message.NewFormatter(nil),
		sessions:  make(map[string]*Session),
		members:   make(map[string]Peer),
		drained:   make(chan struct{}),
		logger:    logx.Component("Coordinator"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Attach starts tracking a new connection in the UNJOINED state.
func (c *Coordinator) Attach(peer Peer) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing {
		return nil, errs.NewError(errs.ErrShuttingDown)
	}

	if _, ok := c.sessions[peer.ID()]; ok {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	s := &Session{
		coordinator: c,
		peer:        peer,
		state:       StateUnjoined,
		logger:      c.logger.With().Str("connection_id", peer.ID()).Logger(),
	}
	c.sessions[peer.ID()] = s

	s.logger.Debug().Int("connections", len(c.sessions)).Msg("Connection attached.")
	return s, nil
}

// Accepting reports whether new connections are still attached.
func (c *Coordinator) Accepting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return !c.closing
}

// Roster returns the current roster of room. The room name is normalized.
func (c *Coordinator) Roster(room string) message.RoomData {
	room = presence.Normalize(room)
	return rosterOf(room, c.registry.ListRoom(room))
}

// Stats returns connection, participant and room counts.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Connections:  len(c.sessions),
		Participants: c.registry.Len(),
		Rooms:        c.registry.RoomCount(),
	}
}

// Announce sends an admin message to every joined connection in every room.
func (c *Coordinator) Announce(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.broadcastAll(body)
}

// Shutdown refuses new connections and joins, tells everyone the server is stopping, and
// closes every connection. It waits until every session has disconnected or ctx is done.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()

	if !c.closing {
		c.closing = true
		c.logger.Info().Int("connections", len(c.sessions)).Msg("Shutting down Coordinator.")

		c.broadcastAll(errs.NewError(errs.ErrShuttingDown).Message)

		for _, s := range c.sessions {
			s.peer.Close(CloseShutdown)
		}
		c.checkDrained()
	}

	c.mu.Unlock()

	select {
	case <-c.drained:
		c.logger.Info().Msg("Coordinator shutdown complete.")
		return nil
	case <-ctx.Done():
		c.logger.Warn().Err(ctx.Err()).Msg("Coordinator shutdown interrupted before all connections closed.")
		return ctx.Err()
	}
}

// checkDrained closes drained when shutting down with no sessions left. Callers hold mu.
func (c *Coordinator) checkDrained() {
	if !c.closing || len(c.sessions) > 0 {
		return
	}

	select {
	case <-c.drained:
	default:
		close(c.drained)
	}
}

// invariantViolation records a disagreement between session state and the registry.
// It is a defect in lifecycle tracking, so it is logged with a stack trace at error level.
func (c *Coordinator) invariantViolation(s *Session, cause error, msg string) error {
	s.logger.Error().
		Err(cause).
		Bool("invariant", true).
		Str("state", s.state.String()).
		Str("stack", string(debug.Stack())).
		Msg(msg)

	return errs.NewError(errs.ErrInvariantViolation)
}
