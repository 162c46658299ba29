package chat

import (
	"github.com/rs/zerolog"

	"roomchat/internal/app/message"
	"roomchat/internal/pkg/errs"
)

// State is the lifecycle state of one connection.
type State int

const (
	StateUnjoined State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnjoined:
		return "UNJOINED"
	case StateJoined:
		return "JOINED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Session is the lifecycle state machine of a single connection:
// UNJOINED -> JOINED -> CLOSED, or UNJOINED -> CLOSED. CLOSED is terminal.
//
// Every method runs under the Coordinator's mutex, so calls from the connection's
// reader and from shutdown never interleave.
type Session struct {
	coordinator *Coordinator
	peer        Peer

	// state is guarded by coordinator.mu.
	state State

	logger zerolog.Logger
}

// ID returns the connection id of the session.
func (s *Session) ID() string {
	return s.peer.ID()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.coordinator.mu.Lock()
	defer s.coordinator.mu.Unlock()

	return s.state
}

// Join registers the connection in room under displayName and binds it to the room's
// broadcast group. The joiner gets a private welcome, the rest of the room a join
// announcement, and everyone in the room the new roster.
// On a validation or duplicate-name error the session stays UNJOINED and nothing is sent.
func (s *Session) Join(displayName, room string) error {
	c := s.coordinator
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case s.state == StateJoined:
		return errs.NewError(errs.ErrAlreadyJoined)
	case s.state == StateClosed:
		return errs.NewError(errs.ErrNotJoined)
	case c.closing:
		return errs.NewError(errs.ErrShuttingDown)
	}

	p, err := c.registry.Register(s.ID(), displayName, room)
	if err != nil {
		s.logger.Debug().Err(err).Str("room", room).Msg("Join rejected.")
		return err
	}

	s.state = StateJoined
	c.members[s.ID()] = s.peer
	s.logger = s.logger.With().Str("room", p.Room).Str("username", p.DisplayName).Logger()

	c.sendTo(s.peer, EventMessage, c.formatter.Admin(message.Welcome()))
	c.broadcastRoom(p.Room, EventMessage, c.formatter.Admin(message.Joined(p.DisplayName)), s.ID())
	c.broadcastRoster(p.Room)

	s.logger.Info().Int("room_size", len(c.registry.ListRoom(p.Room))).Msg("Participant joined room.")
	return nil
}

// SendMessage broadcasts text to every member of the sender's room, the sender included.
// Text rejected by the content filter is never broadcast. Empty text is not rejected.
func (s *Session) SendMessage(text string) error {
	c := s.coordinator
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.state != StateJoined {
		return errs.NewError(errs.ErrNotJoined)
	}

	p, err := c.registry.Lookup(s.ID())
	if err != nil {
		return c.invariantViolation(s, err, "Joined session has no registered participant on send.")
	}

	if !c.filter.IsAllowed(text) {
		s.logger.Info().Msg("Message blocked by content policy.")
		return errs.NewError(errs.ErrContentBlocked)
	}

	c.broadcastRoom(p.Room, EventMessage, c.formatter.Message(p.DisplayName, text), "")
	return nil
}

// ShareLocation broadcasts a map link for the coordinates to the sender's room.
// Coordinates are not subject to the content filter.
func (s *Session) ShareLocation(latitude, longitude float64) error {
	c := s.coordinator
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.state != StateJoined {
		return errs.NewError(errs.ErrNotJoined)
	}

	p, err := c.registry.Lookup(s.ID())
	if err != nil {
		return c.invariantViolation(s, err, "Joined session has no registered participant on location share.")
	}

	c.broadcastRoom(p.Room, EventLocationMessage, c.formatter.Location(p.DisplayName, latitude, longitude), "")
	return nil
}

// Disconnect moves the session to CLOSED and detaches it from the Coordinator.
// A joined session leaves its room, which is told about the departure and gets the new
// roster. Disconnecting an unjoined or already closed session sends nothing.
func (s *Session) Disconnect() {
	c := s.coordinator
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	wasJoined := s.state == StateJoined
	s.state = StateClosed
	delete(c.sessions, s.ID())
	delete(c.members, s.ID())
	defer c.checkDrained()

	p, err := c.registry.Unregister(s.ID())
	if err != nil {
		if wasJoined {
			_ = c.invariantViolation(s, err, "Joined session has no registered participant on disconnect.")
		}
		s.logger.Debug().Msg("Connection closed before joining a room.")
		return
	}

	c.broadcastRoom(p.Room, EventMessage, c.formatter.Admin(message.Left(p.DisplayName)), "")
	c.broadcastRoster(p.Room)

	s.logger.Info().Int("room_size", len(c.registry.ListRoom(p.Room))).Msg("Participant left room.")
}
