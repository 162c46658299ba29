package chat

import (
	"roomchat/internal/app/message"
	"roomchat/internal/app/presence"
)

// All fan-out helpers expect c.mu to be held. Delivery only queues frames, so none of
// them wait on a recipient.

// sendTo queues a frame for a single peer.
func (c *Coordinator) sendTo(peer Peer, eventType EventType, payload any) {
	frame, err := encodeEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build private event.")
		return
	}
	c.deliver(peer, frame)
}

// broadcastRoom queues a frame for every member of room except the connection exceptID.
func (c *Coordinator) broadcastRoom(room string, eventType EventType, payload any, exceptID string) {
	frame, err := encodeEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("room", room).Msg("Failed to build room event.")
		return
	}

	for _, p := range c.registry.ListRoom(room) {
		if p.ConnectionID == exceptID {
			continue
		}

		peer, ok := c.members[p.ConnectionID]
		if !ok {
			c.logger.Error().
				Bool("invariant", true).
				Str("connection_id", p.ConnectionID).
				Str("room", room).
				Msg("Registered participant has no bound peer.")
			continue
		}
		c.deliver(peer, frame)
	}
}

// broadcastRoster queues the current roster of room for all of its members.
func (c *Coordinator) broadcastRoster(room string) {
	c.broadcastRoom(room, EventRoomData, rosterOf(room, c.registry.ListRoom(room)), "")
}

// broadcastAll queues an admin message for every joined connection.
func (c *Coordinator) broadcastAll(body string) {
	if len(c.members) == 0 {
		return
	}

	frame, err := encodeEvent(EventMessage, c.formatter.Admin(body))
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build global event.")
		return
	}

	for _, peer := range c.members {
		c.deliver(peer, frame)
	}
}

// deliver hands a frame to peer. A peer that cannot keep up is closed; its read side
// then runs the regular disconnect.
func (c *Coordinator) deliver(peer Peer, frame []byte) {
	if peer.Deliver(frame) {
		return
	}

	c.logger.Warn().
		Str("connection_id", peer.ID()).
		Msg("Peer send queue full, closing slow consumer.")
	peer.Close(CloseSlowConsumer)
}

func rosterOf(room string, participants []presence.Participant) message.RoomData {
	users := make([]string, 0, len(participants))
	for _, p := range participants {
		users = append(users, p.DisplayName)
	}
	return message.RoomData{Room: room, Users: users}
}
