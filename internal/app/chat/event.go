/*
Package chat contains the connection lifecycle and room broadcast engine.

This file defines the JSON frames exchanged with clients: inbound events carrying an
optional acknowledgment id, outbound room events, and acknowledgments.
*/
package chat

import (
	"encoding/json"
	"fmt"
)

// EventType names a frame on the wire.
type EventType string

// Inbound event types.
const (
	EventJoin          EventType = "join"
	EventSendMessage   EventType = "sendMessage"
	EventShareLocation EventType = "shareLocation"

	// EventSendLocation is the legacy name of EventShareLocation still sent by older clients.
	EventSendLocation EventType = "sendLocation"
)

// Outbound event types.
const (
	EventMessage         EventType = "message"
	EventLocationMessage EventType = "locationMessage"
	EventRoomData        EventType = "roomData"
	EventAck             EventType = "ack"
)

// Inbound is a frame received from a client.
type Inbound struct {
	Type EventType `json:"type"`

	// AckID is set when the client expects an acknowledgment for this event.
	AckID *int64 `json:"ackId,omitempty"`

	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound is a frame sent to a client.
type Outbound struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Ack acknowledges one inbound event. Error is empty on success.
type Ack struct {
	Type  EventType `json:"type"`
	AckID int64     `json:"ackId"`
	Error string    `json:"error,omitempty"`
}

// JoinPayload is the payload of a join event.
// Older clients send the display name as "username".
type JoinPayload struct {
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Room        string `json:"room"`
}

// Name returns the display name, preferring DisplayName over Username.
func (p JoinPayload) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// LocationPayload is the payload of a shareLocation event.
type LocationPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// encodeEvent marshals an outbound frame once so it can be fanned out to many peers.
func encodeEvent(eventType EventType, payload any) ([]byte, error) {
	frame, err := json.Marshal(Outbound{Type: eventType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return frame, nil
}

// encodeAck marshals the acknowledgment for ackID.
func encodeAck(ackID int64, errMsg string) ([]byte, error) {
	frame, err := json.Marshal(Ack{Type: EventAck, AckID: ackID, Error: errMsg})
	if err != nil {
		return nil, fmt.Errorf("encode ack: %w", err)
	}
	return frame, nil
}
