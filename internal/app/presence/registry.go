/*
Package presence tracks which connection is in which room under which display name.

The Registry is the single owner of that mapping. Rooms have no life of their own: a room
exists exactly as long as at least one registered Participant names it, and its roster is
derived from the participants on demand.
*/
package presence

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"roomchat/internal/pkg/errs"
)

// Participant is a connection's bound identity while it is joined to a room.
// Values are immutable once registered; a different name or room needs a new connection.
type Participant struct {
	ConnectionID string
	DisplayName  string
	Room         string
}

// Registry is a concurrency-safe collection of Participants keyed by connection id,
// with a per-room view ordered by registration time.
type Registry struct {
	mu sync.RWMutex

	// byConn holds every registered participant.
	byConn map[string]Participant

	// rooms lists connection ids per normalized room, oldest registration first.
	rooms map[string][]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]Participant),
		rooms:  make(map[string][]string),
	}
}

// Normalize trims surrounding whitespace and case-folds s.
// Display names and room names are compared only in this form.
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Register binds connectionID to displayName in room.
// Both names are normalized first. It fails with ErrNameAndRoomRequired when either is blank,
// with ErrNameInUse when the room already has a participant with the same name,
// and with ErrAlreadyJoined when the connection is registered already.
// A failed Register leaves the registry untouched.
func (r *Registry) Register(connectionID, displayName, room string) (Participant, error) {
	if connectionID == "" {
		return Participant{}, errs.NewError(errs.ErrInvalidParams)
	}

	p := Participant{
		ConnectionID: connectionID,
		DisplayName:  Normalize(displayName),
		Room:         Normalize(room),
	}

	if p.DisplayName == "" || p.Room == "" {
		return Participant{}, errs.NewError(errs.ErrNameAndRoomRequired)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[connectionID]; ok {
		return Participant{}, errs.NewError(errs.ErrAlreadyJoined)
	}

	for _, id := range r.rooms[p.Room] {
		if r.byConn[id].DisplayName == p.DisplayName {
			return Participant{}, errs.NewError(errs.ErrNameInUse)
		}
	}

	r.byConn[connectionID] = p
	r.rooms[p.Room] = append(r.rooms[p.Room], connectionID)

	return p, nil
}

// Unregister removes and returns the participant bound to connectionID.
// It fails with ErrParticipantNotFound when the connection is not registered,
// which makes repeated disconnects harmless.
func (r *Registry) Unregister(connectionID string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byConn[connectionID]
	if !ok {
		return Participant{}, errs.NewError(errs.ErrParticipantNotFound)
	}

	delete(r.byConn, connectionID)

	ids := slices.DeleteFunc(r.rooms[p.Room], func(id string) bool { return id == connectionID })
	if len(ids) == 0 {
		delete(r.rooms, p.Room)
	} else {
		r.rooms[p.Room] = ids
	}

	return p, nil
}

// Lookup returns the participant bound to connectionID.
func (r *Registry) Lookup(connectionID string) (Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byConn[connectionID]
	if !ok {
		return Participant{}, errs.NewError(errs.ErrParticipantNotFound)
	}
	return p, nil
}

// ListRoom returns the participants of room in registration order.
// The room name is normalized before the lookup; an unknown room yields an empty slice.
func (r *Registry) ListRoom(room string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.rooms[Normalize(room)]
	out := make([]Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byConn[id])
	}
	return out
}

// Len returns the number of registered participants across all rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byConn)
}

// RoomCount returns the number of rooms that currently have at least one participant.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
