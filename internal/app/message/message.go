/*
Package message builds the transient records broadcast to rooms.

Nothing here is stored: a Message or LocationShare is created for one event,
serialized to its recipients and dropped.
*/
package message

import (
	"fmt"
	"strconv"
	"time"
)

// AdminSender is the sender name of server-generated messages.
const AdminSender = "admin"

// mapURLTemplate is consumed verbatim by clients rendering locationMessage events.
const mapURLTemplate = "https://www.google.com/maps?q=%s,%s"

// Message is a text message attributed to a participant or to AdminSender.
type Message struct {
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"createdAt"`
}

// LocationShare is a map link shared by a participant.
type LocationShare struct {
	Sender    string `json:"sender"`
	URL       string `json:"url"`
	CreatedAt int64  `json:"createdAt"`
}

// RoomData is the roster of a room in join order.
type RoomData struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// Formatter stamps records with the time of its clock.
type Formatter struct {
	now func() time.Time
}

// NewFormatter returns a Formatter reading time from now, or from the wall clock when now is nil.
func NewFormatter(now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	return &Formatter{now: now}
}

// Message builds a Message from sender with body.
func (f *Formatter) Message(sender, body string) Message {
	return Message{
		Sender:    sender,
		Body:      body,
		CreatedAt: f.now().UnixMilli(),
	}
}

// Admin builds a Message from AdminSender.
func (f *Formatter) Admin(body string) Message {
	return f.Message(AdminSender, body)
}

// Location builds a LocationShare from sender for the given coordinates.
func (f *Formatter) Location(sender string, latitude, longitude float64) LocationShare {
	return LocationShare{
		Sender:    sender,
		URL:       MapURL(latitude, longitude),
		CreatedAt: f.now().UnixMilli(),
	}
}

var wallClock = NewFormatter(nil)

// FormatMessage builds a Message stamped with the current wall-clock time.
func FormatMessage(sender, body string) Message {
	return wallClock.Message(sender, body)
}

// FormatLocation builds a LocationShare stamped with the current wall-clock time.
func FormatLocation(sender string, latitude, longitude float64) LocationShare {
	return wallClock.Location(sender, latitude, longitude)
}

// MapURL renders the map link for a coordinate pair.
// Coordinates use the shortest decimal form that round-trips, so 40.0 renders as "40".
func MapURL(latitude, longitude float64) string {
	return fmt.Sprintf(mapURLTemplate, formatCoordinate(latitude), formatCoordinate(longitude))
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Welcome is the private greeting sent to a connection that just joined.
func Welcome() string {
	return "Welcome!"
}

// Joined announces name to the rest of its room.
func Joined(name string) string {
	return fmt.Sprintf("%s has joined!", name)
}

// Left announces the departure of name to its former room.
func Left(name string) string {
	return fmt.Sprintf("%s has left!", name)
}
