/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both inside the server
and in the acknowledgments and HTTP responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or event payload validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrEventRateExceeded indicates that a connection is sending events faster than allowed.
	ErrEventRateExceeded = 1008
)

// 2xxx: Room Membership and Content Errors
const (
	// ErrNameAndRoomRequired indicates that the display name or the room was blank after trimming.
	ErrNameAndRoomRequired = 2101

	// ErrNameInUse indicates that the display name is already taken in the requested room.
	ErrNameInUse = 2102

	// ErrParticipantNotFound indicates that no participant is registered for the connection.
	ErrParticipantNotFound = 2103

	// ErrContentBlocked indicates that the message text was rejected by the content policy.
	ErrContentBlocked = 2201
)

// 3xxx: Session Lifecycle Errors
const (
	// ErrNotJoined indicates an event that requires a joined session arrived before join or after disconnect.
	ErrNotJoined = 3001

	// ErrAlreadyJoined indicates a second join on a connection that already joined a room.
	ErrAlreadyJoined = 3002

	// ErrShuttingDown indicates that the server no longer accepts joins.
	ErrShuttingDown = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrInvariantViolation indicates that session state and the presence registry disagree.
	ErrInvariantViolation = 5001
)
