package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// Messages are sent verbatim to clients in acknowledgments, so several of them are
// part of the client contract and must not change.
var errorMap = map[int]CustomError{
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrEventRateExceeded: {Code: ErrEventRateExceeded, Message: "You are sending messages too fast."},

	ErrNameAndRoomRequired: {Code: ErrNameAndRoomRequired, Message: "Username and room are required!"},
	ErrNameInUse:           {Code: ErrNameInUse, Message: "Username already in use!"},
	ErrParticipantNotFound: {Code: ErrParticipantNotFound, Message: "User doesn't exist!", Status: http.StatusNotFound},
	ErrContentBlocked:      {Code: ErrContentBlocked, Message: "Profanity is not allowed here."},

	ErrNotJoined:     {Code: ErrNotJoined, Message: "Join a room first."},
	ErrAlreadyJoined: {Code: ErrAlreadyJoined, Message: "Already joined a room."},
	ErrShuttingDown:  {Code: ErrShuttingDown, Message: "Server is shutting down.", Status: http.StatusServiceUnavailable},

	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrInvariantViolation: {Code: ErrInvariantViolation, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
