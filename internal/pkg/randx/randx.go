/*
Package randx generates the opaque identifiers used by the server.

Connection identifiers are UUID v4 strings; they are unique for the lifetime of the process
and are never reused while the connection they name is still open.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnectionID returns a fresh identifier for a transport connection.
func ConnectionID() string {
	return uuid.NewString()
}

// IsValidConnectionID reports whether id has the shape produced by ConnectionID.
func IsValidConnectionID(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.Version() == 4 && parsed.String() == id
}
