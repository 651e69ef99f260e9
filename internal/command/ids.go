package command

import "github.com/gofrs/uuid"

// NewUUID returns a random (version 4) UUID string for block ids.
func NewUUID() string {
	return uuid.Must(uuid.NewV4()).String()
}
