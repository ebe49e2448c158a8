// Package uuid generates the string identifiers used for every ledger record.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New generates a new UUIDv7 string.
// UUIDv7 values are time-ordered, so ids created later sort after earlier
// ones in both storage backends.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Fallback to a random UUIDv4 if the entropy source fails
		return googleuuid.New().String()
	}
	return id.String()
}
