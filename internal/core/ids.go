// AngelaMos | 2026
// ids.go

package core

import (
	"github.com/google/uuid"
)

// RequireID rejects a path id that cannot name any row. Malformed ids are
// reported as missing resources rather than reaching the database.
func RequireID(id, resource string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NotFoundError(resource)
	}
	return nil
}
