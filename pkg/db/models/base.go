package models

import "github.com/google/uuid"

// ensureID assigns a fresh identifier before insert so rows created through
// GORM do not rely on a database-side default.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
