package common

import (
	"github.com/google/uuid"
)

// NewEntryID generates a unique memory entry ID with the "mem_" prefix
// Format: mem_<uuid>
func NewEntryID() string {
	return "mem_" + uuid.New().String()
}
