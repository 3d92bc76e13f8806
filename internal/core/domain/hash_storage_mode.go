package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// HashStorageMode selects which HashStore implementation backs use_hash
// tasks (spec §4.8).
type HashStorageMode int

const (
	// HashStorageMemory keeps digests in process memory only; lost on
	// restart (default).
	HashStorageMemory HashStorageMode = iota
	// HashStorageFile persists digests at <root>/.watchdag/hashes.
	HashStorageFile
)

func (m HashStorageMode) String() string {
	if m == HashStorageFile {
		return "file"
	}
	return "memory"
}

// ParseHashStorageMode parses the [config].hash_storage_mode value ("memory"
// or "file", case-insensitive).
func ParseHashStorageMode(s string) (HashStorageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "memory":
		return HashStorageMemory, nil
	case "file":
		return HashStorageFile, nil
	default:
		return HashStorageMemory, zerr.With(ErrInvalidHashStorageMode, "value", s)
	}
}
