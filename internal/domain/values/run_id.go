// Package values contains domain value objects that encapsulate
// primitive types with validation and such.
package values

import (
	"fmt"

	"github.com/google/uuid"
)

// RunID uniquely identifies one compatibility run.
// It ties together log lines, output artifacts and subprocess invocations.
type RunID struct {
	value uuid.UUID
}

// NewRunID creates a new random run ID
func NewRunID() RunID {
	return RunID{value: uuid.New()}
}

// ParseRunID parses a string into a RunID
func ParseRunID(s string) (RunID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RunID{}, fmt.Errorf("invalid run ID: %w", err)
	}
	return RunID{value: id}, nil
}

// MustParseRunID parses a string or panics (for tests only)
func MustParseRunID(s string) RunID {
	id, err := ParseRunID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation
func (r RunID) String() string {
	return r.value.String()
}

// UUID returns the underlying uuid.UUID
func (r RunID) UUID() uuid.UUID {
	return r.value
}

// IsZero returns true if this is the zero value
func (r RunID) IsZero() bool {
	return r.value == uuid.Nil
}

// Equals checks if two RunIDs are equal
func (r RunID) Equals(other RunID) bool {
	return r.value == other.value
}

// MarshalText implements encoding.TextMarshaler so the ID renders as a plain
// string in JSON and YAML output.
func (r RunID) MarshalText() ([]byte, error) {
	return []byte(r.value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *RunID) UnmarshalText(data []byte) error {
	id, err := ParseRunID(string(data))
	if err != nil {
		return err
	}
	*r = id
	return nil
}
