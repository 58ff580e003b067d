package giveaway

import (
	"database/sql/driver"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID identifies a giveaway. It is a random UUID shown as 22 characters of
// unpadded base64url so staff can type it back into commands.
type ID uuid.UUID

// NilID is the zero ID.
var NilID ID

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.New())
}

// String returns the short form.
func (id ID) String() string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// UUID returns the canonical representation.
func (id ID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

func (id ID) IsZero() bool {
	return id == NilID
}

// ParseID accepts the short form, its padded variant, or a canonical UUID.
func ParseID(raw string) (ID, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, "=")
	if len(s) == 22 {
		b, err := base64.RawURLEncoding.DecodeString(s)
		if err == nil && len(b) == 16 {
			var id ID
			copy(id[:], b)
			return id, nil
		}
	}
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return NilID, fmt.Errorf("invalid giveaway id %q", raw)
	}
	return ID(u), nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value stores the ID as a 16-byte blob.
func (id ID) Value() (driver.Value, error) {
	return id[:], nil
}

// Scan reads a 16-byte blob.
func (id *ID) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("giveaway id: unsupported type %T", src)
	}
	if len(b) != 16 {
		return fmt.Errorf("giveaway id: expected 16 bytes, got %d", len(b))
	}
	copy(id[:], b)
	return nil
}
