package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/MrEthical07/couchjwt/autherr"
)

// IDBytes is the entropy of a session id.
const IDBytes = 16

// ErrUnavailable matches every storage failure returned by a backend. It
// carries the EBACKEND classification.
var ErrUnavailable = autherr.ErrBackend

// ErrRevokeConflict is returned by backends with optimistic concurrency when
// a concurrent writer removed or changed the session between read and delete.
var ErrRevokeConflict = errors.New("session revoke conflict")

// ErrInvalidID is returned for ids that are empty or not lowercase hex.
var ErrInvalidID = errors.New("invalid session id")

// Store is the existence store consulted on every token validation.
//
// Create and Revoke are idempotent: creating an existing id and revoking a
// missing id both succeed without side effects.
type Store interface {
	Create(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

// NewID returns a fresh session id: 16 bytes from crypto/rand, hex encoded.
func NewID() (string, error) {
	var raw [IDBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("session id entropy: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// ValidID reports whether id has the shape produced by NewID.
func ValidID(id string) bool {
	if len(id) != IDBytes*2 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func unavailable(op string, err error) error {
	return autherr.Backend(fmt.Errorf("%s: %w", op, err))
}
