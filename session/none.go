package session

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// NoneStore records nothing and reports every session as existing. Tokens
// issued against it cannot be revoked before they expire.
type NoneStore struct{}

// NewNone returns a [NoneStore], warning when used in production.
func NewNone(logger hclog.Logger, production bool) NoneStore {
	if logger == nil {
		logger = hclog.Default()
	}
	if production {
		logger.Warn("session store \"none\" in production: logout cannot revoke tokens before expiry")
	}
	return NoneStore{}
}

func (NoneStore) Create(context.Context, string) error { return nil }

func (NoneStore) Exists(context.Context, string) (bool, error) { return true, nil }

func (NoneStore) Revoke(context.Context, string) error { return nil }
