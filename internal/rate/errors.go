package rate

import (
	"errors"

	"github.com/MrEthical07/couchjwt/autherr"
)

var (
	// ErrRateLimited matches every throttle rejection by code (ERATELIMIT).
	ErrRateLimited = autherr.ErrRateLimited
	// ErrRedisUnavailable wraps counter storage failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
