package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MrEthical07/couchjwt/autherr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Supported signing algorithms, named as they appear in the token header.
const (
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"
	AlgEdDSA = "EdDSA"
)

// DefaultTTL is the token lifetime when Config.TTL is zero.
const DefaultTTL = 5 * time.Minute

// Config holds the signing material and validation rules of a [Codec].
type Config struct {
	// Secret is the HMAC key used by the HS* algorithms.
	Secret []byte
	// Algorithms lists accepted algorithms; the first one signs. Defaults to HS256.
	Algorithms []string
	TTL        time.Duration
	Issuer     string
	// PrivateKey and PublicKey are ed25519 keys, raw or PEM encoded. The
	// public key is derived from the private key when omitted.
	PrivateKey []byte
	PublicKey  []byte
	Leeway     time.Duration
	Now        func() time.Time
}

// Claims is the payload of a couchjwt token.
type Claims struct {
	Name    string   `json:"name"`
	Roles   []string `json:"roles"`
	Session string   `json:"session,omitempty"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c == nil || c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// VerifyOptions tunes a single [Codec.Verify] call.
type VerifyOptions struct {
	// IgnoreExpiration checks signature and issuer but accepts expired tokens.
	IgnoreExpiration bool
}

// Codec signs and verifies tokens. It is safe for concurrent use.
type Codec struct {
	ttl    time.Duration
	issuer string
	now    func() time.Time

	signing jwt.SigningMethod
	signKey any
	hmacKey []byte
	edPub   ed25519.PublicKey

	strict  *jwt.Parser
	lenient *jwt.Parser
	loose   *jwt.Parser
}

// NewCodec validates cfg and builds a codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	algs, err := normalizeAlgorithms(cfg.Algorithms)
	if err != nil {
		return nil, err
	}

	c := &Codec{ttl: cfg.TTL, issuer: cfg.Issuer, now: cfg.Now}

	if slices.ContainsFunc(algs, isHMAC) {
		if len(cfg.Secret) == 0 {
			return nil, errors.New("HMAC algorithms require a secret")
		}
		c.hmacKey = cfg.Secret
	}
	if slices.Contains(algs, AlgEdDSA) {
		var priv ed25519.PrivateKey
		if len(cfg.PrivateKey) > 0 {
			if priv, err = parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		switch {
		case len(cfg.PublicKey) > 0:
			if c.edPub, err = parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		case priv != nil:
			c.edPub = priv.Public().(ed25519.PublicKey)
		default:
			return nil, errors.New("EdDSA requires a public or private key")
		}
		// A codec without the private key verifies only.
		if algs[0] == AlgEdDSA && priv != nil {
			c.signKey = priv
		}
	}

	c.signing = jwt.GetSigningMethod(algs[0])
	if isHMAC(algs[0]) {
		c.signKey = c.hmacKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(algs),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	c.strict = jwt.NewParser(opts...)
	c.lenient = jwt.NewParser(jwt.WithValidMethods(algs), jwt.WithoutClaimsValidation())
	c.loose = jwt.NewParser()
	return c, nil
}

// TTL reports the lifetime given to issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for name and roles. An empty session yields a
// session-less token.
func (c *Codec) Issue(name string, roles []string, session string) (string, *Claims, error) {
	if c.signKey == nil {
		return "", nil, errors.New("codec has no signing key")
	}
	now := c.now().Truncate(time.Second)
	claims := &Claims{
		Name:    name,
		Roles:   cloneRoles(roles),
		Session: session,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(c.signing, claims).SignedString(c.signKey)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, claims, nil
}

// Decode reads the payload without checking the signature or expiry. It only
// serves to locate the session before the token is verified.
func (c *Codec) Decode(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, autherr.BadToken(errors.New("empty token"))
	}
	claims := &Claims{}
	if _, _, err := c.loose.ParseUnverified(token, claims); err != nil {
		return nil, autherr.BadToken(err)
	}
	claims.Roles = cloneRoles(claims.Roles)
	return claims, nil
}

// Verify checks signature, algorithm, issuer and, unless opts says
// otherwise, expiry. Expiry failures are EEXPTOKEN; everything else is
// EBADTOKEN.
func (c *Codec) Verify(token string, opts VerifyOptions) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, autherr.BadToken(errors.New("empty token"))
	}
	parser := c.strict
	if opts.IgnoreExpiration {
		parser = c.lenient
	}

	claims := &Claims{}
	if _, err := parser.ParseWithClaims(token, claims, c.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherr.ExpiredToken(err)
		}
		return nil, autherr.BadToken(err)
	}
	if opts.IgnoreExpiration && c.issuer != "" && claims.Issuer != c.issuer {
		return nil, autherr.BadToken(jwt.ErrTokenInvalidIssuer)
	}
	claims.Roles = cloneRoles(claims.Roles)
	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if c.hmacKey == nil {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.hmacKey, nil
	case *jwt.SigningMethodEd25519:
		if c.edPub == nil {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.edPub, nil
	default:
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
}

func normalizeAlgorithms(in []string) ([]string, error) {
	if len(in) == 0 {
		return []string{AlgHS256}, nil
	}
	out := make([]string, 0, len(in))
	for _, raw := range in {
		alg := canonicalAlg(raw)
		if alg == "" {
			return nil, fmt.Errorf("unsupported signing algorithm %q", raw)
		}
		if !slices.Contains(out, alg) {
			out = append(out, alg)
		}
	}
	return out, nil
}

func canonicalAlg(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HS256":
		return AlgHS256
	case "HS384":
		return AlgHS384
	case "HS512":
		return AlgHS512
	case "EDDSA", "ED25519":
		return AlgEdDSA
	default:
		return ""
	}
}

func isHMAC(alg string) bool { return strings.HasPrefix(alg, "HS") }

func cloneRoles(roles []string) []string {
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
