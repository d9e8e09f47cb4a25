package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"  // hex encoding of random bytes and digests
	"errors"        // sentinel error for verification failures
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned for every access-token verification
// failure: bad signature, wrong algorithm, malformed structure or
// expiry. Callers must not be able to tell these cases apart.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are stateless: validity is fully determined by signature
// and expiry, never by a server-side lookup. They are short-lived and
// travel either in the Authorization header or in an HTTP-only cookie.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// AccessClaims is the decoded payload of a verified access token.
// Role is nil when the user has no role assigned.
type AccessClaims struct {
	UserID string  // sub claim
	Name   string  // name claim
	Role   *string // role claim (nullable)
}

// RefreshToken represents a long-lived opaque secret used to obtain new
// access tokens. The Raw field is handed to the client; the server only
// ever persists the SHA-256 hash of it.
type RefreshToken struct {
	Raw string    // raw secret returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claims are
// sub (user id), name, role (null when unset), iat and exp. The expiry is
// now + ttl.
func NewAccessToken(secret, userID, name string, role *string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": name,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	if role != nil {
		claims["role"] = *role
	} else {
		claims["role"] = nil
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken validates the signature and expiry of a signed access
// token and extracts its claims. Only HMAC-signed tokens are accepted;
// any failure collapses into ErrInvalidToken.
func VerifyAccessToken(secret, raw string) (AccessClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return AccessClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	out := AccessClaims{UserID: sub}
	if name, ok := claims["name"].(string); ok {
		out.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = &role
	}
	return out, nil
}

// NewRefreshToken returns a cryptographically secure random secret and its
// expiration time. 48 bytes of entropy encoded as 96 hex characters.
func NewRefreshToken(ttl time.Duration) (RefreshToken, error) {
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(ttl),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh secret as a
// hex string. Only this digest is persisted, so stolen database rows
// cannot be replayed as refresh secrets.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
