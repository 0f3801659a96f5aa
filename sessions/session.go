package sessions

import (
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// RefreshSession is the server-side record of a principal's single live
// refresh token. Only a derived hash of the token is stored; a compromised
// store cannot be replayed directly.
type RefreshSession struct {
	PrincipalID int64     // Owner, exactly one session per principal
	TokenHash   string    // sha256 of the raw refresh token, base64url
	IssuedAt    time.Time // When the session was created
}

// HashToken derives the stored form of a raw refresh token.
func HashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
