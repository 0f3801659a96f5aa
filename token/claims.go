package token

import "time"

// Use distinguishes the two bearer credential kinds minted by the Issuer.
// A refresh token presented where an access token is expected (or the other
// way round) never verifies.
type Use string

const (
	UseAccess  Use = "access"
	UseRefresh Use = "refresh"
)

// Claims is the verified content of a bearer token.
type Claims struct {
	Subject   int64     // Principal ID
	Username  string    // Denormalized for the request context
	Use       Use       // access or refresh
	IssuedAt  time.Time // iat
	ExpiresAt time.Time // exp
	ID        string    // jti
}

// Pair is an access/refresh token pair as handed to the client.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
