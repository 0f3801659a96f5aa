package token

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/pkg/errors"
)

// Issuer mints and verifies signed access/refresh token pairs. Verification
// is stateless; whether a refresh token is still the principal's live one is
// the session store's concern, not the Issuer's.
type Issuer struct {
	accessSigner  Signer
	refreshSigner Signer
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	nowFunc       func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessExpiry, refreshExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessExpiry = accessExpiry
		i.refreshExpiry = refreshExpiry
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func WithIssuer(issuer string) IssuerOption {
	return func(i *Issuer) {
		i.issuer = issuer
	}
}

func New(accessSigner, refreshSigner Signer, options ...IssuerOption) *Issuer {
	i := &Issuer{
		accessSigner:  accessSigner,
		refreshSigner: refreshSigner,
	}

	for _, opt := range options {
		opt(i)
	}

	if i.accessExpiry == 0 {
		i.accessExpiry = time.Hour
	}
	if i.refreshExpiry == 0 {
		i.refreshExpiry = 24 * time.Hour
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i
}

// IssuePair mints a fresh access/refresh pair for the principal.
func (i *Issuer) IssuePair(principalID int64, username string) (*Pair, error) {
	accessToken, err := i.sign(principalID, username, UseAccess)
	if err != nil {
		return nil, errors.Wrap(err, "Issuer.IssuePair access")
	}

	refreshToken, err := i.sign(principalID, username, UseRefresh)
	if err != nil {
		return nil, errors.Wrap(err, "Issuer.IssuePair refresh")
	}

	return &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(i.accessExpiry.Seconds()),
	}, nil
}

func (i *Issuer) sign(principalID int64, username string, use Use) (string, error) {
	expiry := i.accessExpiry
	signer := i.accessSigner
	if use == UseRefresh {
		expiry = i.refreshExpiry
		signer = i.refreshSigner
	}

	claims := jwt.MapClaims{
		"iss":      i.issuer,
		"sub":      strconv.FormatInt(principalID, 10),
		"username": username,
		"use":      string(use),
		"iat":      i.nowFunc().Unix(),
		"exp":      i.nowFunc().Add(expiry).Unix(),
		"jti":      uuid.New().String(),
	}

	return signer.Sign(claims)
}

// Verify parses rawToken, checks its signature and expiry and confirms it
// was minted for the expected use. Any failure surfaces as ErrInvalidToken
// or ErrTokenExpired; callers decide how that maps onto their own taxonomy.
func (i *Issuer) Verify(rawToken string, expectedUse Use) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrInvalidToken
	}

	signer := i.accessSigner
	if expectedUse == UseRefresh {
		signer = i.refreshSigner
	}

	parsed, err := jwt.Parse(rawToken, signer.GetVerificationKey,
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	use, _ := mapClaims["use"].(string)
	if Use(use) != expectedUse {
		return nil, apperrors.ErrInvalidToken
	}

	if i.issuer != "" {
		if iss, _ := mapClaims["iss"].(string); iss != i.issuer {
			return nil, apperrors.ErrInvalidToken
		}
	}

	sub, _ := mapClaims["sub"].(string)
	subject, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	username, _ := mapClaims["username"].(string)
	iat, _ := mapClaims["iat"].(float64)
	exp, _ := mapClaims["exp"].(float64)
	jti, _ := mapClaims["jti"].(string)

	return &Claims{
		Subject:   subject,
		Username:  username,
		Use:       Use(use),
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
		ID:        jti,
	}, nil
}

// AccessExpiry returns the configured access token lifetime.
func (i *Issuer) AccessExpiry() time.Duration {
	return i.accessExpiry
}

// RefreshExpiry returns the configured refresh token lifetime.
func (i *Issuer) RefreshExpiry() time.Duration {
	return i.refreshExpiry
}
