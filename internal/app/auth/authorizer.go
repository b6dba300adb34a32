package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrAccessTokenInvalid = errors.New("invalid access token")
)

// Authorizer validates bearer tokens issued by the identity provider that
// fronts the application. Credential management (sign-up, passwords) lives
// there, not here; this service only needs the coach identity carried in
// the token's subject claim.
type Authorizer struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type AccessTokenData struct {
	CoachID string
}

func (a *Authorizer) ValidateAccessToken(accessToken string) (*AccessTokenData, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(accessToken, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAccessTokenInvalid
		}
		return []byte(a.Secret), nil
	})
	if err != nil {
		return nil, ErrAccessTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrAccessTokenInvalid
	}

	return &AccessTokenData{CoachID: sub}, nil
}

// GenerateAccessToken mints a token for the given coach. Used by local
// tooling and tests; production tokens come from the identity provider.
func (a *Authorizer) GenerateAccessToken(coachID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": coachID,
		"exp": now.Add(a.AccessTokenTTL).Unix(),
		"iat": now.Unix(),
	})
	return token.SignedString([]byte(a.Secret))
}
