package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "rocketshoes-gateway"

var ErrInvalidToken = errors.New("invalid session token")

// TokenMaker issues and verifies HS256 tokens whose subject is a cart
// session id.
type TokenMaker struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSession mints a fresh session id and its token.
func (t *TokenMaker) NewSession(ttl time.Duration) (sessionID, token string, err error) {
	sessionID = uuid.NewString()
	token, err = t.New(sessionID, ttl)
	if err != nil {
		return "", "", err
	}
	return sessionID, token, nil
}

func (t *TokenMaker) New(sessionID string, ttl time.Duration) (string, error) {
	now := t.now()

	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if _, err := uuid.Parse(c.SessionID); err != nil {
		return Claims{}, ErrInvalidToken
	}

	return c, nil
}
