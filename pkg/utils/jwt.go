package utils

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/postsync/internal/transfer"
)

const tokenIssuer = "postsync"

var ErrTokenSubject = errors.New("token subject does not match user")

// GenerateToken signs a session token for userID, valid for ttl.
func GenerateToken(secretKey string, userID int64, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", errors.New("token needs a positive user id")
	}

	issuedAt := time.Now()
	claims := transfer.SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return signed, nil
}

// ValidateToken accepts only HS256 tokens issued here that carry an expiry
// and a subject matching the user id claim.
func ValidateToken(secretKey, tokenString string) (*transfer.SessionClaims, error) {
	var claims transfer.SessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if claims.UserID <= 0 || claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return nil, ErrTokenSubject
	}
	return &claims, nil
}
