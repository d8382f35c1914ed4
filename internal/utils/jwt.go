package utils // package utils provides helper functions for token creation, hashing and uploads

import (
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// SessionToken is a signed JWT together with its expiry.  The same string
// is set in the session cookie and returned to API clients for use as a
// Bearer token.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT for a user.  The subject is
// the username and the role claim carries ADMIN or CUSTOMER.
func NewSessionToken(secret, username, role string, ttlMin int) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  username,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}
