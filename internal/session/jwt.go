package session

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// jwtExpiry reads the exp claim of an unverified JWT. The backend is the
// only party that validates the signature; the client only wants to know
// when to expect a 401.
func jwtExpiry(raw string) (*time.Time, error) {
	token, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parsing credential: %w", err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("reading exp claim: %w", err)
	}
	if exp == nil {
		return nil, nil
	}

	t := exp.Time
	return &t, nil
}
