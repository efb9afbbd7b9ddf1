package util

import (
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

// URLFromToken returns the API url a JWT access token was issued by. The
// signature is not verified, the server does that.
func URLFromToken(token string) (string, error) {
	p := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims jwt.RegisteredClaims
	parsed, _, err := p.ParseUnverified(token, &claims)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	iss, err := parsed.Claims.GetIssuer()
	if err != nil {
		return "", err
	}
	if iss == "" {
		return "", fmt.Errorf("token has no issuer")
	}
	return iss, nil
}
